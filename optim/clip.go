package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ClipGradNorm rescales all gradients so that their joint normType-norm is at
// most maxNorm. It returns the norm before clipping.
func ClipGradNorm(params []*Param, maxNorm float64, normType float64) float64 {
	if maxNorm <= 0 {
		return 0
	}
	if normType <= 0 {
		normType = 2
	}
	total := 0.0
	for _, p := range params {
		if p == nil || p.Grad == nil {
			continue
		}
		for _, v := range p.Grad.RawMatrix().Data {
			total += math.Pow(math.Abs(v), normType)
		}
	}
	norm := math.Pow(total, 1.0/normType)
	if norm > maxNorm && norm > 0 {
		scale := maxNorm / norm
		for _, p := range params {
			if p == nil || p.Grad == nil {
				continue
			}
			p.Grad.Scale(scale, p.Grad)
		}
	}
	return norm
}

// ClipGradValue clamps every gradient entry to [-clipValue, clipValue].
func ClipGradValue(params []*Param, clipValue float64) {
	if clipValue <= 0 {
		return
	}
	for _, p := range params {
		if p == nil || p.Grad == nil {
			continue
		}
		data := p.Grad.RawMatrix().Data
		for i, v := range data {
			data[i] = math.Max(-clipValue, math.Min(clipValue, v))
		}
	}
}

// GradNorm returns the joint L2 norm of all gradients.
func GradNorm(params []*Param) float64 {
	total := 0.0
	for _, p := range params {
		if p == nil || p.Grad == nil {
			continue
		}
		n := floats.Norm(p.Grad.RawMatrix().Data, 2)
		total += n * n
	}
	return math.Sqrt(total)
}
