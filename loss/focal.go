package loss

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/parallel"
)

const (
	DefaultFocalGamma = 2.0
	DefaultFocalAlpha = 1.0
)

// FocalLoss down-weights well-classified examples:
// Alpha * (1-p)^Gamma * -log(p), where p is the probability of the true class.
type FocalLoss struct {
	Gamma     float64
	Alpha     float64
	Reduction Reduction
}

// NewFocalLoss returns a focal loss with gamma 2 and alpha 1.
func NewFocalLoss() FocalLoss {
	return FocalLoss{Gamma: DefaultFocalGamma, Alpha: DefaultFocalAlpha}
}

func (f FocalLoss) validate() error {
	if f.Gamma < 0 || math.IsNaN(f.Gamma) || math.IsInf(f.Gamma, 0) {
		return errors.Wrapf(ErrInvalidParameter, "focal gamma must be non-negative and finite, got %v", f.Gamma)
	}
	if !(f.Alpha > 0) || math.IsInf(f.Alpha, 0) {
		return errors.Wrapf(ErrInvalidParameter, "focal alpha must be positive and finite, got %v", f.Alpha)
	}
	return f.Reduction.validate()
}

func (f FocalLoss) Forward(logits *mat.Dense, labels []int) (float64, error) {
	per, err := f.PerExample(logits, labels)
	if err != nil {
		return 0, err
	}
	return f.Reduction.reduce(per), nil
}

func (f FocalLoss) PerExample(logits *mat.Dense, labels []int) ([]float64, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "FocalLoss")
	}
	logProb, err := LogSoftmax(logits)
	if err != nil {
		return nil, err
	}
	out := nllRows(logProb, labels)
	for i, ce := range out {
		pt := math.Exp(-ce)
		out[i] = f.Alpha * math.Pow(1-pt, f.Gamma) * ce
	}
	return out, nil
}

func (f FocalLoss) Backward(logits *mat.Dense, labels []int) (*mat.Dense, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "FocalLoss")
	}
	logProb, err := LogSoftmax(logits)
	if err != nil {
		return nil, err
	}
	rows, cols := logProb.Dims()
	grad := mat.NewDense(rows, cols, nil)
	scale := f.Reduction.scale(rows)
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			label := labels[i]
			lp := logProb.RawRowView(i)
			ce := -lp[label]
			pt := math.Exp(lp[label])
			rest := 1 - pt
			// g = pt * dL/dpt; the 1/pt of d(-log pt) cancels against dpt/dz.
			tail := 0.0
			if rest > 0 {
				tail = f.Gamma * math.Pow(rest, f.Gamma-1) * ce * pt
			}
			g := -f.Alpha * (tail + math.Pow(rest, f.Gamma))
			row := grad.RawRowView(i)
			for j := 0; j < cols; j++ {
				delta := 0.0
				if j == label {
					delta = 1
				}
				row[j] = g * (delta - math.Exp(lp[j])) * scale
			}
		}
	})
	return grad, nil
}
