package loss

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/parallel"
)

// LogSoftmax returns the row-wise log-softmax of logits. The row maximum is
// subtracted before exponentiating.
func LogSoftmax(logits *mat.Dense) (*mat.Dense, error) {
	if logits == nil || logits.IsEmpty() {
		return nil, ErrShape
	}
	rows, cols := logits.Dims()
	out := mat.NewDense(rows, cols, nil)
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			logSoftmaxRow(out.RawRowView(i), logits.RawRowView(i))
		}
	})
	return out, nil
}

// Softmax returns the row-wise softmax of logits.
func Softmax(logits *mat.Dense) (*mat.Dense, error) {
	out, err := LogSoftmax(logits)
	if err != nil {
		return nil, err
	}
	out.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, out)
	return out, nil
}

// Sigmoid returns the element-wise logistic function of logits.
func Sigmoid(logits *mat.Dense) (*mat.Dense, error) {
	if logits == nil || logits.IsEmpty() {
		return nil, ErrShape
	}
	rows, cols := logits.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, _ int, v float64) float64 { return sigmoid(v) }, logits)
	return out, nil
}

func logSoftmaxRow(dst, src []float64) {
	maxVal := floats.Max(src)
	sum := 0.0
	for _, v := range src {
		sum += math.Exp(v - maxVal)
	}
	logSum := maxVal + math.Log(sum)
	for j, v := range src {
		dst[j] = v - logSum
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func probabilities(logits *mat.Dense, n Normalization) (*mat.Dense, error) {
	if n == NormalizationSigmoid {
		return Sigmoid(logits)
	}
	return Softmax(logits)
}
