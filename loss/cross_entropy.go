package loss

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/parallel"
)

// CrossEntropy is softmax cross-entropy against integer labels.
type CrossEntropy struct {
	Reduction Reduction
}

func (c CrossEntropy) validate() error {
	return c.Reduction.validate()
}

func (c CrossEntropy) Forward(logits *mat.Dense, labels []int) (float64, error) {
	per, err := c.PerExample(logits, labels)
	if err != nil {
		return 0, err
	}
	return c.Reduction.reduce(per), nil
}

func (c CrossEntropy) PerExample(logits *mat.Dense, labels []int) ([]float64, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "CrossEntropy")
	}
	logProb, err := LogSoftmax(logits)
	if err != nil {
		return nil, err
	}
	return nllRows(logProb, labels), nil
}

func (c CrossEntropy) Backward(logits *mat.Dense, labels []int) (*mat.Dense, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "CrossEntropy")
	}
	return softTargetGrad(logits, labels, oneHot, c.Reduction)
}

// targetFunc fills q with the target distribution for label.
type targetFunc func(label int, q []float64)

func oneHot(label int, q []float64) {
	for j := range q {
		q[j] = 0
	}
	q[label] = 1
}

// softTargetLoss computes -sum_j q_j log p_j per row. Inputs must be validated.
func softTargetLoss(logits *mat.Dense, labels []int, target targetFunc) ([]float64, error) {
	logProb, err := LogSoftmax(logits)
	if err != nil {
		return nil, err
	}
	_, cols := logits.Dims()
	out := make([]float64, len(labels))
	parallel.For(len(labels), func(start, end int) {
		q := make([]float64, cols)
		for i := start; i < end; i++ {
			target(labels[i], q)
			out[i] = -floats.Dot(q, logProb.RawRowView(i))
		}
	})
	return out, nil
}

// softTargetGrad returns (softmax(z) - q) scaled by the reduction.
func softTargetGrad(logits *mat.Dense, labels []int, target targetFunc, r Reduction) (*mat.Dense, error) {
	grad, err := Softmax(logits)
	if err != nil {
		return nil, err
	}
	_, cols := logits.Dims()
	scale := r.scale(len(labels))
	parallel.For(len(labels), func(start, end int) {
		q := make([]float64, cols)
		for i := start; i < end; i++ {
			target(labels[i], q)
			row := grad.RawRowView(i)
			floats.Sub(row, q)
			floats.Scale(scale, row)
		}
	})
	return grad, nil
}
