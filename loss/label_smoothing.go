package loss

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultSmoothing     = 0.1
	DefaultGaussianSigma = 1.0
)

// LabelSmoothing is cross-entropy against (1-Smoothing)*onehot + Smoothing/K.
type LabelSmoothing struct {
	Smoothing float64
	Reduction Reduction
}

func (l LabelSmoothing) validate() error {
	if l.Smoothing < 0 || l.Smoothing > 1 || math.IsNaN(l.Smoothing) {
		return errors.Wrapf(ErrInvalidParameter, "smoothing must be in [0,1], got %v", l.Smoothing)
	}
	return l.Reduction.validate()
}

func (l LabelSmoothing) target(label int, q []float64) {
	k := float64(len(q))
	for j := range q {
		q[j] = l.Smoothing / k
	}
	q[label] += 1 - l.Smoothing
}

func (l LabelSmoothing) Forward(logits *mat.Dense, labels []int) (float64, error) {
	per, err := l.PerExample(logits, labels)
	if err != nil {
		return 0, err
	}
	return l.Reduction.reduce(per), nil
}

func (l LabelSmoothing) PerExample(logits *mat.Dense, labels []int) ([]float64, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "LabelSmoothing")
	}
	return softTargetLoss(logits, labels, l.target)
}

func (l LabelSmoothing) Backward(logits *mat.Dense, labels []int) (*mat.Dense, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "LabelSmoothing")
	}
	return softTargetGrad(logits, labels, l.target, l.Reduction)
}

// GaussianLabelSmoothing is cross-entropy against a target that decays with
// class distance: q_j proportional to exp(-(j-label)^2 / (2*Sigma^2)).
type GaussianLabelSmoothing struct {
	Sigma     float64
	Reduction Reduction
}

func (g GaussianLabelSmoothing) validate() error {
	if !(g.Sigma > 0) || math.IsInf(g.Sigma, 0) {
		return errors.Wrapf(ErrInvalidParameter, "sigma must be positive and finite, got %v", g.Sigma)
	}
	return g.Reduction.validate()
}

// Target returns the smoothed target distribution for label over classes.
func (g GaussianLabelSmoothing) Target(label, classes int) []float64 {
	q := make([]float64, classes)
	g.target(label, q)
	return q
}

func (g GaussianLabelSmoothing) target(label int, q []float64) {
	denom := 2 * g.Sigma * g.Sigma
	for j := range q {
		d := float64(j - label)
		q[j] = math.Exp(-d * d / denom)
	}
	floats.Scale(1/floats.Sum(q), q)
}

func (g GaussianLabelSmoothing) Forward(logits *mat.Dense, labels []int) (float64, error) {
	per, err := g.PerExample(logits, labels)
	if err != nil {
		return 0, err
	}
	return g.Reduction.reduce(per), nil
}

func (g GaussianLabelSmoothing) PerExample(logits *mat.Dense, labels []int) ([]float64, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "GaussianLabelSmoothing")
	}
	return softTargetLoss(logits, labels, g.target)
}

func (g GaussianLabelSmoothing) Backward(logits *mat.Dense, labels []int) (*mat.Dense, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	if _, err := checkBatch(logits, labels, 0); err != nil {
		return nil, errors.Wrap(err, "GaussianLabelSmoothing")
	}
	return softTargetGrad(logits, labels, g.target, g.Reduction)
}
