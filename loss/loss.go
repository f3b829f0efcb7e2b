// Package loss implements cost-sensitive classification losses for ordinal
// problems, such as grading disease severity, where predicting a grade far from
// the true one should cost more than predicting a neighbouring grade.
//
// Every loss takes a batch x classes logits matrix and integer labels, and
// exposes both its value and its gradient with respect to the logits.
package loss

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/parallel"
)

// Loss is a classification loss over raw logits.
type Loss interface {
	// Forward returns the reduced loss over the batch.
	Forward(logits *mat.Dense, labels []int) (float64, error)
	// PerExample returns one unreduced loss value per row.
	PerExample(logits *mat.Dense, labels []int) ([]float64, error)
	// Backward returns the gradient of Forward with respect to logits.
	Backward(logits *mat.Dense, labels []int) (*mat.Dense, error)
}

// Reduction selects how per-example losses are combined.
type Reduction int

const (
	ReductionMean Reduction = iota
	ReductionSum
)

func (r Reduction) String() string {
	switch r {
	case ReductionMean:
		return "mean"
	case ReductionSum:
		return "sum"
	}
	return "unknown"
}

// ParseReduction resolves "mean" or "sum".
func ParseReduction(s string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean":
		return ReductionMean, nil
	case "sum":
		return ReductionSum, nil
	}
	return 0, errors.Wrapf(ErrInvalidParameter, "unknown reduction %q, known reductions are \"mean\", \"sum\"", s)
}

func (r Reduction) validate() error {
	if r != ReductionMean && r != ReductionSum {
		return errors.Wrapf(ErrInvalidParameter, "unknown reduction %d", int(r))
	}
	return nil
}

// scale is the factor applied to summed per-example values and gradients.
func (r Reduction) scale(batch int) float64 {
	if r == ReductionSum {
		return 1
	}
	return 1 / float64(batch)
}

func (r Reduction) reduce(values []float64) float64 {
	total := parallel.Sum(len(values), func(start, end int) float64 {
		s := 0.0
		for i := start; i < end; i++ {
			s += values[i]
		}
		return s
	})
	return total * r.scale(len(values))
}

// Normalization selects how the cost-sensitive loss turns logits into
// per-class probabilities.
type Normalization int

const (
	NormalizationSoftmax Normalization = iota
	NormalizationSigmoid
)

func (n Normalization) String() string {
	switch n {
	case NormalizationSoftmax:
		return "softmax"
	case NormalizationSigmoid:
		return "sigmoid"
	}
	return "unknown"
}

// ParseNormalization resolves "softmax" or "sigmoid".
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "softmax":
		return NormalizationSoftmax, nil
	case "sigmoid":
		return NormalizationSigmoid, nil
	}
	return 0, errors.Wrapf(ErrInvalidParameter, "unknown normalization %q, known normalizations are \"softmax\", \"sigmoid\"", s)
}

// checkBatch validates logits against labels. classes <= 0 accepts any width.
// It returns the batch size.
func checkBatch(logits *mat.Dense, labels []int, classes int) (int, error) {
	if logits == nil || logits.IsEmpty() {
		return 0, ErrShape
	}
	rows, cols := logits.Dims()
	if classes > 0 && cols != classes {
		return 0, errors.Wrapf(ErrClassMismatch, "logits have %d columns, loss expects %d classes", cols, classes)
	}
	if len(labels) != rows {
		return 0, errors.Wrapf(ErrBatchMismatch, "logits batch is %d, got %d labels", rows, len(labels))
	}
	for i, l := range labels {
		if l < 0 || l >= cols {
			return 0, errors.Wrapf(ErrLabelOutOfRange, "label %d at row %d outside [0,%d)", l, i, cols)
		}
	}
	for i := 0; i < rows; i++ {
		for j, v := range logits.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, errors.Wrapf(ErrNaNInf, "logit at row %d column %d is %v", i, j, v)
			}
		}
	}
	return rows, nil
}
