package loss

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/parallel"
)

// DefaultExponent is the distance exponent of the default penalty matrix.
const DefaultExponent = 2.0

// CostSensitiveConfig configures a CostSensitive loss. Penalty takes
// precedence over Classes and Exponent; when both Penalty and Classes are set
// they must agree. A zero Exponent means DefaultExponent.
type CostSensitiveConfig struct {
	Classes       int
	Exponent      float64
	Penalty       *PenaltyMatrix
	Normalization Normalization
	Reduction     Reduction
}

// CostSensitive is the expected misclassification cost under the predicted
// distribution: for an example with label l it is sum_j p_j * M[l][j].
type CostSensitive struct {
	mu            sync.RWMutex
	penalty       *PenaltyMatrix
	classes       int
	normalization Normalization
	reduction     Reduction
}

// NewCostSensitive builds a cost-sensitive loss over the distance penalty
// |i-j|^exponent normalised to [0,1].
func NewCostSensitive(classes int, exponent float64) (*CostSensitive, error) {
	return NewCostSensitiveWithConfig(CostSensitiveConfig{Classes: classes, Exponent: exponent})
}

func NewCostSensitiveWithConfig(cfg CostSensitiveConfig) (*CostSensitive, error) {
	if cfg.Normalization != NormalizationSoftmax && cfg.Normalization != NormalizationSigmoid {
		return nil, errors.Wrapf(ErrInvalidParameter, "unknown normalization %d", int(cfg.Normalization))
	}
	if err := cfg.Reduction.validate(); err != nil {
		return nil, err
	}
	penalty := cfg.Penalty
	if penalty == nil {
		exponent := cfg.Exponent
		if exponent == 0 {
			exponent = DefaultExponent
		}
		var err error
		penalty, err = DistancePenalty(cfg.Classes, exponent)
		if err != nil {
			return nil, errors.Wrap(err, "default penalty")
		}
	} else if cfg.Classes > 0 && cfg.Classes != penalty.Classes() {
		return nil, errors.Wrapf(ErrClassMismatch, "penalty is %dx%d, classes is %d", penalty.Classes(), penalty.Classes(), cfg.Classes)
	}
	return &CostSensitive{
		penalty:       penalty,
		classes:       penalty.Classes(),
		normalization: cfg.Normalization,
		reduction:     cfg.Reduction,
	}, nil
}

// Classes returns K.
func (c *CostSensitive) Classes() int {
	return c.classes
}

// Penalty returns the current penalty matrix.
func (c *CostSensitive) Penalty() *PenaltyMatrix {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.penalty
}

// SetPenalty replaces the penalty matrix. The new matrix must be K x K.
func (c *CostSensitive) SetPenalty(p *PenaltyMatrix) error {
	if p == nil {
		return ErrEmpty
	}
	if p.Classes() != c.classes {
		return errors.Wrapf(ErrClassMismatch, "penalty is %dx%d, loss has %d classes", p.Classes(), p.Classes(), c.classes)
	}
	c.mu.Lock()
	c.penalty = p
	c.mu.Unlock()
	return nil
}

func (c *CostSensitive) Forward(logits *mat.Dense, labels []int) (float64, error) {
	per, err := c.PerExample(logits, labels)
	if err != nil {
		return 0, err
	}
	return c.reduction.reduce(per), nil
}

func (c *CostSensitive) PerExample(logits *mat.Dense, labels []int) ([]float64, error) {
	if _, err := checkBatch(logits, labels, c.classes); err != nil {
		return nil, errors.Wrap(err, "CostSensitive")
	}
	probs, err := probabilities(logits, c.normalization)
	if err != nil {
		return nil, err
	}
	penalty := c.Penalty()
	out := make([]float64, len(labels))
	parallel.For(len(labels), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = floats.Dot(probs.RawRowView(i), penalty.row(labels[i]))
		}
	})
	return out, nil
}

func (c *CostSensitive) Backward(logits *mat.Dense, labels []int) (*mat.Dense, error) {
	if _, err := checkBatch(logits, labels, c.classes); err != nil {
		return nil, errors.Wrap(err, "CostSensitive")
	}
	probs, err := probabilities(logits, c.normalization)
	if err != nil {
		return nil, err
	}
	penalty := c.Penalty()
	rows, cols := probs.Dims()
	grad := mat.NewDense(rows, cols, nil)
	scale := c.reduction.scale(rows)
	parallel.For(rows, func(start, end int) {
		for i := start; i < end; i++ {
			p := probs.RawRowView(i)
			m := penalty.row(labels[i])
			g := grad.RawRowView(i)
			if c.normalization == NormalizationSigmoid {
				for k := range g {
					g[k] = m[k] * p[k] * (1 - p[k]) * scale
				}
				continue
			}
			expected := floats.Dot(p, m)
			for k := range g {
				g[k] = p[k] * (m[k] - expected) * scale
			}
		}
	})
	return grad, nil
}

// ExpectedCost returns the reduced cost-sensitive loss of a probability batch
// that is already normalised, skipping the logits transform.
func (c *CostSensitive) ExpectedCost(probs *mat.Dense, labels []int) (float64, error) {
	if _, err := checkBatch(probs, labels, c.classes); err != nil {
		return 0, errors.Wrap(err, "ExpectedCost")
	}
	penalty := c.Penalty()
	rows, _ := probs.Dims()
	for i := 0; i < rows; i++ {
		for _, v := range probs.RawRowView(i) {
			if v < 0 || v > 1 || math.IsNaN(v) {
				return 0, errors.Wrapf(ErrInvalidParameter, "probability %v at row %d outside [0,1]", v, i)
			}
		}
	}
	per := make([]float64, rows)
	for i, l := range labels {
		per[i] = floats.Dot(probs.RawRowView(i), penalty.row(l))
	}
	return c.reduction.reduce(per), nil
}
