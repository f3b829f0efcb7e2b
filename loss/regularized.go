package loss

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultLambda weights the cost-sensitive term against the base loss.
const DefaultLambda = 10.0

// RegularizedConfig configures a Regularized loss. Use
// DefaultRegularizedConfig for the usual hyperparameters.
type RegularizedConfig struct {
	Classes       int
	Exponent      float64
	Penalty       *PenaltyMatrix
	BaseLoss      BaseLoss
	Lambda        float64
	Normalization Normalization
	Reduction     Reduction

	FocalGamma    float64
	FocalAlpha    float64
	Smoothing     float64
	GaussianSigma float64
}

// DefaultRegularizedConfig returns cross-entropy plus 10x the cost-sensitive
// term over the squared-distance penalty.
func DefaultRegularizedConfig(classes int) RegularizedConfig {
	return RegularizedConfig{
		Classes:       classes,
		Exponent:      DefaultExponent,
		BaseLoss:      BaseCrossEntropy,
		Lambda:        DefaultLambda,
		FocalGamma:    DefaultFocalGamma,
		FocalAlpha:    DefaultFocalAlpha,
		Smoothing:     DefaultSmoothing,
		GaussianSigma: DefaultGaussianSigma,
	}
}

// Regularized computes base(logits, labels) + lambda * costSensitive(logits, labels).
type Regularized struct {
	base     Loss
	baseKind BaseLoss
	lambda   float64
	cost     *CostSensitive
}

// NewRegularized uses DefaultRegularizedConfig with the given selector and lambda.
func NewRegularized(classes int, base BaseLoss, lambda float64) (*Regularized, error) {
	cfg := DefaultRegularizedConfig(classes)
	cfg.BaseLoss = base
	cfg.Lambda = lambda
	return NewRegularizedWithConfig(cfg)
}

func NewRegularizedWithConfig(cfg RegularizedConfig) (*Regularized, error) {
	if cfg.Lambda < 0 || math.IsNaN(cfg.Lambda) || math.IsInf(cfg.Lambda, 0) {
		return nil, errors.Wrapf(ErrInvalidParameter, "lambda must be non-negative and finite, got %v", cfg.Lambda)
	}
	base, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	cost, err := NewCostSensitiveWithConfig(CostSensitiveConfig{
		Classes:       cfg.Classes,
		Exponent:      cfg.Exponent,
		Penalty:       cfg.Penalty,
		Normalization: cfg.Normalization,
		Reduction:     cfg.Reduction,
	})
	if err != nil {
		return nil, err
	}
	return &Regularized{
		base:     base,
		baseKind: cfg.BaseLoss,
		lambda:   cfg.Lambda,
		cost:     cost,
	}, nil
}

func newBase(cfg RegularizedConfig) (Loss, error) {
	var base interface {
		Loss
		validate() error
	}
	switch cfg.BaseLoss {
	case BaseCrossEntropy:
		base = CrossEntropy{Reduction: cfg.Reduction}
	case BaseFocal:
		base = FocalLoss{Gamma: cfg.FocalGamma, Alpha: cfg.FocalAlpha, Reduction: cfg.Reduction}
	case BaseLabelSmoothing:
		base = LabelSmoothing{Smoothing: cfg.Smoothing, Reduction: cfg.Reduction}
	case BaseGaussianLabelSmoothing:
		base = GaussianLabelSmoothing{Sigma: cfg.GaussianSigma, Reduction: cfg.Reduction}
	default:
		return nil, errors.Wrapf(ErrUnknownBaseLoss, "selector %d", int(cfg.BaseLoss))
	}
	if err := base.validate(); err != nil {
		return nil, errors.Wrapf(err, "base loss %s", cfg.BaseLoss)
	}
	return base, nil
}

// Base returns the base loss selector.
func (r *Regularized) Base() BaseLoss {
	return r.baseKind
}

// Lambda returns the weight of the cost-sensitive term.
func (r *Regularized) Lambda() float64 {
	return r.lambda
}

// CostSensitive returns the cost-sensitive term.
func (r *Regularized) CostSensitive() *CostSensitive {
	return r.cost
}

// Penalty returns the current penalty matrix.
func (r *Regularized) Penalty() *PenaltyMatrix {
	return r.cost.Penalty()
}

// SetPenalty replaces the penalty matrix of the cost-sensitive term.
func (r *Regularized) SetPenalty(p *PenaltyMatrix) error {
	return r.cost.SetPenalty(p)
}

// Terms returns the reduced base loss and the reduced, unweighted cost-sensitive loss.
func (r *Regularized) Terms(logits *mat.Dense, labels []int) (base, cost float64, err error) {
	if base, err = r.base.Forward(logits, labels); err != nil {
		return 0, 0, err
	}
	if cost, err = r.cost.Forward(logits, labels); err != nil {
		return 0, 0, err
	}
	return base, cost, nil
}

func (r *Regularized) Forward(logits *mat.Dense, labels []int) (float64, error) {
	base, cost, err := r.Terms(logits, labels)
	if err != nil {
		return 0, err
	}
	return base + r.lambda*cost, nil
}

func (r *Regularized) PerExample(logits *mat.Dense, labels []int) ([]float64, error) {
	base, err := r.base.PerExample(logits, labels)
	if err != nil {
		return nil, err
	}
	cost, err := r.cost.PerExample(logits, labels)
	if err != nil {
		return nil, err
	}
	for i := range base {
		base[i] += r.lambda * cost[i]
	}
	return base, nil
}

func (r *Regularized) Backward(logits *mat.Dense, labels []int) (*mat.Dense, error) {
	grad, err := r.base.Backward(logits, labels)
	if err != nil {
		return nil, err
	}
	cost, err := r.cost.Backward(logits, labels)
	if err != nil {
		return nil, err
	}
	cost.Scale(r.lambda, cost)
	grad.Add(grad, cost)
	return grad, nil
}
