package loss

import "github.com/pkg/errors"

// Sentinel errors returned by every loss in this package. Context is attached
// with errors.Wrapf, so callers match them with errors.Is.
var (
	// ErrShape is returned for nil or empty logits.
	ErrShape = errors.New("loss: logits must be a non-empty batch x classes matrix")

	// ErrBatchMismatch is returned when the number of labels differs from the logits batch size.
	ErrBatchMismatch = errors.New("loss: label count does not match batch size")

	// ErrClassMismatch is returned when the logits width differs from the configured class count.
	ErrClassMismatch = errors.New("loss: class count mismatch")

	// ErrLabelOutOfRange is returned for a label outside [0, classes).
	ErrLabelOutOfRange = errors.New("loss: label out of range")

	// ErrNaNInf is returned when logits or penalty entries are not finite.
	ErrNaNInf = errors.New("loss: NaN or Inf encountered")

	// ErrUnknownBaseLoss is returned for an unrecognised base loss selector.
	ErrUnknownBaseLoss = errors.New("loss: unknown base loss")

	// ErrNonSquare is returned for a penalty matrix that is not K x K.
	ErrNonSquare = errors.New("loss: penalty matrix is not square")

	// ErrNegativePenalty is returned for a penalty matrix with a negative entry.
	ErrNegativePenalty = errors.New("loss: penalty matrix has a negative entry")

	// ErrEmpty is returned for an empty penalty matrix.
	ErrEmpty = errors.New("loss: penalty matrix is empty")

	// ErrInvalidParameter is returned for out-of-range hyperparameters
	// (negative lambda, non-positive exponent or sigma, and so on).
	ErrInvalidParameter = errors.New("loss: invalid parameter")
)
