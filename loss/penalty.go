package loss

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PenaltyMatrix is an immutable K x K table of misclassification costs.
// At(i, j) is the cost of putting probability mass on class j when the true
// class is i. Entries are finite and non-negative.
type PenaltyMatrix struct {
	data *mat.Dense
}

// NewPenaltyMatrix validates rows and copies them into a PenaltyMatrix.
func NewPenaltyMatrix(rows [][]float64) (*PenaltyMatrix, error) {
	k := len(rows)
	if k == 0 {
		return nil, ErrEmpty
	}
	data := mat.NewDense(k, k, nil)
	for i, row := range rows {
		if len(row) != k {
			return nil, errors.Wrapf(ErrNonSquare, "row %d has %d entries, want %d", i, len(row), k)
		}
		data.SetRow(i, row)
	}
	return newPenalty(data)
}

// PenaltyFromMatrix validates m and copies it into a PenaltyMatrix.
func PenaltyFromMatrix(m mat.Matrix) (*PenaltyMatrix, error) {
	if m == nil {
		return nil, ErrEmpty
	}
	if d, ok := m.(*mat.Dense); ok && d.IsEmpty() {
		return nil, ErrEmpty
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, ErrEmpty
	}
	if r != c {
		return nil, errors.Wrapf(ErrNonSquare, "got %dx%d", r, c)
	}
	return newPenalty(mat.DenseCopyOf(m))
}

func newPenalty(data *mat.Dense) (*PenaltyMatrix, error) {
	k, _ := data.Dims()
	for i := 0; i < k; i++ {
		for j, v := range data.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Wrapf(ErrNaNInf, "penalty entry (%d,%d) is %v", i, j, v)
			}
			if v < 0 {
				return nil, errors.Wrapf(ErrNegativePenalty, "penalty entry (%d,%d) is %v", i, j, v)
			}
		}
	}
	return &PenaltyMatrix{data: data}, nil
}

// DistancePenalty builds the default ordinal penalty M[i][j] = |i-j|^exponent,
// divided by its maximum so that entries lie in [0, 1].
func DistancePenalty(classes int, exponent float64) (*PenaltyMatrix, error) {
	if classes <= 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "classes must be positive, got %d", classes)
	}
	if exponent <= 0 || math.IsNaN(exponent) || math.IsInf(exponent, 0) {
		return nil, errors.Wrapf(ErrInvalidParameter, "exponent must be positive and finite, got %v", exponent)
	}
	data := mat.NewDense(classes, classes, nil)
	for i := 0; i < classes; i++ {
		for j := 0; j < classes; j++ {
			data.Set(i, j, math.Pow(math.Abs(float64(i-j)), exponent))
		}
	}
	return (&PenaltyMatrix{data: data}).Normalized(), nil
}

// Classes returns K.
func (p *PenaltyMatrix) Classes() int {
	k, _ := p.data.Dims()
	return k
}

// At returns M[i][j].
func (p *PenaltyMatrix) At(i, j int) float64 {
	return p.data.At(i, j)
}

// Row returns a copy of row i.
func (p *PenaltyMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, p.data)
}

// Dense returns a copy of the matrix.
func (p *PenaltyMatrix) Dense() *mat.Dense {
	return mat.DenseCopyOf(p.data)
}

// Max returns the largest entry.
func (p *PenaltyMatrix) Max() float64 {
	return mat.Max(p.data)
}

// Normalized returns a copy scaled so that the largest entry is 1. An all-zero
// matrix is returned unscaled.
func (p *PenaltyMatrix) Normalized() *PenaltyMatrix {
	out := mat.DenseCopyOf(p.data)
	if m := mat.Max(out); m > 0 {
		out.Scale(1/m, out)
	}
	return &PenaltyMatrix{data: out}
}

func (p *PenaltyMatrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(p.data, mat.Squeeze()))
}

// row exposes row i without copying; callers must not write to it.
func (p *PenaltyMatrix) row(i int) []float64 {
	return p.data.RawRowView(i)
}
