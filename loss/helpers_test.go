package loss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func logitsOf(rows ...[]float64) *mat.Dense {
	out := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		out.SetRow(i, r)
	}
	return out
}

// checkGradient compares l.Backward against central finite differences of l.Forward.
func checkGradient(t *testing.T, l Loss, logits *mat.Dense, labels []int) {
	t.Helper()
	grad, err := l.Backward(logits, labels)
	require.NoError(t, err)
	rows, cols := logits.Dims()
	const h = 1e-6
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			orig := logits.At(i, j)
			logits.Set(i, j, orig+h)
			plus, err := l.Forward(logits, labels)
			require.NoError(t, err)
			logits.Set(i, j, orig-h)
			minus, err := l.Forward(logits, labels)
			require.NoError(t, err)
			logits.Set(i, j, orig)
			numeric := (plus - minus) / (2 * h)
			require.InDeltaf(t, numeric, grad.At(i, j), 1e-5, "gradient at (%d,%d)", i, j)
		}
	}
}

var gradLogits = [][]float64{
	{0.3, -1.2, 2.0, 0.1},
	{1.5, 0.2, -0.7, -2.2},
	{-0.4, 0.9, 0.0, 1.1},
}

var gradLabels = []int{2, 0, 3}

func nan() float64 {
	return math.NaN()
}
