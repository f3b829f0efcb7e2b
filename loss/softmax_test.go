package loss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestLogSoftmaxMatchesManual(t *testing.T) {
	logits := logitsOf([]float64{1, 0, -1})
	out, err := LogSoftmax(logits)
	require.NoError(t, err)
	sumExp := math.Exp(0) + math.Exp(-1) + math.Exp(-2)
	logSum := 1 + math.Log(sumExp)
	assert.InDeltaSlice(t, []float64{1 - logSum, -logSum, -1 - logSum}, out.RawRowView(0), 1e-12)
}

func TestSoftmaxStableForLargeLogits(t *testing.T) {
	logits := logitsOf([]float64{1000, 1000, 999}, []float64{-1000, -1000, -1000})
	out, err := Softmax(logits)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		row := out.RawRowView(i)
		for _, v := range row {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
		assert.InDelta(t, 1.0, floats.Sum(row), 1e-12)
	}
	assert.InDelta(t, 1.0/3, out.At(1, 0), 1e-12)
}

func TestSoftmaxRejectsEmpty(t *testing.T) {
	_, err := Softmax(nil)
	require.ErrorIs(t, err, ErrShape)
	_, err = Sigmoid(nil)
	require.ErrorIs(t, err, ErrShape)
}

func TestSigmoidBothTails(t *testing.T) {
	out, err := Sigmoid(logitsOf([]float64{-800, 0, 800}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, out.RawRowView(0), 1e-12)
}

func TestNLL(t *testing.T) {
	logProb := logitsOf([]float64{math.Log(0.5), math.Log(0.5)}, []float64{math.Log(0.25), math.Log(0.75)})
	got, err := NLL(logProb, []int{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, (math.Log(2)-math.Log(0.75))/2, got, 1e-12)

	_, err = NLL(logProb, []int{0})
	require.ErrorIs(t, err, ErrBatchMismatch)
}
