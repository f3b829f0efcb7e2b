package loss

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCostSensitiveCustomPenalty(t *testing.T) {
	raw, err := NewPenaltyMatrix([][]float64{{0, 0, 0}, {0, 0, 0}, {10, 0, 0}})
	require.NoError(t, err)
	cs, err := NewCostSensitiveWithConfig(CostSensitiveConfig{Penalty: raw.Normalized()})
	require.NoError(t, err)

	worst, err := cs.Forward(logitsOf([]float64{10, 0, 0}), []int{2})
	require.NoError(t, err)
	assert.InDelta(t, 0.9999, worst, 1e-4)

	for _, logits := range [][]float64{{0, 10, 0}, {0, 0, 10}} {
		got, err := cs.Forward(logitsOf(logits), []int{2})
		require.NoError(t, err)
		assert.InDelta(t, 4.54e-05, got, 1e-7)
	}
}

func TestCostSensitivePenalizesDistantMistakesMore(t *testing.T) {
	far := logitsOf([]float64{10, 0, 0})
	near := logitsOf([]float64{0, 10, 0})
	labels := []int{2}

	ce := CrossEntropy{}
	ceFar, err := ce.Forward(far, labels)
	require.NoError(t, err)
	ceNear, err := ce.Forward(near, labels)
	require.NoError(t, err)
	assert.InDelta(t, 10.0001, ceFar, 1e-4)
	assert.InDelta(t, ceFar, ceNear, 1e-12)

	cs, err := NewCostSensitive(3, 1)
	require.NoError(t, err)
	csFar, err := cs.Forward(far, labels)
	require.NoError(t, err)
	csNear, err := cs.Forward(near, labels)
	require.NoError(t, err)
	assert.InDelta(t, 0.9999, csFar, 1e-4)
	assert.InDelta(t, 0.5000, csNear, 1e-4)
}

func TestCostSensitiveZeroForPerfectPrediction(t *testing.T) {
	cs, err := NewCostSensitive(5, 2)
	require.NoError(t, err)
	for label := 0; label < 5; label++ {
		probs := mat.NewDense(1, 5, nil)
		probs.Set(0, label, 1)
		got, err := cs.ExpectedCost(probs, []int{label})
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)
	}
}

func TestCostSensitiveDefaultExponent(t *testing.T) {
	cs, err := NewCostSensitive(3, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cs.Penalty().At(0, 1), 1e-12)
}

func TestCostSensitiveIdempotentAndShiftInvariant(t *testing.T) {
	cs, err := NewCostSensitive(4, 2)
	require.NoError(t, err)
	logits := logitsOf(gradLogits...)
	first, err := cs.Forward(logits, gradLabels)
	require.NoError(t, err)
	second, err := cs.Forward(logits, gradLabels)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	shifted := mat.DenseCopyOf(logits)
	for i, c := range []float64{5, -3, 100} {
		row := shifted.RawRowView(i)
		for j := range row {
			row[j] += c
		}
	}
	got, err := cs.Forward(shifted, gradLabels)
	require.NoError(t, err)
	assert.InDelta(t, first, got, 1e-12)
}

func TestCostSensitiveReductionSum(t *testing.T) {
	mean, err := NewCostSensitive(4, 2)
	require.NoError(t, err)
	sum, err := NewCostSensitiveWithConfig(CostSensitiveConfig{Classes: 4, Reduction: ReductionSum})
	require.NoError(t, err)
	logits := logitsOf(gradLogits...)
	m, err := mean.Forward(logits, gradLabels)
	require.NoError(t, err)
	s, err := sum.Forward(logits, gradLabels)
	require.NoError(t, err)
	assert.InDelta(t, 3*m, s, 1e-12)

	per, err := sum.PerExample(logits, gradLabels)
	require.NoError(t, err)
	require.Len(t, per, 3)
	assert.InDelta(t, s, per[0]+per[1]+per[2], 1e-12)
}

func TestCostSensitiveGradient(t *testing.T) {
	for _, cfg := range []CostSensitiveConfig{
		{Classes: 4},
		{Classes: 4, Exponent: 1, Reduction: ReductionSum},
		{Classes: 4, Normalization: NormalizationSigmoid},
	} {
		cs, err := NewCostSensitiveWithConfig(cfg)
		require.NoError(t, err)
		checkGradient(t, cs, logitsOf(gradLogits...), gradLabels)
	}
}

func TestCostSensitiveErrors(t *testing.T) {
	cs, err := NewCostSensitive(3, 2)
	require.NoError(t, err)

	_, err = cs.Forward(logitsOf([]float64{1, 2, 3}, []float64{0, 0, 0}), []int{1})
	require.ErrorIs(t, err, ErrBatchMismatch)

	_, err = cs.Forward(logitsOf([]float64{1, 2, 3}), []int{3})
	require.ErrorIs(t, err, ErrLabelOutOfRange)

	_, err = cs.Forward(logitsOf([]float64{1, 2, 3}), []int{-1})
	require.ErrorIs(t, err, ErrLabelOutOfRange)

	_, err = cs.Forward(logitsOf([]float64{1, 2}), []int{0})
	require.ErrorIs(t, err, ErrClassMismatch)

	_, err = cs.Forward(nil, nil)
	require.ErrorIs(t, err, ErrShape)

	_, err = cs.Backward(logitsOf([]float64{1, nan(), 3}), []int{0})
	require.ErrorIs(t, err, ErrNaNInf)
	assert.Contains(t, err.Error(), "row 0 column 1")
}

func TestCostSensitiveConfigErrors(t *testing.T) {
	_, err := NewCostSensitive(0, 2)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewCostSensitive(3, -2)
	require.ErrorIs(t, err, ErrInvalidParameter)

	p, err := DistancePenalty(4, 2)
	require.NoError(t, err)
	_, err = NewCostSensitiveWithConfig(CostSensitiveConfig{Classes: 3, Penalty: p})
	require.ErrorIs(t, err, ErrClassMismatch)

	_, err = NewCostSensitiveWithConfig(CostSensitiveConfig{Classes: 3, Normalization: Normalization(7)})
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = NewCostSensitiveWithConfig(CostSensitiveConfig{Classes: 3, Reduction: Reduction(7)})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCostSensitiveSetPenalty(t *testing.T) {
	cs, err := NewCostSensitive(3, 2)
	require.NoError(t, err)
	logits := logitsOf([]float64{10, 0, 0})
	before, err := cs.Forward(logits, []int{2})
	require.NoError(t, err)

	zero, err := NewPenaltyMatrix([][]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}})
	require.NoError(t, err)
	require.NoError(t, cs.SetPenalty(zero))
	after, err := cs.Forward(logits, []int{2})
	require.NoError(t, err)
	assert.Zero(t, after)
	assert.NotEqual(t, before, after)

	wrong, err := DistancePenalty(4, 2)
	require.NoError(t, err)
	require.ErrorIs(t, cs.SetPenalty(wrong), ErrClassMismatch)
	require.ErrorIs(t, cs.SetPenalty(nil), ErrEmpty)
	assert.Same(t, zero, cs.Penalty())
}

func TestCostSensitiveConcurrentSetPenalty(t *testing.T) {
	cs, err := NewCostSensitive(4, 2)
	require.NoError(t, err)
	linear, err := DistancePenalty(4, 1)
	require.NoError(t, err)
	squared := cs.Penalty()
	logits := logitsOf(gradLogits...)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if w == 0 {
					p := linear
					if i%2 == 0 {
						p = squared
					}
					assert.NoError(t, cs.SetPenalty(p))
					continue
				}
				_, err := cs.Forward(logits, gradLabels)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()
}

func TestExpectedCostRejectsNonProbabilities(t *testing.T) {
	cs, err := NewCostSensitive(2, 2)
	require.NoError(t, err)
	_, err = cs.ExpectedCost(logitsOf([]float64{1.5, -0.5}), []int{0})
	require.ErrorIs(t, err, ErrInvalidParameter)
}
