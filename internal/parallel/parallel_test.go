package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForCoversEntireRange(t *testing.T) {
	n := 37
	counts := make([]int32, n)
	For(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&counts[i], 1)
		}
	})
	for i, c := range counts {
		require.Equalf(t, int32(1), c, "index %d processed %d times", i, c)
	}
}

func TestForNoopOnNonPositive(t *testing.T) {
	called := false
	For(0, func(start, end int) {
		called = true
	})
	require.False(t, called)
}

func TestSumMatchesSerialAndRepeats(t *testing.T) {
	n := 1001
	values := make([]float64, n)
	want := 0.0
	for i := range values {
		values[i] = 1.0 / float64(i+1)
	}
	for _, v := range values {
		want += v
	}
	sum := func() float64 {
		return Sum(n, func(start, end int) float64 {
			s := 0.0
			for i := start; i < end; i++ {
				s += values[i]
			}
			return s
		})
	}
	first := sum()
	require.InDelta(t, want, first, 1e-9)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, sum())
	}
}

func TestSumEmpty(t *testing.T) {
	require.Zero(t, Sum(0, func(start, end int) float64 { return 1 }))
}
