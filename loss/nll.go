package loss

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/parallel"
)

// NLL computes the mean negative log likelihood given log-probabilities and target indices.
func NLL(logProb *mat.Dense, labels []int) (float64, error) {
	if _, err := checkBatch(logProb, labels, 0); err != nil {
		return 0, errors.Wrap(err, "NLL")
	}
	return ReductionMean.reduce(nllRows(logProb, labels)), nil
}

func nllRows(logProb *mat.Dense, labels []int) []float64 {
	out := make([]float64, len(labels))
	parallel.For(len(labels), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = -logProb.At(i, labels[i])
		}
	})
	return out
}
