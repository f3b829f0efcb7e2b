package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/fumitoshi0524/costloss/internal/config"
	"github.com/fumitoshi0524/costloss/internal/logger"
	"github.com/fumitoshi0524/costloss/loss"
)

// Logits for a 3-grade problem whose true grade is 2: confidently wrong by two
// grades, wrong by one grade, and correct.
var cases = []struct {
	name   string
	logits []float64
}{
	{"worst", []float64{10, 0, 0}},
	{"better", []float64{0, 10, 0}},
	{"perfect", []float64{0, 0, 10}},
}

const label = 2

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.Environment, cfg.LogLevel)

	if err := run(); err != nil {
		log.Fatal().Stack().Err(err).Msg("Demo failed")
	}
}

func run() error {
	if err := showDefaultPenalties(); err != nil {
		return err
	}
	if err := showCustomPenalty(); err != nil {
		return err
	}
	if err := compareWithCrossEntropy(); err != nil {
		return err
	}
	return showRegularized()
}

func showDefaultPenalties() error {
	log.Info().Msg("--- Default distance penalties ---")
	for _, exp := range []float64{1, 2} {
		p, err := loss.DistancePenalty(3, exp)
		if err != nil {
			return err
		}
		log.Info().Float64("exponent", exp).Msgf("penalty matrix\n%s", p)
	}
	return nil
}

func showCustomPenalty() error {
	log.Info().Msg("--- Custom penalty: only grade 2 predicted as grade 0 is penalised ---")
	raw, err := loss.NewPenaltyMatrix([][]float64{{0, 0, 0}, {0, 0, 0}, {10, 0, 0}})
	if err != nil {
		return err
	}
	cs, err := loss.NewCostSensitive(3, loss.DefaultExponent)
	if err != nil {
		return err
	}
	if err := cs.SetPenalty(raw.Normalized()); err != nil {
		return err
	}
	for _, c := range cases {
		v, err := cs.Forward(row(c.logits), []int{label})
		if err != nil {
			return err
		}
		log.Info().Str("case", c.name).Floats64("logits", c.logits).Float64("cost_sensitive", v).Msg("custom penalty")
	}
	return nil
}

func compareWithCrossEntropy() error {
	log.Info().Msg("--- Cross-entropy vs cost-sensitive (linear penalty) ---")
	cs, err := loss.NewCostSensitive(3, 1)
	if err != nil {
		return err
	}
	ce := loss.CrossEntropy{}
	for _, c := range cases[:2] {
		logits := row(c.logits)
		ceVal, err := ce.Forward(logits, []int{label})
		if err != nil {
			return err
		}
		csVal, err := cs.Forward(logits, []int{label})
		if err != nil {
			return err
		}
		log.Info().Str("case", c.name).Float64("cross_entropy", ceVal).Float64("cost_sensitive", csVal).Msg("same CE, different cost")
	}
	return nil
}

func showRegularized() error {
	for _, name := range loss.BaseLossNames() {
		base, err := loss.ParseBaseLoss(name)
		if err != nil {
			return err
		}
		r, err := loss.NewRegularized(3, base, loss.DefaultLambda)
		if err != nil {
			return err
		}
		log.Info().Str("base_loss", name).Float64("lambda", r.Lambda()).Msg("--- Regularized loss ---")
		for _, c := range cases {
			logits := row(c.logits)
			total, err := r.Forward(logits, []int{label})
			if err != nil {
				return err
			}
			baseVal, costVal, err := r.Terms(logits, []int{label})
			if err != nil {
				return err
			}
			log.Info().
				Str("case", c.name).
				Float64("base", baseVal).
				Float64("cost_sensitive", costVal).
				Float64("total", total).
				Msg("regularized")
		}
	}
	return nil
}

func row(v []float64) *mat.Dense {
	return mat.NewDense(1, len(v), v)
}
