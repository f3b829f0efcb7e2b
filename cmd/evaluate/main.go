package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/fumitoshi0524/costloss/internal/config"
	"github.com/fumitoshi0524/costloss/internal/logger"
	"github.com/fumitoshi0524/costloss/loss"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	input := flag.String("input", "-", "JSON batch file, - for stdin")
	baseLoss := flag.String("base-loss", cfg.BaseLoss.String(), "base loss: ce, focal_loss, ls or gls")
	lambda := flag.Float64("lambda", cfg.Lambda, "weight of the cost-sensitive term")
	exponent := flag.Float64("exponent", cfg.Exponent, "distance exponent of the default penalty")
	gradient := flag.Bool("gradient", false, "include the gradient with respect to the logits")
	debug := flag.Bool("debug", false, "sets log level to debug")
	flag.Parse()

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	logger.Init(cfg.Environment, level)

	base, err := loss.ParseBaseLoss(*baseLoss)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid base loss")
	}
	cfg.BaseLoss = base
	cfg.Lambda = *lambda
	cfg.Exponent = *exponent

	if err := run(cfg, *input, *gradient, os.Stdout); err != nil {
		log.Fatal().Stack().Err(err).Msg("Evaluation failed")
	}
}

func run(cfg *config.Config, input string, withGradient bool, out io.Writer) error {
	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	req, err := decodeRequest(r)
	if err != nil {
		return err
	}
	log.Debug().Int("batch", len(req.Labels)).Str("base_loss", cfg.BaseLoss.String()).Float64("lambda", cfg.Lambda).Msg("Evaluating batch")
	rep, err := evaluate(cfg, req, withGradient)
	if err != nil {
		return err
	}
	log.Info().Float64("loss", rep.Loss).Float64("base", rep.Base).Float64("cost_sensitive", rep.CostSensitive).Msg("Evaluated batch")
	return encodeReport(out, rep)
}
