// Package config loads binary configuration from the environment and an
// optional .env file.
package config

import (
	"context"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"

	"github.com/fumitoshi0524/costloss/loss"
)

// Config holds the loss hyperparameters and runtime settings.
type Config struct {
	Environment string `env:"ENVIRONMENT, default=prod"`
	LogLevel    string `env:"LOG_LEVEL"`

	Classes       int           `env:"COSTLOSS_CLASSES, default=5"`
	Exponent      float64       `env:"COSTLOSS_EXPONENT, default=2"`
	BaseLoss      loss.BaseLoss `env:"COSTLOSS_BASE_LOSS, default=ce"`
	Lambda        float64       `env:"COSTLOSS_LAMBDA, default=10"`
	Normalization string        `env:"COSTLOSS_NORMALIZATION, default=softmax"`
	Reduction     string        `env:"COSTLOSS_REDUCTION, default=mean"`
	FocalGamma    float64       `env:"COSTLOSS_FOCAL_GAMMA, default=2"`
	FocalAlpha    float64       `env:"COSTLOSS_FOCAL_ALPHA, default=1"`
	Smoothing     float64       `env:"COSTLOSS_SMOOTHING, default=0.1"`
	GaussianSigma float64       `env:"COSTLOSS_GAUSSIAN_SIGMA, default=1"`
}

// Load reads the given .env files (".env" when none are named; missing files
// are skipped) and then the process environment.
func Load(ctx context.Context, files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom fills a Config from lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	return cfg, nil
}

// RegularizedConfig converts the settings into a loss configuration.
func (c *Config) RegularizedConfig() (loss.RegularizedConfig, error) {
	norm, err := loss.ParseNormalization(c.Normalization)
	if err != nil {
		return loss.RegularizedConfig{}, err
	}
	red, err := loss.ParseReduction(c.Reduction)
	if err != nil {
		return loss.RegularizedConfig{}, err
	}
	return loss.RegularizedConfig{
		Classes:       c.Classes,
		Exponent:      c.Exponent,
		BaseLoss:      c.BaseLoss,
		Lambda:        c.Lambda,
		Normalization: norm,
		Reduction:     red,
		FocalGamma:    c.FocalGamma,
		FocalAlpha:    c.FocalAlpha,
		Smoothing:     c.Smoothing,
		GaussianSigma: c.GaussianSigma,
	}, nil
}

// NewLoss builds the configured regularized loss.
func (c *Config) NewLoss() (*loss.Regularized, error) {
	rc, err := c.RegularizedConfig()
	if err != nil {
		return nil, err
	}
	return loss.NewRegularizedWithConfig(rc)
}
