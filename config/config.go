// Package config loads calibration job settings from YAML files and the
// environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/logger"
	"github.com/meenmo/capvol/lsq"
	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/vol"
)

// Config is the full settings tree of a calibration run. Values resolve in
// three layers: DefaultConfig, then the YAML file, then CAPVOL_* environment
// variables.
type Config struct {
	Job      Job           `yaml:"job" envconfig:"JOB"`
	Solver   Solver        `yaml:"solver" envconfig:"SOLVER"`
	Logging  logger.Config `yaml:"logging" envconfig:"LOGGING"`
	Database Database      `yaml:"database" envconfig:"DATABASE"`
}

// Job carries the calibration inputs that do not come from the quote set
// itself. The index and quote convention travel with the market data.
type Job struct {
	// DayCount measures caplet expiry times from the valuation date.
	DayCount string `yaml:"day_count" envconfig:"DAY_COUNT"`
	// LambdaExpiry weights the curvature penalty along the expiry axis.
	LambdaExpiry float64 `yaml:"lambda_expiry" envconfig:"LAMBDA_EXPIRY"`
	// LambdaStrike weights the curvature penalty along the strike axis.
	LambdaStrike float64 `yaml:"lambda_strike" envconfig:"LAMBDA_STRIKE"`
	// Shift moves the calibrated surface into shifted Black when positive.
	Shift float64 `yaml:"shift" envconfig:"SHIFT"`
	// ExpiryInterp is linear or step_upper.
	ExpiryInterp string `yaml:"expiry_interp" envconfig:"EXPIRY_INTERP"`
	// StrikeInterp is linear or step_upper.
	StrikeInterp string `yaml:"strike_interp" envconfig:"STRIKE_INTERP"`
}

// Solver overrides the Levenberg-Marquardt controls. Zero fields keep the
// solver defaults.
type Solver struct {
	MaxIterations  int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS"`
	CostTolerance  float64 `yaml:"cost_tolerance" envconfig:"COST_TOLERANCE"`
	StepTolerance  float64 `yaml:"step_tolerance" envconfig:"STEP_TOLERANCE"`
	InitialDamping float64 `yaml:"initial_damping" envconfig:"INITIAL_DAMPING"`
	DampingFactor  float64 `yaml:"damping_factor" envconfig:"DAMPING_FACTOR"`
	MaxDamping     float64 `yaml:"max_damping" envconfig:"MAX_DAMPING"`
}

// Database points the marketdata store at Postgres.
type Database struct {
	DSN string `yaml:"dsn" envconfig:"DSN"`
}

// DefaultConfig provides working values for every layer above it.
var DefaultConfig = Config{
	Job: Job{
		DayCount:     "ACT/365F",
		LambdaExpiry: 0.01,
		LambdaStrike: 0.01,
		ExpiryInterp: "linear",
		StrikeInterp: "linear",
	},
	Logging: logger.Default,
}

// Load resolves the configuration. A .env file in the working directory is
// read first so DSNs stay out of job files; path may be empty to skip the
// YAML layer.
func Load(path string) (Config, error) {
	godotenv.Load()

	cfg := DefaultConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process("CAPVOL", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// Interp resolves the configured interpolation pair.
func (c Config) Interp() (vol.Interp2D, error) {
	expiry, err := parseInterp(c.Job.ExpiryInterp)
	if err != nil {
		return vol.Interp2D{}, fmt.Errorf("config: expiry_interp: %w", err)
	}
	strike, err := parseInterp(c.Job.StrikeInterp)
	if err != nil {
		return vol.Interp2D{}, fmt.Errorf("config: strike_interp: %w", err)
	}
	return vol.Interp2D{Expiry: expiry, Strike: strike}, nil
}

// Definition assembles the calibration definition for an index resolved from
// the quote set.
func (c Config) Definition(ix market.IborIndex) (capfloor.Definition, error) {
	interp, err := c.Interp()
	if err != nil {
		return capfloor.Definition{}, err
	}
	def := capfloor.Definition{
		Index:        ix,
		DayCount:     c.Job.DayCount,
		LambdaExpiry: c.Job.LambdaExpiry,
		LambdaStrike: c.Job.LambdaStrike,
		Interp:       interp,
		Shift:        c.Job.Shift,
		Solver:       c.Solver.Settings(),
	}
	if err := def.Validate(); err != nil {
		return capfloor.Definition{}, err
	}
	return def, nil
}

// Settings maps the override block onto the solver configuration.
func (s Solver) Settings() lsq.Settings {
	return lsq.Settings{
		MaxIterations:  s.MaxIterations,
		CostTolerance:  s.CostTolerance,
		StepTolerance:  s.StepTolerance,
		InitialDamping: s.InitialDamping,
		DampingFactor:  s.DampingFactor,
		MaxDamping:     s.MaxDamping,
	}
}

func parseInterp(label string) (vol.Interp1D, error) {
	switch label {
	case "linear":
		return vol.InterpLinear, nil
	case "step_upper":
		return vol.InterpStepUpper, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q", label)
	}
}
