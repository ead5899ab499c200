// Package commands wires the capcalib command tree.
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meenmo/capvol/config"
	"github.com/meenmo/capvol/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "capcalib",
	Short: "Caplet volatility calibration from cap quote grids",
	Long: `capcalib strips caplet volatility surfaces from quoted cap grids.

Quote sets come from bundled fixtures, xlsx workbooks or Postgres; the
calibrated node grid and its repricing diagnostics print to stdout.

Examples:
  capcalib fixtures
  capcalib calibrate --source fixture --set usd-black-2025-06-11
  capcalib calibrate --source xlsx --file quotes.xlsx --config job.yaml
  capcalib batch usd-black-2025-06-11 usd-normal-2025-06-11
  capcalib surface --set usd-black-2025-06-11 --expiry 2 --strike 0.03`,
	SilenceUsage: true,
}

// Execute runs the command tree. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML job file (defaults apply without one)")
}

// setup resolves configuration and builds the process logger.
func setup() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, log, nil
}
