package commands

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/marketdata"
)

var (
	batchCmd = &cobra.Command{
		Use:   "batch [set ...]",
		Short: "Calibrate several quote sets in one run",
		Long: `batch calibrates every named quote set and prints a one-line summary per
set. Arguments are fixture or Postgres set names, or workbook paths when
--source is xlsx.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatch,
	}

	batchSource string
)

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVar(&batchSource, "source", "fixture", "quote source: fixture, xlsx or pg")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var store *marketdata.Store
	if batchSource == "pg" {
		if cfg.Database.DSN == "" {
			return fmt.Errorf("postgres needs database.dsn in the job file or CAPVOL_DATABASE_DSN")
		}
		if store, err = marketdata.Open(ctx, cfg.Database.DSN); err != nil {
			return err
		}
		defer store.Close()
	}

	type summary struct {
		name       string
		iterations int
		chiSquare  float64
		maxRel     float64
		err        error
	}
	lines := make([]summary, 0, len(args))

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("calibrating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
	)
	for _, name := range args {
		line := summary{name: name}
		set, err := loadSet(ctx, store, batchSource, name, name)
		if err == nil {
			var res *capfloor.Result
			if res, err = calibrateSet(ctx, cfg, log, set); err == nil {
				line.iterations = res.Iterations
				line.chiSquare = res.ChiSquare
				for _, f := range res.Fit {
					if f.RelError > line.maxRel {
						line.maxRel = f.RelError
					}
				}
			}
		}
		line.err = err
		lines = append(lines, line)
		bar.Add(1)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-36s %6s %14s %10s\n", "set", "iters", "chi-square", "max rel")
	failed := 0
	for _, l := range lines {
		if l.err != nil {
			failed++
			fmt.Fprintf(w, "%-36s failed: %v\n", l.name, l.err)
			continue
		}
		fmt.Fprintf(w, "%-36s %6d %14.4e %10.2e\n", l.name, l.iterations, l.chiSquare, l.maxRel)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d quote sets failed", failed, len(args))
	}
	return nil
}
