package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/config"
	"github.com/meenmo/capvol/marketdata"
	"github.com/meenmo/capvol/vol"
)

var (
	calibrateCmd = &cobra.Command{
		Use:   "calibrate",
		Short: "Strip a caplet surface from one cap quote set",
		RunE:  runCalibrate,
	}

	calSource string
	calSet    string
	calFile   string
	calSave   bool
)

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.Flags().StringVar(&calSource, "source", "fixture", "quote source: fixture, xlsx or pg")
	calibrateCmd.Flags().StringVar(&calSet, "set", "usd-black-2025-06-11", "quote set name (fixture and pg sources)")
	calibrateCmd.Flags().StringVar(&calFile, "file", "", "workbook path (xlsx source)")
	calibrateCmd.Flags().BoolVar(&calSave, "save", false, "write the calibrated surface back to Postgres")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var store *marketdata.Store
	if calSource == "pg" || calSave {
		if cfg.Database.DSN == "" {
			return fmt.Errorf("postgres needs database.dsn in the job file or CAPVOL_DATABASE_DSN")
		}
		if store, err = marketdata.Open(ctx, cfg.Database.DSN); err != nil {
			return err
		}
		defer store.Close()
	}

	set, err := loadSet(ctx, store, calSource, calSet, calFile)
	if err != nil {
		return err
	}
	res, err := calibrateSet(ctx, cfg, log, set)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), set, res)

	if calSave {
		if err := store.SaveSurface(ctx, set.Name, set.Valuation, res.Surface); err != nil {
			return err
		}
		log.Info().Str("quote_set", set.Name).Msg("surface saved")
	}
	return nil
}

// loadSet resolves one quote set from the selected source.
func loadSet(ctx context.Context, store *marketdata.Store, source, name, file string) (marketdata.QuoteSet, error) {
	switch source {
	case "fixture":
		set, ok := marketdata.Fixture(name)
		if !ok {
			return marketdata.QuoteSet{}, fmt.Errorf("unknown fixture %q (run capcalib fixtures)", name)
		}
		return set, nil
	case "xlsx":
		if file == "" {
			return marketdata.QuoteSet{}, fmt.Errorf("xlsx source needs --file")
		}
		return marketdata.LoadXLSX(file)
	case "pg":
		if store == nil {
			return marketdata.QuoteSet{}, fmt.Errorf("postgres store not configured")
		}
		return store.QuoteSet(ctx, name)
	default:
		return marketdata.QuoteSet{}, fmt.Errorf("unknown source %q", source)
	}
}

// calibrateSet runs the full pipeline for one quote set.
func calibrateSet(ctx context.Context, cfg config.Config, log zerolog.Logger, set marketdata.QuoteSet) (*capfloor.Result, error) {
	ix, err := set.IborIndex()
	if err != nil {
		return nil, err
	}
	raw, err := set.RawData()
	if err != nil {
		return nil, err
	}
	cs, err := set.Curves(ix.Calendar)
	if err != nil {
		return nil, err
	}
	def, err := cfg.Definition(ix)
	if err != nil {
		return nil, err
	}
	cal, err := capfloor.NewCalibrator(def, log)
	if err != nil {
		return nil, err
	}
	return cal.Calibrate(ctx, set.Valuation, raw, cs)
}

func printResult(w io.Writer, set marketdata.QuoteSet, res *capfloor.Result) {
	surf := res.Surface
	fmt.Fprintf(w, "quote set   %s\n", set.Name)
	fmt.Fprintf(w, "valuation   %s\n", set.Valuation.Format("2006-01-02"))
	fmt.Fprintf(w, "index       %s\n", set.Index)
	fmt.Fprintf(w, "convention  %s", surf.Convention())
	if surf.Shift() > 0 {
		fmt.Fprintf(w, " (shift %g)", surf.Shift())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "iterations  %d\n", res.Iterations)
	fmt.Fprintf(w, "chi-square  %.6e\n", res.ChiSquare)

	printNodeGrid(w, surf)

	fmt.Fprintf(w, "\nquote repricing\n%8s %10s %14s %14s %12s\n",
		"expiry", "strike", "market", "model", "rel error")
	for _, f := range res.Fit {
		fmt.Fprintf(w, "%8s %10.4f %14.8f %14.8f %12.2e\n",
			f.Expiry, f.Strike, f.Market, f.Model, f.RelError)
	}
}

// printNodeGrid writes the node volatilities as an expiry-by-strike table.
func printNodeGrid(w io.Writer, surf *vol.Surface) {
	strikes := surf.Strikes()
	values := surf.Values()
	fmt.Fprintf(w, "\ncaplet volatility nodes\n%10s", "expiry")
	for _, k := range strikes {
		fmt.Fprintf(w, "%10.4f", k)
	}
	fmt.Fprintln(w)
	for i, expiry := range surf.Expiries() {
		fmt.Fprintf(w, "%10.4f", expiry)
		for j := range strikes {
			fmt.Fprintf(w, "%10.4f", values[i*len(strikes)+j])
		}
		fmt.Fprintln(w)
	}
}
