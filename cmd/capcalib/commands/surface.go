package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meenmo/capvol/marketdata"
)

var (
	surfaceCmd = &cobra.Command{
		Use:   "surface",
		Short: "Print a caplet surface saved in Postgres",
		RunE:  runSurface,
	}

	surfSet    string
	surfExpiry float64
	surfStrike float64
)

func init() {
	rootCmd.AddCommand(surfaceCmd)
	surfaceCmd.Flags().StringVar(&surfSet, "set", "usd-black-2025-06-11", "quote set the surface was calibrated from")
	surfaceCmd.Flags().Float64Var(&surfExpiry, "expiry", 0, "query expiry in years (needs --strike)")
	surfaceCmd.Flags().Float64Var(&surfStrike, "strike", 0, "query strike (needs --expiry)")
}

func runSurface(cmd *cobra.Command, args []string) error {
	hasExpiry := cmd.Flags().Changed("expiry")
	hasStrike := cmd.Flags().Changed("strike")
	if hasExpiry != hasStrike {
		return fmt.Errorf("point lookup needs both --expiry and --strike")
	}

	cfg, _, err := setup()
	if err != nil {
		return err
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("postgres needs database.dsn in the job file or CAPVOL_DATABASE_DSN")
	}
	interp, err := cfg.Interp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := marketdata.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	surf, err := store.LoadSurface(ctx, surfSet, interp)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "quote set   %s\n", surfSet)
	fmt.Fprintf(w, "convention  %s", surf.Convention())
	if surf.Shift() > 0 {
		fmt.Fprintf(w, " (shift %g)", surf.Shift())
	}
	fmt.Fprintln(w)
	printNodeGrid(w, surf)

	if hasExpiry {
		fmt.Fprintf(w, "\nvol(%g, %g) = %.6f\n",
			surfExpiry, surfStrike, surf.Volatility(surfExpiry, surfStrike))
	}
	return nil
}
