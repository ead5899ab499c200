package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/meenmo/capvol/marketdata"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "List the bundled quote sets",
	RunE:  runFixtures,
}

func init() {
	rootCmd.AddCommand(fixturesCmd)
}

func runFixtures(cmd *cobra.Command, args []string) error {
	sets := marketdata.Fixtures()
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-28s %-14s %-12s %-7s %s\n", "name", "index", "quotes", "grid", "valuation")
	for _, name := range names {
		set := sets[name]
		fmt.Fprintf(w, "%-28s %-14s %-12s %dx%-5d %s\n",
			set.Name, set.Index, marketdata.QuoteTypeLabel(set.QuoteType),
			len(set.Expiries), len(set.Strikes), set.Valuation.Format("2006-01-02"))
	}
	return nil
}
