package main

import (
	"context"
	"fmt"
	"os"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/marketdata"
	"github.com/meenmo/capvol/vol"
)

func main() {
	set := marketdata.SampleUSD()

	ix, err := set.IborIndex()
	if err != nil {
		fatal(err)
	}
	raw, err := set.RawData()
	if err != nil {
		fatal(err)
	}
	curves, err := set.Curves(ix.Calendar)
	if err != nil {
		fatal(err)
	}

	def := capfloor.Definition{
		Index:        ix,
		DayCount:     "ACT/365F",
		LambdaExpiry: 0.01,
		LambdaStrike: 0.01,
		Interp:       vol.Bilinear,
	}
	res, err := capfloor.Calibrate(context.Background(), def, set.Valuation, raw, curves)
	if err != nil {
		fatal(err)
	}

	surf := res.Surface
	fmt.Printf("Quote set: %s\n", set.Name)
	fmt.Printf("Calibrated %d caplet nodes (%s)\n", surf.ParameterCount(), surf.Convention())
	fmt.Printf("Chi-square: %.3e after %d iterations\n", res.ChiSquare, res.Iterations)
	fmt.Printf("Caplet vol at 2Y / 3.0%%: %.4f\n", surf.Volatility(2.0, 0.030))
	fmt.Printf("Caplet vol at 5Y / 4.0%%: %.4f\n", surf.Volatility(5.0, 0.040))

	worst := res.Fit[0]
	for _, f := range res.Fit {
		if f.RelError > worst.RelError {
			worst = f
		}
	}
	fmt.Printf("Worst repricing: %s cap at %.3f, rel error %.2e\n",
		worst.Expiry, worst.Strike, worst.RelError)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
