package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/marketdata"
	"github.com/meenmo/capvol/vol"
)

// curvatureLocal mirrors the second-difference stencil in lsq.SecondDiff.
func curvatureLocal(xs, vs []float64, i int) float64 {
	hl := xs[i] - xs[i-1]
	hr := xs[i+1] - xs[i]
	return 2*vs[i-1]/(hl*(hl+hr)) - 2*vs[i]/(hl*hr) + 2*vs[i+1]/(hr*(hl+hr))
}

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
	cs, err := set.Curves(ix.Calendar)
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
	res, err := capfloor.Calibrate(context.Background(), def, set.Valuation, raw, cs)
	if err != nil {
		fatal(err)
	}

	fmt.Println("=== Vol probe: USD Black caplet surface on 2025-06-11 ===")
	fmt.Printf("Quote set: %s, chi-square %.3e after %d iterations\n\n", set.Name, res.ChiSquare, res.Iterations)

	surf := res.Surface
	expiries, strikes, values := surf.Expiries(), surf.Strikes(), surf.Values()
	nk := len(strikes)

	fmt.Println("[Calibrated caplet nodes: one row per fixing, vols per strike]")
	fmt.Print("ExpiryYears")
	for _, k := range strikes {
		fmt.Printf(",K=%.3f", k)
	}
	fmt.Println()
	for i, t := range expiries {
		fmt.Printf("%.4f", t)
		for j := range strikes {
			fmt.Printf(",%.4f", values[i*nk+j])
		}
		fmt.Println()
	}
	fmt.Println()

	// Large curvature down a strike column means the expiry penalty lost to
	// the data rows somewhere.
	fmt.Println("[Expiry curvature per strike column]")
	fmt.Println("Strike,MaxAbsCurvature")
	for j, k := range strikes {
		col := make([]float64, len(expiries))
		for i := range expiries {
			col[i] = values[i*nk+j]
		}
		maxCurv := 0.0
		for i := 1; i < len(expiries)-1; i++ {
			if c := math.Abs(curvatureLocal(expiries, col, i)); c > maxCurv {
				maxCurv = c
			}
		}
		fmt.Printf("%.3f,%.6f\n", k, maxCurv)
	}
	fmt.Println()

	fmt.Println("[Quote repricing]")
	fmt.Println("Expiry,Strike,Market,Model,RelError")
	for _, f := range res.Fit {
		fmt.Printf("%s,%.3f,%.8f,%.8f,%.2e\n", f.Expiry, f.Strike, f.Market, f.Model, f.RelError)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
