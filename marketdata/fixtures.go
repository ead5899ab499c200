package marketdata

import (
	"math"
	"time"

	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/market"
)

var nan = math.NaN()

// SampleUSD is a bundled USD cap matrix for development and demos: Black
// volatility quotes on USD-LIBOR-3M with the zero curve of the same date.
// Two cells are absent, as they would be on a real grid.
func SampleUSD() QuoteSet {
	return QuoteSet{
		Name:      "usd-black-2025-06-11",
		Valuation: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		Index:     "USD-LIBOR-3M",
		QuoteType: capfloor.BlackVolatility,
		Expiries:  []market.Tenor{"1Y", "2Y", "3Y", "5Y", "7Y", "10Y"},
		Strikes:   []float64{0.020, 0.025, 0.030, 0.035, 0.040, 0.050},
		Quotes: [][]float64{
			{0.36, 0.38, 0.41, 0.44, 0.48, nan},
			{0.35, 0.36, 0.38, 0.41, 0.44, 0.50},
			{0.34, 0.35, 0.36, 0.38, 0.41, 0.46},
			{0.32, 0.33, 0.34, 0.35, 0.37, 0.41},
			{0.30, 0.31, 0.32, 0.33, 0.34, 0.38},
			{nan, 0.29, 0.30, 0.31, 0.32, 0.35},
		},
		Errors:    uniformErrors(6, 6, 1e-4),
		ZeroRates: sampleUSDZeroRates(),
	}
}

// SampleUSDNormal quotes the same market in Bachelier volatilities.
func SampleUSDNormal() QuoteSet {
	return QuoteSet{
		Name:      "usd-normal-2025-06-11",
		Valuation: time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		Index:     "USD-LIBOR-3M",
		QuoteType: capfloor.NormalVolatility,
		Expiries:  []market.Tenor{"1Y", "2Y", "3Y", "5Y", "7Y", "10Y"},
		Strikes:   []float64{0.020, 0.025, 0.030, 0.035, 0.040, 0.050},
		Quotes: [][]float64{
			{0.0082, 0.0085, 0.0089, 0.0093, 0.0098, 0.0108},
			{0.0080, 0.0082, 0.0085, 0.0089, 0.0093, 0.0102},
			{0.0078, 0.0080, 0.0082, 0.0085, 0.0088, 0.0096},
			{0.0074, 0.0075, 0.0077, 0.0079, 0.0082, 0.0088},
			{0.0070, 0.0071, 0.0073, 0.0074, 0.0076, 0.0081},
			{0.0066, 0.0067, 0.0068, 0.0069, 0.0071, 0.0075},
		},
		Errors:    uniformErrors(6, 6, 1e-4),
		ZeroRates: sampleUSDZeroRates(),
	}
}

func sampleUSDZeroRates() map[string]float64 {
	return map[string]float64{
		"1M":  4.33,
		"3M":  4.32,
		"6M":  4.25,
		"1Y":  4.05,
		"2Y":  3.82,
		"3Y":  3.75,
		"4Y":  3.76,
		"5Y":  3.78,
		"7Y":  3.85,
		"10Y": 3.95,
		"12Y": 4.00,
		"15Y": 4.05,
	}
}

func uniformErrors(rows, cols int, err float64) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := range out[i] {
			out[i][j] = err
		}
	}
	return out
}

// Fixtures lists the bundled quote sets by name.
func Fixtures() map[string]QuoteSet {
	sets := []QuoteSet{SampleUSD(), SampleUSDNormal()}
	out := make(map[string]QuoteSet, len(sets))
	for _, s := range sets {
		out[s.Name] = s
	}
	return out
}

// Fixture looks a bundled quote set up by name.
func Fixture(name string) (QuoteSet, bool) {
	s, ok := Fixtures()[name]
	return s, ok
}
