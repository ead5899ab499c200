// Package capfloor calibrates caplet volatility surfaces to quoted cap and
// floor prices or volatilities. Quotes arrive as a rectangular grid of cap
// expiries by strikes; the calibrator strips them into a node-based caplet
// surface by solving a penalized least squares problem over all quotes at
// once.
package capfloor

import (
	"fmt"
	"math"

	"github.com/meenmo/capvol/market"
)

// QuoteType identifies the unit the raw cap grid is quoted in.
type QuoteType int

const (
	// BlackVolatility marks quotes as lognormal flat cap volatilities.
	BlackVolatility QuoteType = iota
	// NormalVolatility marks quotes as Bachelier flat cap volatilities.
	NormalVolatility
	// Price marks quotes as cap present values per unit notional.
	Price
)

func (q QuoteType) String() string {
	switch q {
	case BlackVolatility:
		return "BlackVolatility"
	case NormalVolatility:
		return "NormalVolatility"
	case Price:
		return "Price"
	default:
		return fmt.Sprintf("QuoteType(%d)", int(q))
	}
}

// StrikeType identifies how the strike axis of the raw grid is expressed.
type StrikeType int

const (
	// AbsoluteStrike marks strikes as outright rates.
	AbsoluteStrike StrikeType = iota
	// SimpleMoneyness marks strikes as offsets from the forward. The
	// calibrator does not accept moneyness grids; the tag exists so loaders
	// can label such data and callers get a typed rejection.
	SimpleMoneyness
)

func (s StrikeType) String() string {
	switch s {
	case AbsoluteStrike:
		return "AbsoluteStrike"
	case SimpleMoneyness:
		return "SimpleMoneyness"
	default:
		return fmt.Sprintf("StrikeType(%d)", int(s))
	}
}

// RawData holds a rectangular grid of cap quotes, one row per cap expiry and
// one column per strike. Absent quotes are marked NaN; every present quote
// carries a positive error used to weight its residual. The grid is
// validated once at construction and immutable afterwards.
type RawData struct {
	quoteType  QuoteType
	strikeType StrikeType
	expiries   []market.Tenor
	strikes    []float64
	data       [][]float64
	errors     [][]float64
}

// NewRawData validates and wraps a quote grid. Expiries must be strictly
// increasing tenors, strikes strictly increasing, and data and errs must
// both be len(expiries) rows of len(strikes) entries. A NaN entry in data
// marks an absent quote; its error entry is ignored. Present quotes must be
// finite and non-negative, and every present quote needs a finite positive
// error.
func NewRawData(qt QuoteType, st StrikeType, expiries []market.Tenor, strikes []float64, data, errs [][]float64) (*RawData, error) {
	if len(expiries) == 0 || len(strikes) == 0 {
		return nil, fmt.Errorf("%w: empty expiry or strike axis", ErrInvalidInput)
	}
	prev := 0
	for i, t := range expiries {
		m := t.Months()
		if m <= 0 {
			return nil, fmt.Errorf("%w: bad expiry tenor %q", ErrInvalidInput, t)
		}
		if m <= prev {
			return nil, fmt.Errorf("%w: expiries not strictly increasing at %d", ErrInvalidInput, i)
		}
		prev = m
	}
	for j := range strikes {
		if math.IsNaN(strikes[j]) || math.IsInf(strikes[j], 0) {
			return nil, fmt.Errorf("%w: strike %d is not finite", ErrInvalidInput, j)
		}
		if j > 0 && strikes[j] <= strikes[j-1] {
			return nil, fmt.Errorf("%w: strikes not strictly increasing at %d", ErrInvalidInput, j)
		}
	}
	if len(data) != len(expiries) || len(errs) != len(expiries) {
		return nil, fmt.Errorf("%w: grid has %d data and %d error rows for %d expiries",
			ErrInvalidInput, len(data), len(errs), len(expiries))
	}
	present := 0
	for i := range data {
		if len(data[i]) != len(strikes) || len(errs[i]) != len(strikes) {
			return nil, fmt.Errorf("%w: row %d has %d data and %d error entries for %d strikes",
				ErrInvalidInput, i, len(data[i]), len(errs[i]), len(strikes))
		}
		for j := range data[i] {
			if math.IsNaN(data[i][j]) {
				continue
			}
			if math.IsInf(data[i][j], 0) {
				return nil, fmt.Errorf("%w: quote (%d,%d) is infinite", ErrInvalidInput, i, j)
			}
			if data[i][j] < 0 {
				return nil, fmt.Errorf("%w: quote (%d,%d) is negative", ErrInvalidInput, i, j)
			}
			e := errs[i][j]
			if math.IsNaN(e) || e <= 0 {
				return nil, fmt.Errorf("%w: quote (%s, %g) has error %g",
					ErrNonPositiveError, expiries[i], strikes[j], e)
			}
			present++
		}
	}
	if present == 0 {
		return nil, fmt.Errorf("%w: no usable quotes in grid", ErrInvalidInput)
	}
	r := &RawData{
		quoteType:  qt,
		strikeType: st,
		expiries:   append([]market.Tenor(nil), expiries...),
		strikes:    append([]float64(nil), strikes...),
		data:       copyGrid(data),
		errors:     copyGrid(errs),
	}
	return r, nil
}

// NewRawDataUniformError wraps a quote grid with the same error on every
// present quote.
func NewRawDataUniformError(qt QuoteType, st StrikeType, expiries []market.Tenor, strikes []float64, data [][]float64, err float64) (*RawData, error) {
	errs := make([][]float64, len(data))
	for i := range data {
		errs[i] = make([]float64, len(data[i]))
		for j := range errs[i] {
			errs[i][j] = err
		}
	}
	return NewRawData(qt, st, expiries, strikes, data, errs)
}

func copyGrid(g [][]float64) [][]float64 {
	out := make([][]float64, len(g))
	for i := range g {
		out[i] = append([]float64(nil), g[i]...)
	}
	return out
}

// Type reports the unit of the quotes.
func (r *RawData) Type() QuoteType { return r.quoteType }

// StrikeType reports how the strike axis is expressed.
func (r *RawData) StrikeType() StrikeType { return r.strikeType }

// Expiries returns the cap expiry tenors, shortest first.
func (r *RawData) Expiries() []market.Tenor {
	return append([]market.Tenor(nil), r.expiries...)
}

// Strikes returns the strike axis, lowest first.
func (r *RawData) Strikes() []float64 {
	return append([]float64(nil), r.strikes...)
}

// Dims reports the grid shape as (expiries, strikes).
func (r *RawData) Dims() (int, int) { return len(r.expiries), len(r.strikes) }

// Present reports whether the quote at expiry row i and strike column j
// exists.
func (r *RawData) Present(i, j int) bool { return !math.IsNaN(r.data[i][j]) }

// Quote returns the raw quote at (i, j), NaN when absent.
func (r *RawData) Quote(i, j int) float64 { return r.data[i][j] }

// Error returns the quote error at (i, j). Its value is meaningless when
// the quote is absent.
func (r *RawData) Error(i, j int) float64 { return r.errors[i][j] }
