// Package marketdata loads cap quote grids and zero curves from embedded
// fixtures, xlsx workbooks, and Postgres, and hands them to the calibrator
// in its native types.
package marketdata

import (
	"fmt"
	"time"

	"github.com/meenmo/capvol/calendar"
	"github.com/meenmo/capvol/capfloor"
	"github.com/meenmo/capvol/curve"
	"github.com/meenmo/capvol/market"
)

// QuoteSet carries everything a calibration job loads from storage: the cap
// grid, its quoting conventions, and the zero rates of the valuation date.
type QuoteSet struct {
	Name      string
	Valuation time.Time
	Index     string
	QuoteType capfloor.QuoteType
	Expiries  []market.Tenor
	Strikes   []float64
	Quotes    [][]float64
	Errors    [][]float64
	ZeroRates map[string]float64 // tenor -> continuously compounded percent
}

// RawData validates the grid into the calibrator's quote container.
func (s QuoteSet) RawData() (*capfloor.RawData, error) {
	return capfloor.NewRawData(s.QuoteType, capfloor.AbsoluteStrike,
		s.Expiries, s.Strikes, s.Quotes, s.Errors)
}

// Curves bootstraps the discount curve from the zero rates against the set's
// valuation date.
func (s QuoteSet) Curves(cal calendar.CalendarID) (capfloor.Curves, error) {
	if len(s.ZeroRates) == 0 {
		return capfloor.Curves{}, fmt.Errorf("marketdata: quote set %q has no zero rates", s.Name)
	}
	c, err := curve.NewFromZeroRates(s.Valuation, s.ZeroRates, cal)
	if err != nil {
		return capfloor.Curves{}, fmt.Errorf("marketdata: quote set %q: %w", s.Name, err)
	}
	return capfloor.Curves{Discount: c}, nil
}

// IborIndex resolves the set's index name against the preset indices.
func (s QuoteSet) IborIndex() (market.IborIndex, error) {
	ix, ok := market.IndexByName(s.Index)
	if !ok {
		return market.IborIndex{}, fmt.Errorf("marketdata: unknown index %q in quote set %q", s.Index, s.Name)
	}
	return ix, nil
}

// ParseQuoteType maps storage labels onto quote types. Accepted labels are
// black_vol, normal_vol and price.
func ParseQuoteType(label string) (capfloor.QuoteType, error) {
	switch label {
	case "black_vol":
		return capfloor.BlackVolatility, nil
	case "normal_vol":
		return capfloor.NormalVolatility, nil
	case "price":
		return capfloor.Price, nil
	default:
		return 0, fmt.Errorf("marketdata: unknown quote type %q", label)
	}
}

// QuoteTypeLabel is the inverse of ParseQuoteType.
func QuoteTypeLabel(qt capfloor.QuoteType) string {
	switch qt {
	case capfloor.NormalVolatility:
		return "normal_vol"
	case capfloor.Price:
		return "price"
	default:
		return "black_vol"
	}
}
