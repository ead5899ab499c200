package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/capvol/calendar"
	"github.com/meenmo/capvol/utils"
)

// Curve holds zero-coupon discount factors on a pillar date grid.
// Lookups between pillars are log-linear in discount factor, which keeps
// piecewise-constant instantaneous forwards; beyond the last pillar the last
// forward rate is extended.
type Curve struct {
	settlement      time.Time
	pillarDates     []time.Time
	discountFactors map[time.Time]float64
	zeros           map[time.Time]float64 // percent
	cal             calendar.CalendarID
	curveDayCount   string
}

// defaultCurveDayCount returns the time basis for curve construction.
// The curve time axis uses ACT/365F for interpolation and zero rate
// calculations regardless of currency; leg-specific day counts apply to
// coupon accrual only.
func defaultCurveDayCount() string {
	return "ACT/365F"
}

// NewFromDFs creates a curve from explicitly provided discount factors.
// The settlement pillar is added with DF = 1 when absent.
func NewFromDFs(settlement time.Time, dfs map[time.Time]float64, cal calendar.CalendarID) (*Curve, error) {
	if len(dfs) == 0 {
		return nil, fmt.Errorf("curve: no discount factors provided")
	}
	c := &Curve{
		settlement:      settlement,
		discountFactors: make(map[time.Time]float64, len(dfs)+1),
		cal:             cal,
		curveDayCount:   defaultCurveDayCount(),
	}
	for d, df := range dfs {
		if df <= 0 {
			return nil, fmt.Errorf("curve: non-positive discount factor %v at %v", df, d.Format("2006-01-02"))
		}
		c.discountFactors[d] = df
		c.pillarDates = append(c.pillarDates, d)
	}
	if _, ok := c.discountFactors[settlement]; !ok {
		c.discountFactors[settlement] = 1.0
		c.pillarDates = append(c.pillarDates, settlement)
	}
	utils.SortDates(c.pillarDates)
	c.zeros = c.buildZero()
	return c, nil
}

// NewFromZeroRates creates a curve from continuously compounded zero rates in
// percent, keyed by tenor ("6M", "1Y", "10Y", ...) against the settlement date.
func NewFromZeroRates(settlement time.Time, quotes map[string]float64, cal calendar.CalendarID) (*Curve, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("curve: no zero rate quotes provided")
	}
	dayCount := defaultCurveDayCount()
	dfs := make(map[time.Time]float64, len(quotes))
	for tenor, pct := range quotes {
		years := tenorToYears(tenor)
		if years <= 0 {
			return nil, fmt.Errorf("curve: cannot parse tenor %q", tenor)
		}
		months := int(math.Round(years * 12))
		d := calendar.Adjust(cal, utils.AddMonth(settlement, months))
		yf := utils.YearFraction(settlement, d, dayCount)
		dfs[d] = math.Exp(-pct / 100.0 * yf)
	}
	return NewFromDFs(settlement, dfs, cal)
}

// Flat creates a constant continuously compounded zero curve at the given
// decimal rate. Log-linear interpolation reproduces the flat rate exactly at
// every date, so a sparse annual pillar grid is sufficient.
func Flat(settlement time.Time, rate float64, cal calendar.CalendarID) *Curve {
	const horizonYears = 60
	dayCount := defaultCurveDayCount()
	dfs := make(map[time.Time]float64, horizonYears)
	for y := 1; y <= horizonYears; y++ {
		d := utils.AddMonth(settlement, 12*y)
		yf := utils.YearFraction(settlement, d, dayCount)
		dfs[d] = math.Exp(-rate * yf)
	}
	c, err := NewFromDFs(settlement, dfs, cal)
	if err != nil {
		// Unreachable: the generated factors are strictly positive.
		panic(err)
	}
	return c
}

// DF returns the discount factor at t. Dates on or before settlement discount
// to 1; dates between pillars are log-linearly interpolated; dates beyond the
// last pillar extend the last forward rate.
func (c *Curve) DF(t time.Time) float64 {
	if !t.After(c.settlement) {
		return 1.0
	}
	if df, ok := c.discountFactors[t]; ok {
		return df
	}
	d1, d2 := utils.AdjacentDates(t, c.pillarDates)
	df1 := c.discountFactors[d1]
	df2 := c.discountFactors[d2]

	t1 := utils.YearFraction(c.settlement, d1, c.curveDayCount)
	t2 := utils.YearFraction(c.settlement, d2, c.curveDayCount)
	tTarget := utils.YearFraction(c.settlement, t, c.curveDayCount)

	if t2 == t1 {
		return df1
	}
	forwardRate := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-forwardRate*(tTarget-t1))
}

// Forward returns the simply compounded forward rate for the accrual period
// [start, end] with the given accrual factor.
func (c *Curve) Forward(start, end time.Time, accrual float64) (float64, error) {
	if !start.Before(end) {
		return 0, fmt.Errorf("curve: forward period start %v not before end %v",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if accrual <= 0 {
		return 0, fmt.Errorf("curve: non-positive accrual factor %v", accrual)
	}
	dfStart := c.DF(start)
	dfEnd := c.DF(end)
	return (dfStart/dfEnd - 1.0) / accrual, nil
}

// ZeroRateAt returns the continuously compounded zero rate in percent at t.
func (c *Curve) ZeroRateAt(t time.Time) float64 {
	if z, ok := c.zeros[t]; ok {
		return z
	}
	df := c.DF(t)
	yearFrac := utils.YearFraction(c.settlement, t, c.curveDayCount)
	if yearFrac == 0 {
		return 0
	}
	return utils.RoundTo(-math.Log(df)/yearFrac*100, 12)
}

func (c *Curve) buildZero() map[time.Time]float64 {
	zc := make(map[time.Time]float64, len(c.pillarDates))
	for _, d := range c.pillarDates {
		yearFrac := utils.YearFraction(c.settlement, d, c.curveDayCount)
		if yearFrac == 0 {
			zc[d] = 0
			continue
		}
		zc[d] = utils.RoundTo(-math.Log(c.discountFactors[d])/yearFrac*100, 12)
	}
	return zc
}

// Settlement returns the curve's settlement date.
func (c *Curve) Settlement() time.Time {
	return c.settlement
}

// DayCount returns the curve's day count convention.
func (c *Curve) DayCount() string {
	return c.curveDayCount
}

// PillarDFs returns all discount factors keyed by date.
// For diagnostic purposes only.
func (c *Curve) PillarDFs() map[time.Time]float64 {
	result := make(map[time.Time]float64, len(c.discountFactors))
	for k, v := range c.discountFactors {
		result[k] = v
	}
	return result
}

// PillarDates returns the curve's pillar date grid.
func (c *Curve) PillarDates() []time.Time {
	return append([]time.Time(nil), c.pillarDates...)
}
