package capfloor

import (
	"fmt"
	"time"

	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/pricer"
	"github.com/meenmo/capvol/utils"
)

// CapletPeriod is one optionlet of a quoted cap before a strike is attached:
// the schedule dates and the curve quantities shared by every strike column.
type CapletPeriod struct {
	FixingDate time.Time
	StartDate  time.Time
	EndDate    time.Time

	// Expiry is the valuation-to-fixing year fraction on the definition
	// day count, the expiry coordinate of the caplet on the surface.
	Expiry   float64
	Forward  float64
	Accrual  float64
	Discount float64
}

// CapletSchedule resolves the optionlet decomposition of a quoted cap: the
// cap runs from the index spot date to the quoted tenor, one caplet per
// index period, with the first period dropped because its fixing is already
// known when the cap is struck.
func CapletSchedule(def Definition, valuation time.Time, tenor market.Tenor, cs Curves) ([]CapletPeriod, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if err := cs.validate(); err != nil {
		return nil, err
	}
	if tenor.Months() <= 0 {
		return nil, fmt.Errorf("%w: bad cap tenor %q", ErrInvalidInput, tenor)
	}
	effective := def.Index.SpotDate(valuation)
	termination := def.Index.TerminationDate(effective, tenor)
	return capletPeriods(def, valuation, effective, termination, cs)
}

// capletPeriods rolls the accrual schedule from effective to termination and
// resolves each optionlet against the curves. Periods whose fixing is not
// strictly after the valuation date are skipped.
func capletPeriods(def Definition, valuation, effective, termination time.Time, cs Curves) ([]CapletPeriod, error) {
	ix := def.Index
	fwdCurve := cs.forwardCurve()

	dates := []time.Time{effective}
	for k := 1; ; k++ {
		if k > 1200 {
			return nil, fmt.Errorf("%w: runaway schedule for termination %s",
				ErrInvalidInput, termination.Format("2006-01-02"))
		}
		d := ix.RollDate(effective, k)
		if !d.Before(termination) {
			dates = append(dates, termination)
			break
		}
		dates = append(dates, d)
	}

	var periods []CapletPeriod
	for i := 2; i < len(dates); i++ {
		start, end := dates[i-1], dates[i]
		fixing := ix.FixingDate(start)
		if !fixing.After(valuation) {
			continue
		}
		accrual := ix.AccrualFactor(start, end)
		if accrual <= 0 {
			return nil, fmt.Errorf("%w: degenerate accrual period %s to %s",
				ErrInvalidInput, start.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		fwd, err := fwdCurve.Forward(start, end, accrual)
		if err != nil {
			return nil, err
		}
		periods = append(periods, CapletPeriod{
			FixingDate: fixing,
			StartDate:  start,
			EndDate:    end,
			Expiry:     utils.YearFraction(valuation, fixing, def.DayCount),
			Forward:    fwd,
			Accrual:    accrual,
			Discount:   cs.Discount.DF(end),
		})
	}
	return periods, nil
}

// capletsAt attaches a strike to a resolved optionlet schedule.
func capletsAt(periods []CapletPeriod, strike float64) []pricer.Caplet {
	out := make([]pricer.Caplet, len(periods))
	for i, p := range periods {
		out[i] = pricer.Caplet{
			Expiry:   p.Expiry,
			Forward:  p.Forward,
			Strike:   strike,
			Accrual:  p.Accrual,
			Discount: p.Discount,
		}
	}
	return out
}
