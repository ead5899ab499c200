package market

import (
	"time"

	"github.com/meenmo/capvol/calendar"
	"github.com/meenmo/capvol/utils"
)

// IborIndex describes a term fixing benchmark: the rate fixes SpotLagDays
// before the accrual period starts and accrues over one index tenor.
type IborIndex struct {
	Name        string
	Currency    string
	Tenor       Frequency
	DayCount    DayCount
	SpotLagDays int
	Adjustment  BusinessDayAdjustment
	Calendar    calendar.CalendarID
}

// Preset indices.
var (
	USDLibor3M = IborIndex{
		Name:        "USD-LIBOR-3M",
		Currency:    "USD",
		Tenor:       FreqQuarterly,
		DayCount:    Act360,
		SpotLagDays: 2,
		Adjustment:  ModifiedFollowing,
		Calendar:    calendar.USD,
	}

	USDLibor6M = IborIndex{
		Name:        "USD-LIBOR-6M",
		Currency:    "USD",
		Tenor:       FreqSemi,
		DayCount:    Act360,
		SpotLagDays: 2,
		Adjustment:  ModifiedFollowing,
		Calendar:    calendar.USD,
	}

	Euribor3M = IborIndex{
		Name:        "EUR-EURIBOR-3M",
		Currency:    "EUR",
		Tenor:       FreqQuarterly,
		DayCount:    Act360,
		SpotLagDays: 2,
		Adjustment:  ModifiedFollowing,
		Calendar:    calendar.TARGET,
	}

	Euribor6M = IborIndex{
		Name:        "EUR-EURIBOR-6M",
		Currency:    "EUR",
		Tenor:       FreqSemi,
		DayCount:    Act360,
		SpotLagDays: 2,
		Adjustment:  ModifiedFollowing,
		Calendar:    calendar.TARGET,
	}
)

// IndexByName resolves a preset index from its name; ok is false for
// unknown names.
func IndexByName(name string) (IborIndex, bool) {
	for _, ix := range []IborIndex{USDLibor3M, USDLibor6M, Euribor3M, Euribor6M} {
		if ix.Name == name {
			return ix, true
		}
	}
	return IborIndex{}, false
}

// SpotDate returns the effective date for a trade struck on the valuation date.
func (ix IborIndex) SpotDate(valuation time.Time) time.Time {
	return calendar.AddBusinessDays(ix.Calendar, valuation, ix.SpotLagDays)
}

// FixingDate returns the fixing date for an accrual period starting on start.
func (ix IborIndex) FixingDate(accrualStart time.Time) time.Time {
	return calendar.AddBusinessDays(ix.Calendar, accrualStart, -ix.SpotLagDays)
}

// PeriodEnd rolls one index tenor forward from start and adjusts.
func (ix IborIndex) PeriodEnd(start time.Time) time.Time {
	return ix.RollDate(start, 1)
}

// TerminationDate resolves a quoted cap tenor against the effective date.
// Whole-year tenors keep the effective date's month-end roll.
func (ix IborIndex) TerminationDate(effective time.Time, tenor Tenor) time.Time {
	m := tenor.Months()
	if m > 0 && m%12 == 0 {
		return calendar.AddYearsWithRoll(ix.Calendar, effective, m/12)
	}
	return ix.adjust(utils.AddMonth(effective, m))
}

// RollDate returns the k-th schedule date of a periodic leg: k index tenors
// after the effective date, adjusted. Rolling from the unadjusted anchor
// keeps long schedules from drifting through repeated adjustment. An
// effective date on its month's last business day rolls every period to
// month end.
func (ix IborIndex) RollDate(effective time.Time, k int) time.Time {
	t := utils.AddMonth(effective, k*int(ix.Tenor))
	if calendar.IsEndOfMonth(ix.Calendar, effective) {
		return calendar.LastBusinessDayOfMonth(ix.Calendar, t)
	}
	return ix.adjust(t)
}

// AccrualFactor applies the index day count to an accrual period.
func (ix IborIndex) AccrualFactor(start, end time.Time) float64 {
	return utils.YearFraction(start, end, string(ix.DayCount))
}

func (ix IborIndex) adjust(t time.Time) time.Time {
	if ix.Adjustment == Following {
		return calendar.AdjustFollowing(ix.Calendar, t)
	}
	return calendar.Adjust(ix.Calendar, t)
}
