package market

import (
	"strconv"
	"strings"
)

// Frequency enumerates accrual/reset frequencies in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
	FreqMonthly   Frequency = 1
)

// BusinessDayAdjustment roll convention.
type BusinessDayAdjustment string

const (
	ModifiedFollowing BusinessDayAdjustment = "MODIFIED_FOLLOWING"
	Following         BusinessDayAdjustment = "FOLLOWING"
)

// DayCount enum. Values match utils.YearFraction convention ids.
type DayCount string

const (
	Act360     DayCount = "ACT/360"
	Act365F    DayCount = "ACT/365F"
	ActActISDA DayCount = "ACT/ACT ISDA"
	Dc30360    DayCount = "30/360"
)

// Tenor is a period label such as "3M", "18M", or "5Y".
type Tenor string

// Months parses the tenor into whole months. Unparseable or sub-monthly
// tenors return 0.
func (t Tenor) Months() int {
	s := strings.TrimSpace(strings.ToUpper(string(t)))
	if s == "" {
		return 0
	}
	unit := s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0
	}
	switch unit {
	case 'M':
		return n
	case 'Y':
		return 12 * n
	default:
		return 0
	}
}

// TenorYears builds a whole-year tenor label.
func TenorYears(n int) Tenor {
	return Tenor(strconv.Itoa(n) + "Y")
}
