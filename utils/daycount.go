package utils

import (
	"time"
)

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, ACT/ACT ISDA, 30E/360, 30/360
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case "ACT/360":
		days := end.Sub(start).Hours() / 24
		return days / 360.0
	case "ACT/365F":
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	case "ACT/ACT", "ACT/ACT ISDA":
		return actActISDA(start, end)
	case "30E/360", "30/360":
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	}
}

// actActISDA splits the period at calendar year boundaries; each piece accrues
// over the actual length of its own year (366 in leap years).
func actActISDA(start, end time.Time) float64 {
	if !start.Before(end) {
		if start.Equal(end) {
			return 0
		}
		return -actActISDA(end, start)
	}
	if start.Year() == end.Year() {
		return Days(start, end) / daysInYear(start.Year())
	}
	firstYearEnd := time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastYearStart := time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	frac := Days(start, firstYearEnd) / daysInYear(start.Year())
	frac += float64(end.Year() - start.Year() - 1)
	frac += Days(lastYearStart, end) / daysInYear(end.Year())
	return frac
}

func daysInYear(year int) float64 {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}
