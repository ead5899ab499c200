package calendar

import "time"

// Holiday sets are generated by rule rather than kept as date tables, so any
// calibration date works without refreshing embedded data.

// isUSHoliday covers US federal holidays with Saturday/Sunday observation shifts.
func isUSHoliday(t time.Time) bool {
	y, m, day := t.Year(), t.Month(), t.Day()

	// Fixed-date holidays, observed on the nearest weekday.
	for _, f := range []struct {
		month time.Month
		day   int
	}{
		{time.January, 1},   // New Year's Day
		{time.June, 19},     // Juneteenth (from 2021)
		{time.July, 4},      // Independence Day
		{time.November, 11}, // Veterans Day
		{time.December, 25}, // Christmas Day
	} {
		if f.month == time.June && y < 2021 {
			continue
		}
		obs := observedFixed(y, f.month, f.day)
		if m == obs.Month() && day == obs.Day() {
			return true
		}
	}

	// New Year's Day of the following year, observed on December 31.
	if m == time.December && day == 31 && t.Weekday() == time.Friday {
		return true
	}

	switch {
	case m == time.January && weekdayOccurrence(t) == 3 && t.Weekday() == time.Monday:
		return true // Martin Luther King Jr. Day
	case m == time.February && weekdayOccurrence(t) == 3 && t.Weekday() == time.Monday:
		return true // Washington's Birthday
	case m == time.May && t.Weekday() == time.Monday && day+7 > daysInMonth(y, time.May):
		return true // Memorial Day (last Monday)
	case m == time.September && weekdayOccurrence(t) == 1 && t.Weekday() == time.Monday:
		return true // Labor Day
	case m == time.October && weekdayOccurrence(t) == 2 && t.Weekday() == time.Monday:
		return true // Columbus Day
	case m == time.November && weekdayOccurrence(t) == 4 && t.Weekday() == time.Thursday:
		return true // Thanksgiving
	}
	return false
}

// isTargetHoliday covers the TARGET closing days: New Year, Good Friday,
// Easter Monday, Labour Day, Christmas, and Boxing Day.
func isTargetHoliday(t time.Time) bool {
	y, m, day := t.Year(), t.Month(), t.Day()
	if (m == time.January && day == 1) ||
		(m == time.May && day == 1) ||
		(m == time.December && (day == 25 || day == 26)) {
		return true
	}
	easter := easterSunday(y)
	goodFriday := easter.AddDate(0, 0, -2)
	easterMonday := easter.AddDate(0, 0, 1)
	return (m == goodFriday.Month() && day == goodFriday.Day()) ||
		(m == easterMonday.Month() && day == easterMonday.Day())
}

// observedFixed shifts a fixed-date holiday to Friday/Monday when it falls on
// a weekend.
func observedFixed(year int, month time.Month, day int) time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

// weekdayOccurrence returns which occurrence of its weekday t is within the
// month (1 for the first, 2 for the second, ...).
func weekdayOccurrence(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// easterSunday computes Gregorian Easter via the anonymous computus.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
