package utils_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/capvol/utils"
)

func d(y, m, day int) time.Time {
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

func TestYearFractionAct360(t *testing.T) {
	t.Parallel()

	got := utils.YearFraction(d(2025, 1, 15), d(2025, 7, 15), "ACT/360")
	want := 181.0 / 360.0
	if math.Abs(got-want) > 1e-15 {
		t.Fatalf("ACT/360: got %v want %v", got, want)
	}
}

func TestYearFractionActActISDASameYear(t *testing.T) {
	t.Parallel()

	// 2024 is a leap year: 90 days over 366.
	got := utils.YearFraction(d(2024, 1, 1), d(2024, 3, 31), "ACT/ACT ISDA")
	want := 90.0 / 366.0
	if math.Abs(got-want) > 1e-15 {
		t.Fatalf("ACT/ACT ISDA same year: got %v want %v", got, want)
	}
}

func TestYearFractionActActISDAAcrossYears(t *testing.T) {
	t.Parallel()

	// 2023-07-01 -> 2025-07-01 spans a leap year boundary:
	// 184/365 (rest of 2023) + 1 (2024) + 181/365 (into 2025).
	got := utils.YearFraction(d(2023, 7, 1), d(2025, 7, 1), "ACT/ACT ISDA")
	want := 184.0/365.0 + 1.0 + 181.0/365.0
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("ACT/ACT ISDA across years: got %v want %v", got, want)
	}
}

func TestYearFractionActActISDAZeroAndReversed(t *testing.T) {
	t.Parallel()

	if got := utils.YearFraction(d(2025, 5, 5), d(2025, 5, 5), "ACT/ACT ISDA"); got != 0 {
		t.Fatalf("zero period: got %v want 0", got)
	}
	fwd := utils.YearFraction(d(2024, 2, 1), d(2024, 8, 1), "ACT/ACT ISDA")
	rev := utils.YearFraction(d(2024, 8, 1), d(2024, 2, 1), "ACT/ACT ISDA")
	if math.Abs(fwd+rev) > 1e-15 {
		t.Fatalf("reversed period should negate: fwd %v rev %v", fwd, rev)
	}
}

func TestYearFraction30E360EndOfMonth(t *testing.T) {
	t.Parallel()

	got := utils.YearFraction(d(2025, 1, 31), d(2025, 7, 31), "30E/360")
	want := 0.5
	if math.Abs(got-want) > 1e-15 {
		t.Fatalf("30E/360: got %v want %v", got, want)
	}
}

func TestAddMonthEndOfMonth(t *testing.T) {
	t.Parallel()

	// EDATE semantics: Jan 31 + 1M = Feb 28 (non-leap).
	got := utils.AddMonth(d(2025, 1, 31), 1)
	if !got.Equal(d(2025, 2, 28)) {
		t.Fatalf("AddMonth(2025-01-31, 1): got %v", got)
	}
	got = utils.AddMonth(d(2024, 1, 31), 1)
	if !got.Equal(d(2024, 2, 29)) {
		t.Fatalf("AddMonth(2024-01-31, 1): got %v", got)
	}
}

func TestAdjacentDatesBrackets(t *testing.T) {
	t.Parallel()

	dates := []time.Time{d(2025, 1, 1), d(2025, 4, 1), d(2025, 7, 1)}
	lo, hi := utils.AdjacentDates(d(2025, 5, 10), dates)
	if !lo.Equal(dates[1]) || !hi.Equal(dates[2]) {
		t.Fatalf("bracket: got (%v, %v)", lo, hi)
	}
	lo, hi = utils.AdjacentDates(d(2024, 12, 1), dates)
	if !lo.Equal(dates[0]) || !hi.Equal(dates[1]) {
		t.Fatalf("below range: got (%v, %v)", lo, hi)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := utils.ParseDate("2025-06-18")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(d(2025, 6, 18)) {
		t.Fatalf("ParseDate: got %v", got)
	}
	if _, err := utils.ParseDate("18/06/2025"); err == nil {
		t.Fatal("ParseDate should reject non-ISO input")
	}
}
