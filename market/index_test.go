package market_test

import (
	"testing"
	"time"

	"github.com/meenmo/capvol/market"
)

func d(y, m, day int) time.Time {
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}

func TestTenorMonths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   market.Tenor
		want int
	}{
		{"3M", 3},
		{"18M", 18},
		{"1Y", 12},
		{"10y", 120},
		{" 5Y ", 60},
		{"", 0},
		{"1W", 0},
		{"Y", 0},
	}
	for _, c := range cases {
		if got := c.in.Months(); got != c.want {
			t.Errorf("Tenor(%q).Months() = %d, want %d", c.in, got, c.want)
		}
	}
	if market.TenorYears(5) != "5Y" {
		t.Errorf("TenorYears(5) = %q", market.TenorYears(5))
	}
}

func TestSpotAndFixingRoundTrip(t *testing.T) {
	t.Parallel()

	// Wednesday valuation: spot is Friday, fixing of a Friday start is Wednesday.
	valuation := d(2025, 6, 11)
	spot := market.USDLibor3M.SpotDate(valuation)
	if !spot.Equal(d(2025, 6, 13)) {
		t.Fatalf("SpotDate: got %v", spot.Format("2006-01-02"))
	}
	fixing := market.USDLibor3M.FixingDate(spot)
	if !fixing.Equal(valuation) {
		t.Fatalf("FixingDate(spot) should return the valuation date, got %v", fixing.Format("2006-01-02"))
	}
}

func TestPeriodEndQuarterRoll(t *testing.T) {
	t.Parallel()

	end := market.USDLibor3M.PeriodEnd(d(2025, 6, 13))
	if !end.Equal(d(2025, 9, 15)) {
		// 2025-09-13 is a Saturday, modified following lands on Monday.
		t.Fatalf("PeriodEnd: got %v", end.Format("2006-01-02"))
	}
}

func TestTerminationDate(t *testing.T) {
	t.Parallel()

	term := market.USDLibor3M.TerminationDate(d(2025, 6, 13), market.TenorYears(5))
	if !term.Equal(d(2030, 6, 13)) {
		t.Fatalf("TerminationDate: got %v", term.Format("2006-01-02"))
	}

	// A cap effective at month end matures at month end.
	term = market.USDLibor3M.TerminationDate(d(2025, 6, 30), market.TenorYears(1))
	if !term.Equal(d(2026, 6, 30)) {
		t.Fatalf("TerminationDate from month end: got %v", term.Format("2006-01-02"))
	}
}

func TestRollDateEndOfMonth(t *testing.T) {
	t.Parallel()

	// 2025-06-30 is June's last business day, so the schedule stays at
	// month end: two quarters out is Wednesday 2025-12-31, not the 30th.
	got := market.USDLibor3M.RollDate(d(2025, 6, 30), 2)
	if !got.Equal(d(2025, 12, 31)) {
		t.Fatalf("RollDate from month end: got %v", got.Format("2006-01-02"))
	}

	// Mid-month anchors keep their roll day, adjusted as usual.
	got = market.USDLibor3M.RollDate(d(2025, 6, 13), 2)
	if !got.Equal(d(2025, 12, 15)) {
		t.Fatalf("RollDate: got %v", got.Format("2006-01-02"))
	}
}

func TestIndexByName(t *testing.T) {
	t.Parallel()

	ix, ok := market.IndexByName("EUR-EURIBOR-6M")
	if !ok || ix.Tenor != market.FreqSemi {
		t.Fatalf("IndexByName: got %+v ok=%v", ix, ok)
	}
	if _, ok := market.IndexByName("USD-SOFR"); ok {
		t.Fatal("IndexByName should miss unknown names")
	}
}
