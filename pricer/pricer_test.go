package pricer_test

import (
	"errors"
	"math"
	"testing"

	"github.com/meenmo/capvol/pricer"
	"github.com/meenmo/capvol/vol"
)

func stdCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func TestBlackPutCallParity(t *testing.T) {
	t.Parallel()

	const f, k, expiry, sigma = 0.035, 0.02, 1.5, 0.45
	call, err := pricer.Value(pricer.Cap, vol.Black, 0, f, k, expiry, sigma)
	if err != nil {
		t.Fatalf("Value(cap): %v", err)
	}
	put, err := pricer.Value(pricer.Floor, vol.Black, 0, f, k, expiry, sigma)
	if err != nil {
		t.Fatalf("Value(floor): %v", err)
	}
	if math.Abs((call-put)-(f-k)) > 1e-15 {
		t.Fatalf("parity: call-put = %v, want %v", call-put, f-k)
	}
}

func TestBlackATMClosedForm(t *testing.T) {
	t.Parallel()

	// ATM: value = f*(2*CDF(sigma*sqrt(t)/2) - 1).
	const f, expiry, sigma = 0.03, 2.0, 0.5
	got, err := pricer.Value(pricer.Cap, vol.Black, 0, f, f, expiry, sigma)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	want := f * (2*stdCDF(sigma*math.Sqrt(expiry)/2) - 1)
	if math.Abs(got-want) > 1e-14 {
		t.Fatalf("ATM Black: got %v want %v", got, want)
	}
}

func TestShiftedBlackMatchesDisplacedInputs(t *testing.T) {
	t.Parallel()

	const f, k, shift, expiry, sigma = 0.005, 0.01, 0.02, 1.0, 0.4
	shifted, err := pricer.Value(pricer.Cap, vol.ShiftedBlack, shift, f, k, expiry, sigma)
	if err != nil {
		t.Fatalf("Value(shifted): %v", err)
	}
	displaced, err := pricer.Value(pricer.Cap, vol.Black, 0, f+shift, k+shift, expiry, sigma)
	if err != nil {
		t.Fatalf("Value(displaced): %v", err)
	}
	if math.Abs(shifted-displaced) > 1e-16 {
		t.Fatalf("shifted Black should equal Black on displaced inputs: %v vs %v", shifted, displaced)
	}
}

func TestNormalATMClosedForm(t *testing.T) {
	t.Parallel()

	// ATM Bachelier: value = sigma*sqrt(t)/sqrt(2*pi).
	const f, expiry, sigma = 0.02, 4.0, 0.0075
	got, err := pricer.Value(pricer.Cap, vol.Normal, 0, f, f, expiry, sigma)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	want := sigma * math.Sqrt(expiry) / math.Sqrt(2*math.Pi)
	if math.Abs(got-want) > 1e-15 {
		t.Fatalf("ATM Bachelier: got %v want %v", got, want)
	}
}

func TestNormalPutCallParity(t *testing.T) {
	t.Parallel()

	const f, k, expiry, sigma = 0.01, 0.03, 3.0, 0.006
	call, err := pricer.Value(pricer.Cap, vol.Normal, 0, f, k, expiry, sigma)
	if err != nil {
		t.Fatalf("Value(cap): %v", err)
	}
	put, err := pricer.Value(pricer.Floor, vol.Normal, 0, f, k, expiry, sigma)
	if err != nil {
		t.Fatalf("Value(floor): %v", err)
	}
	if math.Abs((call-put)-(f-k)) > 1e-16 {
		t.Fatalf("parity: call-put = %v, want %v", call-put, f-k)
	}
}

func TestNormalAllowsNegativeRates(t *testing.T) {
	t.Parallel()

	got, err := pricer.Value(pricer.Cap, vol.Normal, 0, -0.002, -0.001, 1.0, 0.005)
	if err != nil {
		t.Fatalf("Bachelier should price negative rates: %v", err)
	}
	if got <= 0 {
		t.Fatalf("OTM Bachelier premium should be positive, got %v", got)
	}
}

func TestIntrinsicLimits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		conv           vol.Convention
		expiry, sigma  float64
		f, k, expected float64
	}{
		{vol.Black, 0, 0.4, 0.05, 0.03, 0.02},
		{vol.Black, 2, 0, 0.05, 0.03, 0.02},
		{vol.Black, 2, 0, 0.02, 0.03, 0},
		{vol.Normal, 0, 0.005, 0.05, 0.03, 0.02},
		{vol.Normal, 2, 0, 0.01, 0.03, 0},
	}
	for _, c := range cases {
		got, err := pricer.Value(pricer.Cap, c.conv, 0, c.f, c.k, c.expiry, c.sigma)
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if math.Abs(got-c.expected) > 1e-16 {
			t.Errorf("intrinsic %v t=%v sigma=%v: got %v want %v", c.conv, c.expiry, c.sigma, got, c.expected)
		}
	}
}

func TestLognormalDomainError(t *testing.T) {
	t.Parallel()

	_, err := pricer.Value(pricer.Cap, vol.Black, 0, 0.03, -0.01, 1, 0.4)
	if !errors.Is(err, pricer.ErrLognormalDomain) {
		t.Fatalf("negative strike under Black should fail with ErrLognormalDomain, got %v", err)
	}
	_, err = pricer.Value(pricer.Cap, vol.ShiftedBlack, 0.02, -0.05, 0.01, 1, 0.4)
	if !errors.Is(err, pricer.ErrLognormalDomain) {
		t.Fatalf("shifted forward below zero should fail with ErrLognormalDomain, got %v", err)
	}
	if _, err := pricer.Value(pricer.Cap, vol.ShiftedBlack, 0.02, -0.01, 0.01, 1, 0.4); err != nil {
		t.Fatalf("shifted forward above zero should price: %v", err)
	}
}

func TestVegaMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	const eps = 1e-6
	cases := []struct {
		conv  vol.Convention
		shift float64
		sigma float64
	}{
		{vol.Black, 0, 0.35},
		{vol.ShiftedBlack, 0.02, 0.5},
		{vol.Normal, 0, 0.008},
	}
	for _, c := range cases {
		const f, k, expiry = 0.025, 0.03, 1.75
		up, err := pricer.Value(pricer.Cap, c.conv, c.shift, f, k, expiry, c.sigma+eps)
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		dn, err := pricer.Value(pricer.Cap, c.conv, c.shift, f, k, expiry, c.sigma-eps)
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		want := (up - dn) / (2 * eps)
		got, err := pricer.Vega(c.conv, c.shift, f, k, expiry, c.sigma)
		if err != nil {
			t.Fatalf("Vega: %v", err)
		}
		if math.Abs(got-want) > 1e-7 {
			t.Errorf("%v vega: got %v, finite difference %v", c.conv, got, want)
		}
	}
}

func testCaplets() []pricer.Caplet {
	return []pricer.Caplet{
		{Expiry: 0.5, Forward: 0.028, Strike: 0.03, Accrual: 0.25, Discount: 0.995},
		{Expiry: 0.75, Forward: 0.030, Strike: 0.03, Accrual: 0.25, Discount: 0.991},
		{Expiry: 1.0, Forward: 0.031, Strike: 0.03, Accrual: 0.26, Discount: 0.987},
		{Expiry: 1.25, Forward: 0.033, Strike: 0.03, Accrual: 0.25, Discount: 0.982},
	}
}

func testLegSurface(t *testing.T) *vol.Surface {
	t.Helper()
	s, err := vol.NewSurface(vol.Black, 0,
		[]float64{0.5, 1.0},
		[]float64{0.02, 0.04},
		[]float64{0.52, 0.48, 0.49, 0.45},
		vol.Bilinear)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	return s
}

func TestLegValueSumsCaplets(t *testing.T) {
	t.Parallel()

	s := testLegSurface(t)
	caplets := testCaplets()
	got, err := pricer.LegValue(pricer.Cap, caplets, s)
	if err != nil {
		t.Fatalf("LegValue: %v", err)
	}
	want := 0.0
	for _, c := range caplets {
		v, err := pricer.Value(pricer.Cap, s.Convention(), s.Shift(), c.Forward, c.Strike, c.Expiry,
			s.Volatility(c.Expiry, c.Strike))
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		want += c.Discount * c.Accrual * v
	}
	if math.Abs(got-want) > 1e-16 {
		t.Fatalf("LegValue: got %v want %v", got, want)
	}
	if got <= 0 {
		t.Fatalf("leg value should be positive, got %v", got)
	}
}

func TestLegGradientMatchesFiniteDifference(t *testing.T) {
	t.Parallel()

	s := testLegSurface(t)
	caplets := testCaplets()
	pv, grad, err := pricer.LegValueWithGradient(pricer.Cap, caplets, s)
	if err != nil {
		t.Fatalf("LegValueWithGradient: %v", err)
	}
	base, err := pricer.LegValue(pricer.Cap, caplets, s)
	if err != nil {
		t.Fatalf("LegValue: %v", err)
	}
	if math.Abs(pv-base) > 1e-16 {
		t.Fatalf("gradient pass PV %v differs from plain PV %v", pv, base)
	}

	const eps = 1e-7
	for i := 0; i < s.ParameterCount(); i++ {
		bump := s.Values()
		bump[i] += eps
		su, err := s.WithValues(bump)
		if err != nil {
			t.Fatalf("WithValues: %v", err)
		}
		up, err := pricer.LegValue(pricer.Cap, caplets, su)
		if err != nil {
			t.Fatalf("LegValue: %v", err)
		}
		bump[i] -= 2 * eps
		sd, err := s.WithValues(bump)
		if err != nil {
			t.Fatalf("WithValues: %v", err)
		}
		dn, err := pricer.LegValue(pricer.Cap, caplets, sd)
		if err != nil {
			t.Fatalf("LegValue: %v", err)
		}
		want := (up - dn) / (2 * eps)
		if math.Abs(grad[i]-want) > 1e-6 {
			t.Errorf("node %d gradient: got %v, finite difference %v", i, grad[i], want)
		}
	}
}

func TestImpliedFlatVolRoundTrip(t *testing.T) {
	t.Parallel()

	caplets := testCaplets()
	for _, c := range []struct {
		conv  vol.Convention
		shift float64
		sigma float64
	}{
		{vol.Black, 0, 0.42},
		{vol.ShiftedBlack, 0.02, 0.3},
		{vol.Normal, 0, 0.0065},
	} {
		flat := vol.Constant(c.conv, c.shift, c.sigma)
		target, err := pricer.LegValue(pricer.Cap, caplets, flat)
		if err != nil {
			t.Fatalf("LegValue: %v", err)
		}
		got, err := pricer.ImpliedFlatVol(pricer.Cap, caplets, c.conv, c.shift, target)
		if err != nil {
			t.Fatalf("ImpliedFlatVol(%v): %v", c.conv, err)
		}
		if math.Abs(got-c.sigma) > 1e-9 {
			t.Errorf("%v round trip: got %v want %v", c.conv, got, c.sigma)
		}
	}
}

func TestImpliedFlatVolRejectsBadTargets(t *testing.T) {
	t.Parallel()

	caplets := testCaplets()
	if _, err := pricer.ImpliedFlatVol(pricer.Cap, caplets, vol.Black, 0, -0.01); err == nil {
		t.Fatal("negative target should fail")
	}
	if _, err := pricer.ImpliedFlatVol(pricer.Cap, caplets, vol.Normal, 0, 1e9); err == nil {
		t.Fatal("unattainable target should fail")
	}
}
