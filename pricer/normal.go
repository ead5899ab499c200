package pricer

import "math"

// normalValue returns the undiscounted Bachelier premium of a unit-notional
// option on a forward. Expired options and zero volatility collapse to
// intrinsic value.
func normalValue(call bool, f, k, t, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		if call {
			return math.Max(f-k, 0)
		}
		return math.Max(k-f, 0)
	}
	vt := sigma * math.Sqrt(t)
	d := (f - k) / vt
	if call {
		return (f-k)*stdNormal.CDF(d) + vt*stdNormal.Prob(d)
	}
	return (k-f)*stdNormal.CDF(-d) + vt*stdNormal.Prob(d)
}

// normalVega returns d premium / d sigma, identical for calls and puts.
func normalVega(f, k, t, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		return 0
	}
	d := (f - k) / (sigma * math.Sqrt(t))
	return math.Sqrt(t) * stdNormal.Prob(d)
}
