package pricer

import "math"

// blackValue returns the undiscounted Black-76 premium of a unit-notional
// option on a forward. Expired options and zero volatility collapse to
// intrinsic value. Callers guarantee f > 0 and k > 0.
func blackValue(call bool, f, k, t, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		if call {
			return math.Max(f-k, 0)
		}
		return math.Max(k-f, 0)
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(f/k) + 0.5*sigma*sigma*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	if call {
		return f*stdNormal.CDF(d1) - k*stdNormal.CDF(d2)
	}
	return k*stdNormal.CDF(-d2) - f*stdNormal.CDF(-d1)
}

// blackVega returns d premium / d sigma, identical for calls and puts.
func blackVega(f, k, t, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		return 0
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(f/k) + 0.5*sigma*sigma*t) / (sigma * sqrtT)
	return f * stdNormal.Prob(d1) * sqrtT
}
