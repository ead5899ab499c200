package pricer

import (
	"fmt"
	"math"

	"github.com/meenmo/capvol/vol"
)

const (
	impliedVolTolerance = 1e-12
	impliedVolMaxIter   = 100
)

// LegValue returns the present value of a unit-notional cap or floor leg
// under the volatility surface: sum of discount * accrual * optionlet premium
// over the caplets.
func LegValue(typ OptionType, caplets []Caplet, s *vol.Surface) (float64, error) {
	pv := 0.0
	for _, c := range caplets {
		sigma := s.Volatility(c.Expiry, c.Strike)
		v, err := Value(typ, s.Convention(), s.Shift(), c.Forward, c.Strike, c.Expiry, sigma)
		if err != nil {
			return 0, err
		}
		pv += c.Discount * c.Accrual * v
	}
	return pv, nil
}

// LegValueWithGradient returns the leg present value together with its dense
// gradient with respect to the surface node values. Each caplet scatters
// discount * accrual * vega through the sparse node weights of its lookup
// point, so the whole row costs one pricing pass.
func LegValueWithGradient(typ OptionType, caplets []Caplet, s *vol.Surface) (float64, []float64, error) {
	pv := 0.0
	grad := make([]float64, s.ParameterCount())
	for _, c := range caplets {
		sigma := s.Volatility(c.Expiry, c.Strike)
		v, err := Value(typ, s.Convention(), s.Shift(), c.Forward, c.Strike, c.Expiry, sigma)
		if err != nil {
			return 0, nil, err
		}
		vega, err := Vega(s.Convention(), s.Shift(), c.Forward, c.Strike, c.Expiry, sigma)
		if err != nil {
			return 0, nil, err
		}
		scale := c.Discount * c.Accrual
		pv += scale * v
		for _, w := range s.Weights(c.Expiry, c.Strike) {
			grad[w.Index] += scale * vega * w.Weight
		}
	}
	return pv, grad, nil
}

// LegVega returns the derivative of the leg present value with respect to a
// parallel move of the volatility across all caplets. Vega is the same for
// caps and floors.
func LegVega(caplets []Caplet, s *vol.Surface) (float64, error) {
	total := 0.0
	for _, c := range caplets {
		sigma := s.Volatility(c.Expiry, c.Strike)
		vega, err := Vega(s.Convention(), s.Shift(), c.Forward, c.Strike, c.Expiry, sigma)
		if err != nil {
			return 0, err
		}
		total += c.Discount * c.Accrual * vega
	}
	return total, nil
}

// ImpliedFlatVol solves for the single volatility that reprices the leg to
// the target present value under the given convention. Newton steps with the
// leg vega, falling back to bisection when a step leaves the bracket.
func ImpliedFlatVol(typ OptionType, caplets []Caplet, conv vol.Convention, shift, target float64) (float64, error) {
	flatValue := func(sigma float64) (float64, error) {
		pv := 0.0
		for _, c := range caplets {
			v, err := Value(typ, conv, shift, c.Forward, c.Strike, c.Expiry, sigma)
			if err != nil {
				return 0, err
			}
			pv += c.Discount * c.Accrual * v
		}
		return pv, nil
	}
	flatVega := func(sigma float64) (float64, error) {
		total := 0.0
		for _, c := range caplets {
			v, err := Vega(conv, shift, c.Forward, c.Strike, c.Expiry, sigma)
			if err != nil {
				return 0, err
			}
			total += c.Discount * c.Accrual * v
		}
		return total, nil
	}

	lo, hi := 1e-10, 1.0
	pvHi, err := flatValue(hi)
	if err != nil {
		return 0, err
	}
	for pvHi < target && hi < 1e6 {
		lo = hi
		hi *= 2
		if pvHi, err = flatValue(hi); err != nil {
			return 0, err
		}
	}
	if pvHi < target {
		return 0, fmt.Errorf("pricer: target value %v above attainable leg value %v", target, pvHi)
	}
	if pvLo, err := flatValue(lo); err != nil {
		return 0, err
	} else if pvLo > target {
		return 0, fmt.Errorf("pricer: target value %v below intrinsic leg value %v", target, pvLo)
	}

	sigma := 0.5 * (lo + hi)
	for iter := 0; iter < impliedVolMaxIter; iter++ {
		pv, err := flatValue(sigma)
		if err != nil {
			return 0, err
		}
		diff := pv - target
		if math.Abs(diff) < impliedVolTolerance*math.Max(1, math.Abs(target)) {
			return sigma, nil
		}
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}
		vega, err := flatVega(sigma)
		if err != nil {
			return 0, err
		}
		if vega > 1e-15 {
			if next := sigma - diff/vega; next > lo && next < hi {
				sigma = next
				continue
			}
		}
		sigma = 0.5 * (lo + hi)
	}
	return 0, fmt.Errorf("pricer: implied volatility did not converge after %d iterations", impliedVolMaxIter)
}
