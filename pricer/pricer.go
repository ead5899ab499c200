// Package pricer values caplets and floorlets under the Black-76, shifted
// Black, and Bachelier conventions, and aggregates them into cap/floor leg
// values with volatility-node sensitivities.
package pricer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/capvol/vol"
)

// ErrLognormalDomain flags a non-positive forward or strike (after any shift)
// under a lognormal convention.
var ErrLognormalDomain = errors.New("pricer: non-positive rate under lognormal convention")

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// OptionType distinguishes caplets from floorlets.
type OptionType int

const (
	Cap OptionType = iota
	Floor
)

func (o OptionType) String() string {
	if o == Floor {
		return "FLOOR"
	}
	return "CAP"
}

// Caplet is one optionlet period with its rate-dependent quantities already
// resolved against the curves: only the volatility input varies during
// calibration.
type Caplet struct {
	// Expiry is the fixing time in years on the volatility time axis.
	Expiry float64
	// Forward is the simply compounded forward rate of the accrual period.
	Forward float64
	// Strike is the caplet strike in absolute rate terms.
	Strike float64
	// Accrual is the year fraction of the accrual period in the index basis.
	Accrual float64
	// Discount is the discount factor to the payment date.
	Discount float64
}

// Value returns the undiscounted unit-notional optionlet premium for the
// given convention, shift, and volatility.
func Value(typ OptionType, conv vol.Convention, shift, forward, strike, expiry, sigma float64) (float64, error) {
	switch conv {
	case vol.Black, vol.ShiftedBlack:
		f := forward + shift
		k := strike + shift
		if f <= 0 || k <= 0 {
			return 0, fmt.Errorf("%w: forward %v strike %v shift %v", ErrLognormalDomain, forward, strike, shift)
		}
		return blackValue(typ == Cap, f, k, expiry, sigma), nil
	case vol.Normal:
		return normalValue(typ == Cap, forward, strike, expiry, sigma), nil
	default:
		return 0, fmt.Errorf("pricer: unknown convention %v", conv)
	}
}

// Vega returns the derivative of Value with respect to the volatility.
func Vega(conv vol.Convention, shift, forward, strike, expiry, sigma float64) (float64, error) {
	switch conv {
	case vol.Black, vol.ShiftedBlack:
		f := forward + shift
		k := strike + shift
		if f <= 0 || k <= 0 {
			return 0, fmt.Errorf("%w: forward %v strike %v shift %v", ErrLognormalDomain, forward, strike, shift)
		}
		return blackVega(f, k, expiry, sigma), nil
	case vol.Normal:
		return normalVega(forward, strike, expiry, sigma), nil
	default:
		return 0, fmt.Errorf("pricer: unknown convention %v", conv)
	}
}
