package vol

import "fmt"

// Convention identifies how a volatility number is to be read.
type Convention int

const (
	// Black is a lognormal volatility on the forward rate.
	Black Convention = iota
	// ShiftedBlack is a lognormal volatility on the forward rate plus a
	// positive displacement.
	ShiftedBlack
	// Normal is a Bachelier volatility in absolute rate units.
	Normal
)

func (c Convention) String() string {
	switch c {
	case Black:
		return "BLACK"
	case ShiftedBlack:
		return "SHIFTED_BLACK"
	case Normal:
		return "NORMAL"
	default:
		return "UNKNOWN"
	}
}

// ParseConvention is the inverse of String.
func ParseConvention(label string) (Convention, error) {
	switch label {
	case "BLACK":
		return Black, nil
	case "SHIFTED_BLACK":
		return ShiftedBlack, nil
	case "NORMAL":
		return Normal, nil
	default:
		return 0, fmt.Errorf("vol: unknown convention %q", label)
	}
}

// Lognormal reports whether the convention reads volatilities as lognormal.
func (c Convention) Lognormal() bool {
	return c == Black || c == ShiftedBlack
}
