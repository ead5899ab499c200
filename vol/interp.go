package vol

import "sort"

// Interp1D selects the interpolation scheme along one surface axis.
type Interp1D int

const (
	// InterpLinear interpolates linearly between the bracketing nodes.
	InterpLinear Interp1D = iota
	// InterpStepUpper is piecewise constant, taking the upper bracketing node.
	InterpStepUpper
)

func (ip Interp1D) String() string {
	switch ip {
	case InterpLinear:
		return "LINEAR"
	case InterpStepUpper:
		return "STEP_UPPER"
	default:
		return "UNKNOWN"
	}
}

func (ip Interp1D) valid() bool {
	return ip == InterpLinear || ip == InterpStepUpper
}

// Interp2D pairs the schemes for the expiry and strike axes.
// Extrapolation beyond either axis is always flat.
type Interp2D struct {
	Expiry Interp1D
	Strike Interp1D
}

// Valid reports whether both axis schemes are known.
func (ip Interp2D) Valid() bool {
	return ip.Expiry.valid() && ip.Strike.valid()
}

// Bilinear is linear on both axes, the usual choice for caplet surfaces.
var Bilinear = Interp2D{Expiry: InterpLinear, Strike: InterpLinear}

// bracket1D locates x on the sorted axis xs. The interpolated value is
// (1-t)*v[lo] + t*v[hi]; outside the axis range both indexes clamp to the
// boundary node with t = 0.
func bracket1D(ip Interp1D, xs []float64, x float64) (lo, hi int, t float64) {
	n := len(xs)
	i := sort.SearchFloat64s(xs, x)
	switch {
	case i == 0:
		return 0, 0, 0
	case i >= n:
		return n - 1, n - 1, 0
	case xs[i] == x:
		return i, i, 0
	}
	if ip == InterpStepUpper {
		return i, i, 0
	}
	lo, hi = i-1, i
	t = (x - xs[lo]) / (xs[hi] - xs[lo])
	return lo, hi, t
}
