package vol

import (
	"fmt"
	"math"
)

// Surface is a volatility surface parameterised by values on a rectangular
// expiry-by-strike node grid. Node values are stored row-major with the
// expiry index outermost. The surface is immutable once built and safe for
// concurrent lookups.
type Surface struct {
	convention Convention
	shift      float64
	expiries   []float64
	strikes    []float64
	values     []float64
	interp     Interp2D
}

// NodeWeight is one sparse entry of the linearisation of a surface lookup
// with respect to the node values.
type NodeWeight struct {
	Index  int
	Weight float64
}

// NewSurface builds a node surface. Axes must be strictly increasing and
// values must hold len(expiries)*len(strikes) finite entries.
func NewSurface(conv Convention, shift float64, expiries, strikes, values []float64, interp Interp2D) (*Surface, error) {
	if len(expiries) == 0 || len(strikes) == 0 {
		return nil, fmt.Errorf("vol: surface needs at least one expiry and one strike node")
	}
	if len(values) != len(expiries)*len(strikes) {
		return nil, fmt.Errorf("vol: %d node values for a %dx%d grid",
			len(values), len(expiries), len(strikes))
	}
	if err := checkAxis("expiry", expiries); err != nil {
		return nil, err
	}
	if err := checkAxis("strike", strikes); err != nil {
		return nil, err
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("vol: node value %d is not finite", i)
		}
	}
	if !interp.Valid() {
		return nil, fmt.Errorf("vol: unknown interpolation scheme")
	}
	if shift < 0 {
		return nil, fmt.Errorf("vol: negative shift %v", shift)
	}
	if shift > 0 && conv != ShiftedBlack {
		return nil, fmt.Errorf("vol: shift %v requires the shifted Black convention", shift)
	}
	s := &Surface{
		convention: conv,
		shift:      shift,
		expiries:   append([]float64(nil), expiries...),
		strikes:    append([]float64(nil), strikes...),
		values:     append([]float64(nil), values...),
		interp:     interp,
	}
	return s, nil
}

func checkAxis(name string, xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("vol: %s axis value %d is not finite", name, i)
		}
		if i > 0 && xs[i-1] >= x {
			return fmt.Errorf("vol: %s axis is not strictly increasing at %d", name, i)
		}
	}
	return nil
}

// Constant builds a single-node surface returning value everywhere, useful
// for flat-volatility pricing.
func Constant(conv Convention, shift, value float64) *Surface {
	s, err := NewSurface(conv, shift, []float64{1}, []float64{1}, []float64{value}, Bilinear)
	if err != nil {
		panic(err)
	}
	return s
}

// Convention returns the convention the node values are quoted in.
func (s *Surface) Convention() Convention {
	return s.convention
}

// Shift returns the lognormal displacement, zero unless the convention is
// shifted Black.
func (s *Surface) Shift() float64 {
	return s.shift
}

// Expiries returns the expiry node axis.
func (s *Surface) Expiries() []float64 {
	return s.expiries
}

// Strikes returns the strike node axis.
func (s *Surface) Strikes() []float64 {
	return s.strikes
}

// ParameterCount returns the number of surface nodes.
func (s *Surface) ParameterCount() int {
	return len(s.values)
}

// Parameter returns the value at node i.
func (s *Surface) Parameter(i int) float64 {
	return s.values[i]
}

// Values returns a copy of the node values in row-major order.
func (s *Surface) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Node returns the expiry and strike coordinates of node i.
func (s *Surface) Node(i int) (expiry, strike float64) {
	nk := len(s.strikes)
	return s.expiries[i/nk], s.strikes[i%nk]
}

// WithValues returns a surface sharing this surface's axes, convention, and
// interpolation with replacement node values.
func (s *Surface) WithValues(values []float64) (*Surface, error) {
	if len(values) != len(s.values) {
		return nil, fmt.Errorf("vol: %d values for a surface with %d nodes", len(values), len(s.values))
	}
	out := *s
	out.values = append([]float64(nil), values...)
	return &out, nil
}

// Volatility looks the surface up at the given expiry and strike, flat
// beyond the node grid on both axes.
func (s *Surface) Volatility(expiry, strike float64) float64 {
	ia, ib, u := bracket1D(s.interp.Expiry, s.expiries, expiry)
	ja, jb, v := bracket1D(s.interp.Strike, s.strikes, strike)
	nk := len(s.strikes)
	v00 := s.values[ia*nk+ja]
	v01 := s.values[ia*nk+jb]
	v10 := s.values[ib*nk+ja]
	v11 := s.values[ib*nk+jb]
	return (1-u)*((1-v)*v00+v*v01) + u*((1-v)*v10+v*v11)
}

// Weights returns the sparse gradient of Volatility with respect to the node
// values at the given point. At most four nodes carry weight and the weights
// sum to one.
func (s *Surface) Weights(expiry, strike float64) []NodeWeight {
	ia, ib, u := bracket1D(s.interp.Expiry, s.expiries, expiry)
	ja, jb, v := bracket1D(s.interp.Strike, s.strikes, strike)
	nk := len(s.strikes)

	out := make([]NodeWeight, 0, 4)
	add := func(idx int, w float64) {
		if w == 0 {
			return
		}
		for k := range out {
			if out[k].Index == idx {
				out[k].Weight += w
				return
			}
		}
		out = append(out, NodeWeight{Index: idx, Weight: w})
	}
	add(ia*nk+ja, (1-u)*(1-v))
	add(ia*nk+jb, (1-u)*v)
	add(ib*nk+ja, u*(1-v))
	add(ib*nk+jb, u*v)
	return out
}
