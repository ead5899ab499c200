package capfloor

import (
	"fmt"

	"github.com/meenmo/capvol/curve"
	"github.com/meenmo/capvol/lsq"
	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/vol"
)

// Definition fixes everything about a calibration except the quotes and the
// curves: the underlying index, the expiry basis, the smoothing weights, the
// interpolation of the output surface, the displacement of the output model,
// and the solver settings.
type Definition struct {
	// Index is the Ibor index the quoted caps reference.
	Index market.IborIndex

	// DayCount converts valuation-to-fixing periods into the expiry axis of
	// the surface, e.g. "ACT/365F".
	DayCount string

	// LambdaExpiry and LambdaStrike scale the curvature penalty along each
	// axis. Zero disables smoothing on that axis.
	LambdaExpiry float64
	LambdaStrike float64

	// Interp sets the interpolation of the calibrated surface.
	Interp vol.Interp2D

	// Shift displaces the output model. Positive values make the calibrated
	// surface shifted Black on (strike+Shift, forward+Shift); zero keeps the
	// quote family.
	Shift float64

	// Solver tunes the Levenberg-Marquardt iteration. Zero fields take the
	// lsq defaults.
	Solver lsq.Settings
}

// Validate checks the definition for fields the calibrator cannot default.
func (d Definition) Validate() error {
	if d.Index.Name == "" || d.Index.Tenor <= 0 || d.Index.Calendar == "" {
		return fmt.Errorf("%w: incomplete index %q", ErrInvalidInput, d.Index.Name)
	}
	if d.DayCount == "" {
		return fmt.Errorf("%w: missing expiry day count", ErrInvalidInput)
	}
	if d.LambdaExpiry < 0 || d.LambdaStrike < 0 {
		return fmt.Errorf("%w: negative smoothing weight (%g, %g)",
			ErrInvalidInput, d.LambdaExpiry, d.LambdaStrike)
	}
	if !d.Interp.Valid() {
		return fmt.Errorf("%w: unknown interpolation scheme", ErrInvalidInput)
	}
	if d.Shift < 0 {
		return fmt.Errorf("%w: negative shift %g", ErrInvalidInput, d.Shift)
	}
	return nil
}

// outputConvention resolves the model family of the calibrated surface from
// the definition shift and the quote type. A positive shift always wins;
// otherwise normal quotes stay normal and everything else calibrates to
// plain Black.
func (d Definition) outputConvention(qt QuoteType) (vol.Convention, float64) {
	if d.Shift > 0 {
		return vol.ShiftedBlack, d.Shift
	}
	if qt == NormalVolatility {
		return vol.Normal, 0
	}
	return vol.Black, 0
}

// Curves bundles the curves a calibration prices against. Forward may be
// nil, in which case forwards project off the discount curve.
type Curves struct {
	Discount *curve.Curve
	Forward  *curve.Curve
}

func (c Curves) validate() error {
	if c.Discount == nil {
		return fmt.Errorf("%w: missing discount curve", ErrInvalidInput)
	}
	return nil
}

func (c Curves) forwardCurve() *curve.Curve {
	if c.Forward != nil {
		return c.Forward
	}
	return c.Discount
}
