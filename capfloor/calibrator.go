package capfloor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/capvol/lsq"
	"github.com/meenmo/capvol/pricer"
	"github.com/meenmo/capvol/vol"
)

// Calibrator runs caplet stripping calibrations for one definition.
type Calibrator struct {
	def Definition
	log zerolog.Logger
}

// NewCalibrator validates the definition once. Pass zerolog.Nop() for a
// silent calibrator.
func NewCalibrator(def Definition, log zerolog.Logger) (*Calibrator, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Calibrator{def: def, log: log}, nil
}

// Calibrate strips a quoted cap grid into a caplet volatility surface using
// a silent calibrator.
func Calibrate(ctx context.Context, def Definition, valuation time.Time, raw *RawData, cs Curves) (*Result, error) {
	c, err := NewCalibrator(def, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	return c.Calibrate(ctx, valuation, raw, cs)
}

// Calibrate solves for the caplet surface that reprices every usable quote.
// The node grid lays the caplet fixings of the longest quoted cap against
// the strike axis, the starting point is the first usable quote converted
// into the output convention, and the solver minimizes weighted repricing
// residuals plus the curvature penalty. Node values stay positive
// throughout; candidate steps that leave the domain are rejected and
// retried with more damping.
func (c *Calibrator) Calibrate(ctx context.Context, valuation time.Time, raw *RawData, cs Curves) (*Result, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil raw data", ErrInvalidInput)
	}
	if err := cs.validate(); err != nil {
		return nil, err
	}
	if raw.StrikeType() != AbsoluteStrike {
		return nil, fmt.Errorf("%w: %s strike axes are not supported, convert to absolute strikes first",
			ErrInvalidInput, raw.StrikeType())
	}

	def := c.def
	effective := def.Index.SpotDate(valuation)
	nExp, nStk := raw.Dims()
	expiries, strikes := raw.Expiries(), raw.Strikes()

	// Resolve the optionlet schedule of every expiry row holding at least
	// one quote. The last usable row spans the node grid.
	rowPeriods := make([][]CapletPeriod, nExp)
	longest := -1
	for i := 0; i < nExp; i++ {
		if !rowUsable(raw, i, nStk) {
			continue
		}
		termination := def.Index.TerminationDate(effective, expiries[i])
		periods, err := capletPeriods(def, valuation, effective, termination, cs)
		if err != nil {
			return nil, err
		}
		if len(periods) == 0 {
			return nil, fmt.Errorf("%w: cap %s has no caplets after dropping the known fixing",
				ErrInvalidInput, expiries[i])
		}
		rowPeriods[i] = periods
		longest = i
	}
	if longest < 0 {
		return nil, fmt.Errorf("%w: no usable quotes", ErrInvalidInput)
	}
	nodeExpiries := make([]float64, len(rowPeriods[longest]))
	for i, p := range rowPeriods[longest] {
		nodeExpiries[i] = p.Expiry
	}

	outConv, outShift := def.outputConvention(raw.Type())

	var legs []quoteLeg
	for i := 0; i < nExp; i++ {
		if rowPeriods[i] == nil {
			continue
		}
		for j := 0; j < nStk; j++ {
			if !raw.Present(i, j) {
				continue
			}
			caplets := capletsAt(rowPeriods[i], strikes[j])
			mv, w, err := marketValueAndWeight(raw.Type(), raw.Quote(i, j), raw.Error(i, j), caplets, expiries[i], strikes[j])
			if err != nil {
				return nil, err
			}
			legs = append(legs, quoteLeg{
				row: i, col: j,
				expiry:  expiries[i],
				strike:  strikes[j],
				caplets: caplets,
				market:  mv,
				weight:  w,
			})
		}
	}

	repVol, err := initialVol(raw, rowPeriods, outConv, outShift)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(nodeExpiries)*nStk)
	for i := range values {
		values[i] = repVol
	}
	base, err := vol.NewSurface(outConv, outShift, nodeExpiries, strikes, values, def.Interp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	pen, err := lsq.GridPenalty(nodeExpiries, strikes, def.LambdaExpiry, def.LambdaStrike)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	nData := len(legs)
	// Without penalty rows the quotes alone must pin every node; a grid
	// with more nodes than quotes is singular at any damping.
	if pen == nil && nData < base.ParameterCount() {
		return nil, fmt.Errorf("%w: %d quotes cannot determine %d nodes without a smoothing penalty",
			ErrNoConvergence, nData, base.ParameterCount())
	}
	rows := nData
	if pen != nil {
		pr, _ := pen.Dims()
		rows += pr
	}
	a := &assembler{legs: legs, base: base, penalty: pen, nData: nData, rows: rows}

	c.log.Info().
		Str("index", def.Index.Name).
		Str("convention", outConv.String()).
		Int("quotes", nData).
		Int("nodes", base.ParameterCount()).
		Int("penalty_rows", rows-nData).
		Float64("initial_vol", repVol).
		Msg("calibrating caplet surface")

	x0 := make([]float64, base.ParameterCount())
	for i := range x0 {
		x0[i] = repVol
	}
	prob := lsq.Problem{
		Dim:  base.ParameterCount(),
		Rows: rows,
		Eval: a.eval,
		Accept: func(x []float64) bool {
			for _, v := range x {
				if v <= 0 {
					return false
				}
			}
			return true
		},
	}
	res, err := lsq.Solve(ctx, prob, x0, def.Solver, c.log)
	if err != nil {
		var cerr *lsq.ConvergenceError
		if errors.As(err, &cerr) {
			return nil, fmt.Errorf("%w: %w", ErrNoConvergence, cerr)
		}
		return nil, err
	}

	surf, err := base.WithValues(res.X)
	if err != nil {
		return nil, err
	}
	data := res.Residuals[:nData]
	chi := floats.Dot(data, data)

	fits := make([]QuoteFit, nData)
	for i, leg := range legs {
		model := leg.market + res.Residuals[i]*leg.weight
		f := QuoteFit{
			Expiry:   leg.expiry,
			Strike:   leg.strike,
			Market:   leg.market,
			Model:    model,
			AbsError: math.Abs(model - leg.market),
		}
		if leg.market != 0 {
			f.RelError = f.AbsError / math.Abs(leg.market)
		}
		fits[i] = f
	}

	c.log.Info().
		Float64("chi_square", chi).
		Int("iterations", res.Iterations).
		Msg("calibration converged")

	return &Result{Surface: surf, ChiSquare: chi, Iterations: res.Iterations, Fit: fits}, nil
}

func rowUsable(raw *RawData, i, nStk int) bool {
	for j := 0; j < nStk; j++ {
		if raw.Present(i, j) {
			return true
		}
	}
	return false
}

// initialVol converts the first usable quote of the grid into the output
// convention as the flat starting point of the iteration.
func initialVol(raw *RawData, rowPeriods [][]CapletPeriod, outConv vol.Convention, outShift float64) (float64, error) {
	nExp, nStk := raw.Dims()
	for i := 0; i < nExp; i++ {
		if rowPeriods[i] == nil {
			continue
		}
		for j := 0; j < nStk; j++ {
			if !raw.Present(i, j) {
				continue
			}
			v, err := convertQuote(raw, i, j, rowPeriods[i], outConv, outShift)
			if err != nil {
				return 0, err
			}
			if v <= 0 || math.IsNaN(v) {
				return 0, fmt.Errorf("%w: non-positive initial volatility %g from quote (%s, %g)",
					ErrInvalidInput, v, raw.Expiries()[i], raw.Strikes()[j])
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: no usable quotes", ErrInvalidInput)
}

// convertQuote translates one quote into the output convention. Price
// quotes invert through the implied flat volatility of their cap;
// volatility quotes rescale through the displaced final forward, the usual
// first order bridge between normal and lognormal units.
func convertQuote(raw *RawData, i, j int, periods []CapletPeriod, outConv vol.Convention, outShift float64) (float64, error) {
	q := raw.Quote(i, j)
	f := periods[len(periods)-1].Forward
	switch raw.Type() {
	case Price:
		caplets := capletsAt(periods, raw.Strikes()[j])
		v, err := pricer.ImpliedFlatVol(pricer.Cap, caplets, outConv, outShift, q)
		if err != nil {
			return 0, fmt.Errorf("initial guess from price quote (%s, %g): %w",
				raw.Expiries()[i], raw.Strikes()[j], err)
		}
		return v, nil
	case NormalVolatility:
		if outConv == vol.Normal {
			return q, nil
		}
		if f+outShift <= 0 {
			return 0, fmt.Errorf("%w: displaced forward %g cannot scale a normal quote",
				ErrInvalidInput, f+outShift)
		}
		return q / (f + outShift), nil
	default: // BlackVolatility
		if outConv == vol.Black {
			return q, nil
		}
		if f <= 0 || f+outShift <= 0 {
			return 0, fmt.Errorf("%w: forward %g cannot rescale a lognormal quote onto shift %g",
				ErrInvalidInput, f, outShift)
		}
		return q * f / (f + outShift), nil
	}
}
