package lsq

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Settings controls the Levenberg-Marquardt iteration. The zero value of any
// field falls back to its default.
type Settings struct {
	// MaxIterations bounds the number of accepted steps.
	MaxIterations int
	// CostTolerance stops the iteration when the relative decrease of the
	// total sum of squares over one accepted step falls below it.
	CostTolerance float64
	// StepTolerance stops the iteration when the parameter step norm falls
	// below it.
	StepTolerance float64
	// InitialDamping seeds the Marquardt damping parameter.
	InitialDamping float64
	// DampingFactor multiplies the damping on a rejected candidate and
	// divides it on an accepted one.
	DampingFactor float64
	// MaxDamping fails the solve when the damping exceeds it.
	MaxDamping float64
}

// DefaultSettings returns the solver configuration used when a caller leaves
// Settings at its zero value.
func DefaultSettings() Settings {
	return Settings{
		MaxIterations:  100,
		CostTolerance:  1e-10,
		StepTolerance:  1e-12,
		InitialDamping: 1e-3,
		DampingFactor:  10,
		MaxDamping:     1e12,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.CostTolerance <= 0 {
		s.CostTolerance = def.CostTolerance
	}
	if s.StepTolerance <= 0 {
		s.StepTolerance = def.StepTolerance
	}
	if s.InitialDamping <= 0 {
		s.InitialDamping = def.InitialDamping
	}
	if s.DampingFactor <= 1 {
		s.DampingFactor = def.DampingFactor
	}
	if s.MaxDamping <= 0 {
		s.MaxDamping = def.MaxDamping
	}
	return s
}

// ConvergenceError reports a solve that hit an iteration or damping ceiling.
type ConvergenceError struct {
	Iterations int
	LastSumSq  float64
	Reason     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("lsq: no convergence after %d iterations (%s), last sum of squares %.6g",
		e.Iterations, e.Reason, e.LastSumSq)
}

// Problem is a stacked residual system r(x) minimised in the least-squares
// sense.
type Problem struct {
	// Dim is the number of parameters.
	Dim int
	// Rows is the number of residual rows.
	Rows int
	// Eval fills residuals with r(x); when jac is non-nil it also fills the
	// Rows x Dim Jacobian. Any error aborts the solve.
	Eval func(ctx context.Context, x []float64, residuals []float64, jac *mat.Dense) error
	// Accept, when set, rejects inadmissible candidate parameter vectors.
	// A rejected candidate is treated exactly like an objective increase:
	// the damping is raised and the step is retried.
	Accept func(x []float64) bool
}

// Result holds the solution of a successful solve.
type Result struct {
	// X is the parameter vector at the minimum.
	X []float64
	// Residuals is r(X) row by row.
	Residuals []float64
	// SumSq is the total sum of squared residuals at X.
	SumSq float64
	// Iterations counts accepted steps.
	Iterations int
}

// Solve runs Levenberg-Marquardt from x0. The damped normal equations
// (J'J + mu D) step = J'r with D the Marquardt diagonal scaling are solved by
// Cholesky factorization; a failed factorization, an inadmissible candidate,
// or an objective increase raises the damping and retries, an accepted step
// lowers it. Context cancellation is observed once per iteration.
func Solve(ctx context.Context, p Problem, x0 []float64, s Settings, log zerolog.Logger) (*Result, error) {
	s = s.withDefaults()
	if p.Eval == nil {
		return nil, fmt.Errorf("lsq: problem has no Eval")
	}
	if p.Dim <= 0 || p.Rows <= 0 {
		return nil, fmt.Errorf("lsq: problem needs positive dimensions, got %d rows x %d params", p.Rows, p.Dim)
	}
	if len(x0) != p.Dim {
		return nil, fmt.Errorf("lsq: initial point has %d entries for a %d-parameter problem", len(x0), p.Dim)
	}
	if p.Accept != nil && !p.Accept(x0) {
		return nil, fmt.Errorf("lsq: initial point failed the admissibility check")
	}

	x := append([]float64(nil), x0...)
	r := make([]float64, p.Rows)
	rCand := make([]float64, p.Rows)
	xCand := make([]float64, p.Dim)
	jac := mat.NewDense(p.Rows, p.Dim, nil)

	if err := p.Eval(ctx, x, r, jac); err != nil {
		return nil, err
	}
	ssq := floats.Dot(r, r)

	mu := s.InitialDamping
	var jtj mat.Dense
	sym := mat.NewSymDense(p.Dim, nil)
	grad := mat.NewVecDense(p.Dim, nil)
	step := mat.NewVecDense(p.Dim, nil)

	for iter := 1; iter <= s.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		jtj.Mul(jac.T(), jac)
		grad.MulVec(jac.T(), mat.NewVecDense(p.Rows, r))

		var candSsq float64
		for {
			cause := trialStep(&jtj, grad, step, mu, sym, x, xCand, p)
			if cause == "" {
				if err := p.Eval(ctx, xCand, rCand, nil); err != nil {
					return nil, err
				}
				candSsq = floats.Dot(rCand, rCand)
				if candSsq <= ssq {
					break
				}
				cause = "objective increased"
			}
			mu *= s.DampingFactor
			log.Debug().
				Int("iter", iter).
				Str("cause", cause).
				Float64("damping", mu).
				Msg("rejected step")
			if mu > s.MaxDamping {
				return nil, &ConvergenceError{Iterations: iter, LastSumSq: ssq, Reason: "damping limit"}
			}
		}

		stepNorm := floats.Norm(step.RawVector().Data, 2)
		relDecrease := 0.0
		if ssq > 0 {
			relDecrease = (ssq - candSsq) / ssq
		}

		copy(x, xCand)
		r, rCand = rCand, r
		ssq = candSsq
		mu /= s.DampingFactor

		log.Debug().
			Int("iter", iter).
			Float64("ssq", ssq).
			Float64("step_norm", stepNorm).
			Float64("damping", mu).
			Msg("accepted step")

		if relDecrease < s.CostTolerance || stepNorm < s.StepTolerance {
			return &Result{
				X:          x,
				Residuals:  append([]float64(nil), r...),
				SumSq:      ssq,
				Iterations: iter,
			}, nil
		}

		if err := p.Eval(ctx, x, r, jac); err != nil {
			return nil, err
		}
	}
	return nil, &ConvergenceError{Iterations: s.MaxIterations, LastSumSq: ssq, Reason: "iteration limit"}
}

// trialStep solves the damped normal equations for one candidate and writes
// it to xCand. It returns a non-empty rejection cause when the factorization
// or solve fails or the candidate is inadmissible.
func trialStep(jtj *mat.Dense, grad, step *mat.VecDense, mu float64, sym *mat.SymDense, x, xCand []float64, p Problem) string {
	for i := 0; i < p.Dim; i++ {
		d := jtj.At(i, i)
		if d <= 0 {
			// Parameters no row touches stay put instead of making the
			// system singular.
			d = 1
		}
		for j := i; j < p.Dim; j++ {
			v := jtj.At(i, j)
			if j == i {
				v += mu * d
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return "factorization failed"
	}
	if err := chol.SolveVecTo(step, grad); err != nil {
		return "normal equations solve failed"
	}
	for i := range xCand {
		xCand[i] = x[i] - step.AtVec(i)
	}
	if p.Accept != nil && !p.Accept(xCand) {
		return "candidate inadmissible"
	}
	return ""
}
