// Package lsq provides penalized nonlinear least squares: second-order
// difference penalty rows over node grids and a Levenberg-Marquardt solver
// with candidate admissibility checks.
package lsq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SecondDiff returns the (n-2)xn matrix of second-order difference rows for a
// strictly increasing axis. Row r approximates the second derivative at node
// r+1; on a uniform axis with spacing h the stencil reduces to
// [1, -2, 1]/h^2. Axes with fewer than three nodes have no rows and return
// nil.
func SecondDiff(xs []float64) (*mat.Dense, error) {
	n := len(xs)
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("lsq: axis is not strictly increasing at %d", i)
		}
	}
	if n < 3 {
		return nil, nil
	}
	m := mat.NewDense(n-2, n, nil)
	for r := 0; r < n-2; r++ {
		hl := xs[r+1] - xs[r]
		hr := xs[r+2] - xs[r+1]
		m.Set(r, r, 2/(hl*(hl+hr)))
		m.Set(r, r+1, -2/(hl*hr))
		m.Set(r, r+2, 2/(hr*(hl+hr)))
	}
	return m, nil
}

// GridPenalty stacks second-difference rows over a row-major
// expiry-by-strike node grid (expiry index outermost). Every strike column
// contributes expiry-direction rows scaled by sqrt(lambdaExpiry) and every
// expiry row contributes strike-direction rows scaled by sqrt(lambdaStrike).
// Axes too short to difference, or a zero lambda, contribute no rows; when
// nothing contributes the penalty is nil.
func GridPenalty(expiries, strikes []float64, lambdaExpiry, lambdaStrike float64) (*mat.Dense, error) {
	nt, nk := len(expiries), len(strikes)
	if nt == 0 || nk == 0 {
		return nil, fmt.Errorf("lsq: empty node axis")
	}
	if lambdaExpiry < 0 || lambdaStrike < 0 {
		return nil, fmt.Errorf("lsq: negative smoothing weight")
	}

	dt, err := SecondDiff(expiries)
	if err != nil {
		return nil, err
	}
	dk, err := SecondDiff(strikes)
	if err != nil {
		return nil, err
	}

	rowsT := 0
	if dt != nil && lambdaExpiry > 0 {
		rowsT = (nt - 2) * nk
	}
	rowsK := 0
	if dk != nil && lambdaStrike > 0 {
		rowsK = nt * (nk - 2)
	}
	if rowsT+rowsK == 0 {
		return nil, nil
	}

	p := mat.NewDense(rowsT+rowsK, nt*nk, nil)
	r := 0
	if rowsT > 0 {
		scale := math.Sqrt(lambdaExpiry)
		for q := 0; q < nt-2; q++ {
			for j := 0; j < nk; j++ {
				for c := 0; c < 3; c++ {
					p.Set(r, (q+c)*nk+j, scale*dt.At(q, q+c))
				}
				r++
			}
		}
	}
	if rowsK > 0 {
		scale := math.Sqrt(lambdaStrike)
		for i := 0; i < nt; i++ {
			for q := 0; q < nk-2; q++ {
				for c := 0; c < 3; c++ {
					p.Set(r, i*nk+(q+c), scale*dk.At(q, q+c))
				}
				r++
			}
		}
	}
	return p, nil
}
