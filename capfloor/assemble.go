package capfloor

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/pricer"
	"github.com/meenmo/capvol/vol"
)

// quoteLeg is one usable quote resolved for the objective: the caplet basket
// it prices, the market value to match, and the weight dividing its residual.
type quoteLeg struct {
	row, col int
	expiry   market.Tenor
	strike   float64
	caplets  []pricer.Caplet
	market   float64
	weight   float64
}

// assembler evaluates the stacked residual vector for the solver: one
// weighted repricing residual per usable quote, followed by the curvature
// penalty rows. Quote rows are independent and priced concurrently.
type assembler struct {
	legs    []quoteLeg
	base    *vol.Surface // node grid template; values swapped per evaluation
	penalty *mat.Dense   // nil when smoothing is disabled
	nData   int
	rows    int
}

func (a *assembler) eval(ctx context.Context, x []float64, residuals []float64, jac *mat.Dense) error {
	surf, err := a.base.WithValues(x)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range a.legs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			leg := &a.legs[i]
			if jac == nil {
				pv, err := pricer.LegValue(pricer.Cap, leg.caplets, surf)
				if err != nil {
					return fmt.Errorf("quote (%s, %g): %w", leg.expiry, leg.strike, err)
				}
				residuals[i] = (pv - leg.market) / leg.weight
				return nil
			}
			pv, grad, err := pricer.LegValueWithGradient(pricer.Cap, leg.caplets, surf)
			if err != nil {
				return fmt.Errorf("quote (%s, %g): %w", leg.expiry, leg.strike, err)
			}
			residuals[i] = (pv - leg.market) / leg.weight
			for k := range grad {
				grad[k] /= leg.weight
			}
			jac.SetRow(i, grad)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if a.penalty != nil {
		pr, _ := a.penalty.Dims()
		pv := mat.NewVecDense(pr, residuals[a.nData:a.nData+pr])
		pv.MulVec(a.penalty, mat.NewVecDense(len(x), x))
		if jac != nil {
			for r := 0; r < pr; r++ {
				jac.SetRow(a.nData+r, a.penalty.RawRowView(r))
			}
		}
	}
	return nil
}

// marketValueAndWeight turns one raw quote into the present value the
// calibration must match and the weight dividing its residual. Volatility
// quotes reprice a flat surface in the quoted convention and weight by the
// quote error times the leg vega at that flat volatility, so residuals stay
// comparable across quote units. Price quotes pass through with the error
// itself as weight.
func marketValueAndWeight(qt QuoteType, quote, qErr float64, caplets []pricer.Caplet, expiry market.Tenor, strike float64) (float64, float64, error) {
	if quote <= 0 {
		return 0, 0, fmt.Errorf("%w: non-positive quote %g at (%s, %g)",
			ErrInvalidInput, quote, expiry, strike)
	}
	if qt == Price {
		return quote, qErr, nil
	}
	conv := vol.Black
	if qt == NormalVolatility {
		conv = vol.Normal
	}
	flat := vol.Constant(conv, 0, quote)
	mv, err := pricer.LegValue(pricer.Cap, caplets, flat)
	if err != nil {
		return 0, 0, fmt.Errorf("quote (%s, %g): %w", expiry, strike, err)
	}
	vega, err := pricer.LegVega(caplets, flat)
	if err != nil {
		return 0, 0, fmt.Errorf("quote (%s, %g): %w", expiry, strike, err)
	}
	w := qErr * vega
	if w <= 0 || math.IsNaN(w) {
		return 0, 0, fmt.Errorf("%w: vanishing vega weight for quote (%s, %g)",
			ErrInvalidInput, expiry, strike)
	}
	return mv, w, nil
}
