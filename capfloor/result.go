package capfloor

import (
	"github.com/meenmo/capvol/market"
	"github.com/meenmo/capvol/vol"
)

// QuoteFit reports how well the calibrated surface reprices one input quote.
// Market and Model are present values per unit notional regardless of the
// quote unit.
type QuoteFit struct {
	Expiry   market.Tenor
	Strike   float64
	Market   float64
	Model    float64
	AbsError float64
	RelError float64
}

// Result is a completed calibration: the caplet surface together with its
// fit diagnostics.
type Result struct {
	// Surface holds the calibrated node values on the caplet expiry by
	// strike grid.
	Surface *vol.Surface

	// ChiSquare is the sum of squared weighted data residuals, excluding
	// the smoothing penalty rows.
	ChiSquare float64

	// Iterations counts accepted solver steps.
	Iterations int

	// Fit lists the repricing of every usable quote, row-major over the
	// input grid.
	Fit []QuoteFit
}
