package capfloor

import "errors"

var (
	// ErrInvalidInput flags definitions, raw quote data, or market data that
	// fail shape or domain validation.
	ErrInvalidInput = errors.New("capfloor: invalid calibration input")

	// ErrNonPositiveError flags a present quote whose error is missing,
	// zero, or negative.
	ErrNonPositiveError = errors.New("capfloor: non-positive quote error")

	// ErrNoConvergence flags a calibration whose solver hit an iteration or
	// damping ceiling. The wrapped lsq.ConvergenceError carries the
	// iteration count and last objective value.
	ErrNoConvergence = errors.New("capfloor: calibration did not converge")
)
