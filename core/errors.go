package core

import "errors"

// Sentinel errors identify the kind of failure a caller is dealing with,
// per the error-kind taxonomy this package follows: invalid argument,
// numerical failure, and exhaustion (handled separately as AdvanceResult,
// not an error). Wrap these with fmt.Errorf("...: %w", ...) for context and
// unwrap with errors.Is.
var (
	ErrNilArgument       = errors.New("latticescan: required argument is nil")
	ErrInvalidDimension  = errors.New("latticescan: invalid dimension")
	ErrInvalidState      = errors.New("latticescan: scan is not in the required state")
	ErrBothHemispheres   = errors.New("latticescan: sky region spans both ecliptic hemispheres")
	ErrDegeneratePolygon = errors.New("latticescan: sky polygon must have exactly 1 vertex or at least 3")
	ErrOffSphere         = errors.New("latticescan: canonical point lies outside the unit sky sphere")
	ErrMetric            = errors.New("latticescan: flat metric is not usable")
	ErrLattice           = errors.New("latticescan: lattice generator construction failed")
)
