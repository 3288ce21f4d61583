package md

import "errors"

// Domain errors shared across the engine. Configuration errors are fatal at
// setup: the physical model is ill-defined and there is no recovery path.
var (
	// ErrTooManyNeighbors indicates an atom needs more neighbor slots than
	// the configured maximum.
	ErrTooManyNeighbors = errors.New("md: neighbor count exceeds maximum")

	// ErrBadCutoff indicates a non-positive or inverted cutoff radius.
	ErrBadCutoff = errors.New("md: invalid cutoff radius")

	// ErrBoxTooThin indicates the box is thinner than twice the cutoff on a
	// periodic axis, so the minimum-image convention would be ambiguous.
	ErrBoxTooThin = errors.New("md: box thinner than twice the cutoff")

	// ErrSizeMismatch indicates per-atom arrays whose lengths disagree.
	ErrSizeMismatch = errors.New("md: mismatched array sizes")

	// ErrNeighborAsymmetry indicates an atom missing from its neighbor's
	// list, which breaks the reciprocal partial-force lookup.
	ErrNeighborAsymmetry = errors.New("md: neighbor list is not symmetric")

	// ErrBadParameter indicates a potential parameter outside its valid range.
	ErrBadParameter = errors.New("md: potential parameter out of range")
)
