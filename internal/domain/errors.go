package domain

import "errors"

// Normalization failure taxonomy. Callers match with errors.Is; wrapping
// adds the offending key or count. Every failure aborts only the single
// normalization call it occurred in.
var (
	// ErrSpeciesNotFound means the lookup key is absent from the species
	// master table. The caller must supply an explicit species name plus
	// partition function and retry; there is no fallback heuristic.
	ErrSpeciesNotFound = errors.New("species not found in master table")

	// ErrMissingPartitionFunction means a species name was caller-supplied
	// without a partition function. Transition probabilities cannot be
	// derived from a bare name, so this is fatal rather than defaulted.
	ErrMissingPartitionFunction = errors.New("species supplied without partition function")

	// ErrUnsupportedFormat means the declared format tag matches no known
	// catalog.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrInsufficientData means too few valid partition-function samples
	// survived filtering to fit a stable interpolant.
	ErrInsufficientData = errors.New("insufficient partition function samples")
)
