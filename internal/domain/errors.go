package domain

import "errors"

// Domain errors. Parse errors are local and recoverable; invariant and
// immutability violations must reject the enclosing transaction in full.
var (
	// ErrMalformedAmount is returned when decimal amount text does not match
	// the [sign] integer [ "." fraction ] grammar.
	ErrMalformedAmount = errors.New("malformed amount string")

	// ErrPrecisionOverflow is returned when amount text carries more
	// fractional digits than the asset's precision, or the scaled value does
	// not fit a 64-bit share amount.
	ErrPrecisionOverflow = errors.New("amount exceeds asset precision or share range")

	// ErrInvariantViolation is returned when object state breaks a structural
	// rule: negative supply counters, oversupply, disallowed flag
	// combinations, or a prediction market without global-settle permission.
	ErrInvariantViolation = errors.New("asset invariant violation")

	// ErrSettledImmutable is returned when a mutation is attempted on a
	// bitasset after global settlement.
	ErrSettledImmutable = errors.New("asset is globally settled and immutable")
)
