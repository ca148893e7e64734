package entities

import "errors"

// Domain error sentinels. Call sites wrap these with fmt.Errorf("...: %w")
// to attach the offending id, unit, or edge; callers discriminate with
// errors.Is.
var (
	// ErrNotFound reports an unknown id, or an inactive record referenced as
	// current.
	ErrNotFound = errors.New("not found")

	// ErrInvalidUnit reports a unit string that belongs to no QuantityKind.
	ErrInvalidUnit = errors.New("invalid unit")

	// ErrIncompatibleUnits reports a conversion requested across
	// QuantityKinds.
	ErrIncompatibleUnits = errors.New("incompatible units")

	// ErrInvalidMeasurement reports stored graph data whose unit fails
	// classification or conflicts with its target's reference unit. This is
	// a data-integrity problem, not a caller error.
	ErrInvalidMeasurement = errors.New("invalid measurement")

	// ErrCircularReference reports an ingredient edge that would close a
	// material containment cycle.
	ErrCircularReference = errors.New("circular reference")

	// ErrAlreadySubtracted reports a second subtraction attempt for a
	// fulfillment key that already has a subtraction record.
	ErrAlreadySubtracted = errors.New("already subtracted")
)
