package entities

// QuantityKind classifies a unit of measure into one of the physical
// dimensions the engine can aggregate within.
type QuantityKind int

const (
	Mass QuantityKind = iota
	Volume
	Count
)

// String method for QuantityKind enum
func (k QuantityKind) String() string {
	switch k {
	case Mass:
		return "Mass"
	case Volume:
		return "Volume"
	case Count:
		return "Count"
	default:
		return "Unknown"
	}
}

// Unit is a named unit of measure. Only the units declared below are valid;
// everything else is rejected with ErrInvalidUnit wherever it is consumed.
type Unit string

const (
	UnitMilligram Unit = "Milligram"
	UnitGram      Unit = "Gram"
	UnitKilogram  Unit = "Kilogram"

	UnitMilliliter Unit = "Milliliter"
	UnitLiter      Unit = "Liter"

	// Count has exactly one unit.
	UnitPiece Unit = "Piece"
)
