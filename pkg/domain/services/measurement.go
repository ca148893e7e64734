package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
)

// unitDef ties a unit to its kind and its ratio to the kind's base unit
// (Gram, Milliliter, Piece).
type unitDef struct {
	kind   entities.QuantityKind
	toBase decimal.Decimal
}

// Converter classifies units into quantity kinds and converts amounts
// between units of the same kind. The unit table is built once and never
// mutated afterwards, so a single Converter is safe for concurrent use.
type Converter struct {
	table map[entities.Unit]unitDef
}

// NewConverter creates a Converter over the closed unit table.
func NewConverter() *Converter {
	return &Converter{table: map[entities.Unit]unitDef{
		entities.UnitMilligram: {kind: entities.Mass, toBase: decimal.RequireFromString("0.001")},
		entities.UnitGram:      {kind: entities.Mass, toBase: decimal.NewFromInt(1)},
		entities.UnitKilogram:  {kind: entities.Mass, toBase: decimal.NewFromInt(1000)},

		entities.UnitMilliliter: {kind: entities.Volume, toBase: decimal.NewFromInt(1)},
		entities.UnitLiter:      {kind: entities.Volume, toBase: decimal.NewFromInt(1000)},

		entities.UnitPiece: {kind: entities.Count, toBase: decimal.NewFromInt(1)},
	}}
}

// Classify returns the quantity kind a unit belongs to.
func (c *Converter) Classify(unit entities.Unit) (entities.QuantityKind, error) {
	def, ok := c.table[unit]
	if !ok {
		return 0, fmt.Errorf("unit %q: %w", unit, entities.ErrInvalidUnit)
	}
	return def.kind, nil
}

// Convert re-expresses amount from one unit in another unit of the same
// kind. Conversion across kinds fails with ErrIncompatibleUnits; Count has a
// single unit, so Count conversion is always the identity.
func (c *Converter) Convert(amount decimal.Decimal, from, to entities.Unit) (decimal.Decimal, error) {
	fromDef, ok := c.table[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("unit %q: %w", from, entities.ErrInvalidUnit)
	}
	toDef, ok := c.table[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("unit %q: %w", to, entities.ErrInvalidUnit)
	}
	if fromDef.kind != toDef.kind {
		return decimal.Zero, fmt.Errorf("%s (%s) to %s (%s): %w",
			from, fromDef.kind, to, toDef.kind, entities.ErrIncompatibleUnits)
	}
	if from == to {
		return amount, nil
	}
	return amount.Mul(fromDef.toBase).Div(toDef.toBase), nil
}
