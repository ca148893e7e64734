package entities

import "github.com/shopspring/decimal"

// ItemID identifies a leaf inventory item.
type ItemID string

// LeafItem is a raw inventory item: it cannot be decomposed further. OnHand
// and UnitPrice are both expressed against MeasurementUnit (quantity in that
// unit, currency per one of that unit). OnHand is the only mutable shared
// state in the engine and is written exclusively through the subtraction
// ledger.
type LeafItem struct {
	ID              ItemID
	Name            string
	OnHand          decimal.Decimal
	UnitPrice       decimal.Decimal
	MeasurementUnit Unit
	Active          bool
}
