package dto

import (
	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
)

// Requirement is the aggregated demand for one leaf item. Unit is the
// canonical unit the amounts were accumulated in (the unit of the first edge
// that referenced the item during resolution); Kind is its quantity kind.
type Requirement struct {
	Kind   entities.QuantityKind
	Unit   entities.Unit
	Amount decimal.Decimal
}

// ConsumptionMap is a variant's flattened leaf consumption, keyed by the
// true leaf item id regardless of how deeply nested the reference was.
type ConsumptionMap map[entities.ItemID]Requirement

// Shortage describes one leaf item whose on-hand quantity cannot cover the
// resolved requirement. Required and Available are in the item's own
// measurement unit. A referenced item that is missing or inactive is
// reported with Available zero and an empty name.
type Shortage struct {
	ItemID    entities.ItemID
	ItemName  string
	Unit      entities.Unit
	Required  decimal.Decimal
	Available decimal.Decimal
}

// StockReport is the result of checking a variant's consumption against
// on-hand inventory. Shortages is ordered by item id.
type StockReport struct {
	InStock   bool
	Shortages []Shortage
}
