package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubtractionEntry is the per-leaf snapshot captured when an order's
// consumption is applied to inventory. Subtracted and Remaining are in the
// item's own measurement unit; Remaining is the on-hand quantity after the
// decrement.
type SubtractionEntry struct {
	ItemID     ItemID
	ItemName   string
	Unit       Unit
	UnitPrice  decimal.Decimal
	Remaining  decimal.Decimal
	Subtracted decimal.Decimal
}

// SubtractionRecord is the immutable audit trail of one applied subtraction.
// Entries are ordered by item id. Records are only ever created, never
// mutated or deleted.
type SubtractionRecord struct {
	ID        string
	CreatedAt time.Time
	Entries   []SubtractionEntry
}

// FulfillmentLink binds one external fulfillment event to the subtraction
// record it produced. At most one link exists per key; this is the
// at-most-once guard for inventory subtraction.
type FulfillmentLink struct {
	FulfillmentKey string
	RecordID       string
}
