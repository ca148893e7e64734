package repositories

import (
	"context"

	"github.com/tbastin/bomcost/pkg/domain/entities"
)

// LedgerRepository persists applied subtractions. Implementations must make
// ApplySubtraction first-committer-wins per fulfillment key across
// distributed callers (a unique constraint or an equivalent serialization
// point, not in-process locking alone).
type LedgerRepository interface {
	// GetFulfillmentLink returns the link for a fulfillment key, or
	// entities.ErrNotFound if no subtraction has been applied for it.
	GetFulfillmentLink(ctx context.Context, fulfillmentKey string) (*entities.FulfillmentLink, error)

	// ApplySubtraction atomically decrements each entry's leaf item by
	// Subtracted and persists the record plus a fulfillment link. Either all
	// decrements and both writes commit, or none do. Each entry's Remaining
	// is set to the on-hand quantity the decrement produced. A key that
	// already has a link fails with entities.ErrAlreadySubtracted and no
	// effect.
	ApplySubtraction(ctx context.Context, fulfillmentKey string, record *entities.SubtractionRecord) (*entities.SubtractionRecord, error)

	// GetSubtractionRecord returns a previously written record.
	GetSubtractionRecord(ctx context.Context, id string) (*entities.SubtractionRecord, error)
}
