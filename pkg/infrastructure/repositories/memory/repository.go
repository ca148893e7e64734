package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
)

// Repository is an in-memory ingredient graph and subtraction ledger. It is
// the storage used by tests and by the CLI's fixture mode. All methods are
// safe for concurrent use; ApplySubtraction serializes on the repository
// lock, so the per-key at-most-once guarantee holds within one process.
type Repository struct {
	mu sync.RWMutex

	items       map[entities.ItemID]entities.LeafItem
	materials   map[entities.MaterialID]entities.Material
	variants    map[entities.VariantID]entities.Variant
	subVariants map[entities.VariantID]entities.SubVariant
	edges       map[string][]entities.IngredientEdge

	links   map[string]entities.FulfillmentLink
	records map[string]entities.SubtractionRecord
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		items:       make(map[entities.ItemID]entities.LeafItem),
		materials:   make(map[entities.MaterialID]entities.Material),
		variants:    make(map[entities.VariantID]entities.Variant),
		subVariants: make(map[entities.VariantID]entities.SubVariant),
		edges:       make(map[string][]entities.IngredientEdge),
		links:       make(map[string]entities.FulfillmentLink),
		records:     make(map[string]entities.SubtractionRecord),
	}
}

// Verify interface compliance
var _ repositories.GraphRepository = (*Repository)(nil)
var _ repositories.LedgerRepository = (*Repository)(nil)

// AddLeafItem adds or replaces a leaf item.
func (r *Repository) AddLeafItem(item entities.LeafItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

// AddMaterial adds or replaces a material.
func (r *Repository) AddMaterial(material entities.Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[material.ID] = material
}

// AddVariant adds or replaces a base variant.
func (r *Repository) AddVariant(variant entities.Variant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[variant.ID] = variant
}

// AddSubVariant adds or replaces a sub-variant.
func (r *Repository) AddSubVariant(sub entities.SubVariant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subVariants[sub.ID] = sub
}

// AddEdge appends an ingredient edge to its owner's list.
func (r *Repository) AddEdge(edge entities.IngredientEdge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[edge.OwnerID] = append(r.edges[edge.OwnerID], edge)
}

// GetLeafItem returns an active leaf item (GraphRepository interface).
func (r *Repository) GetLeafItem(ctx context.Context, id entities.ItemID) (*entities.LeafItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || !item.Active {
		return nil, fmt.Errorf("leaf item %s: %w", id, entities.ErrNotFound)
	}
	return &item, nil
}

// GetMaterial returns an active material (GraphRepository interface).
func (r *Repository) GetMaterial(ctx context.Context, id entities.MaterialID) (*entities.Material, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	material, ok := r.materials[id]
	if !ok || !material.Active {
		return nil, fmt.Errorf("material %s: %w", id, entities.ErrNotFound)
	}
	return &material, nil
}

// GetVariant returns an active base variant (GraphRepository interface).
func (r *Repository) GetVariant(ctx context.Context, id entities.VariantID) (*entities.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	variant, ok := r.variants[id]
	if !ok || !variant.Active {
		return nil, fmt.Errorf("variant %s: %w", id, entities.ErrNotFound)
	}
	return &variant, nil
}

// GetSubVariant returns a sub-variant (GraphRepository interface).
func (r *Repository) GetSubVariant(ctx context.Context, id entities.VariantID) (*entities.SubVariant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subVariants[id]
	if !ok {
		return nil, fmt.Errorf("sub-variant %s: %w", id, entities.ErrNotFound)
	}
	return &sub, nil
}

// EdgesOf returns the edges owned by a node, in insertion order
// (GraphRepository interface).
func (r *Repository) EdgesOf(ctx context.Context, ownerID string) ([]*entities.IngredientEdge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.edges[ownerID]
	edges := make([]*entities.IngredientEdge, 0, len(stored))
	for i := range stored {
		edge := stored[i]
		edges = append(edges, &edge)
	}
	return edges, nil
}

// GetFulfillmentLink returns the link for a key (LedgerRepository interface).
func (r *Repository) GetFulfillmentLink(ctx context.Context, fulfillmentKey string) (*entities.FulfillmentLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.links[fulfillmentKey]
	if !ok {
		return nil, fmt.Errorf("fulfillment %s: %w", fulfillmentKey, entities.ErrNotFound)
	}
	return &link, nil
}

// ApplySubtraction decrements inventory and writes the record and link under
// one lock acquisition (LedgerRepository interface). All entries are checked
// before any item is written, so a failure leaves inventory untouched.
func (r *Repository) ApplySubtraction(ctx context.Context, fulfillmentKey string, record *entities.SubtractionRecord) (*entities.SubtractionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[fulfillmentKey]; exists {
		return nil, fmt.Errorf("fulfillment %s: %w", fulfillmentKey, entities.ErrAlreadySubtracted)
	}
	for _, entry := range record.Entries {
		item, ok := r.items[entry.ItemID]
		if !ok || !item.Active {
			return nil, fmt.Errorf("leaf item %s: %w", entry.ItemID, entities.ErrNotFound)
		}
		if item.MeasurementUnit != entry.Unit {
			return nil, fmt.Errorf("entry for item %s is in %s, item is measured in %s: %w",
				entry.ItemID, entry.Unit, item.MeasurementUnit, entities.ErrInvalidMeasurement)
		}
	}

	applied := entities.SubtractionRecord{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Entries:   make([]entities.SubtractionEntry, len(record.Entries)),
	}
	for i, entry := range record.Entries {
		item := r.items[entry.ItemID]
		item.OnHand = item.OnHand.Sub(entry.Subtracted)
		r.items[entry.ItemID] = item

		entry.Remaining = item.OnHand
		applied.Entries[i] = entry
	}

	r.records[applied.ID] = applied
	r.links[fulfillmentKey] = entities.FulfillmentLink{FulfillmentKey: fulfillmentKey, RecordID: applied.ID}
	return &applied, nil
}

// GetSubtractionRecord returns a written record (LedgerRepository interface).
func (r *Repository) GetSubtractionRecord(ctx context.Context, id string) (*entities.SubtractionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("subtraction record %s: %w", id, entities.ErrNotFound)
	}
	return &record, nil
}
