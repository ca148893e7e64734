package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
)

// Repository is the postgres-backed ingredient graph and subtraction
// ledger. Graph reads are plain keyed lookups; the ledger's at-most-once
// guarantee rests on the unique key of fulfillment_links, so it holds across
// processes, not just within one.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository over a connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Verify interface compliance
var _ repositories.GraphRepository = (*Repository)(nil)
var _ repositories.LedgerRepository = (*Repository)(nil)

// GetLeafItem returns an active leaf item (GraphRepository interface).
func (r *Repository) GetLeafItem(ctx context.Context, id entities.ItemID) (*entities.LeafItem, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, on_hand, unit_price, measurement_unit, active
		FROM leaf_items
		WHERE id = $1 AND active
	`, string(id))

	var item entities.LeafItem
	if err := row.Scan(&item.ID, &item.Name, &item.OnHand, &item.UnitPrice, &item.MeasurementUnit, &item.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("leaf item %s: %w", id, entities.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// GetMaterial returns an active material (GraphRepository interface).
func (r *Repository) GetMaterial(ctx context.Context, id entities.MaterialID) (*entities.Material, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, yield_amount, yield_unit, active
		FROM materials
		WHERE id = $1 AND active
	`, string(id))

	var material entities.Material
	if err := row.Scan(&material.ID, &material.Name, &material.YieldAmount, &material.YieldUnit, &material.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("material %s: %w", id, entities.ErrNotFound)
		}
		return nil, err
	}
	return &material, nil
}

// GetVariant returns an active base variant with its add-ons and optional
// other-cost adjustment (GraphRepository interface).
func (r *Repository) GetVariant(ctx context.Context, id entities.VariantID) (*entities.Variant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, active, additive_cost, cost_multiplier
		FROM variants
		WHERE id = $1 AND active
	`, string(id))

	var variant entities.Variant
	var additive, multiplier decimal.NullDecimal
	if err := row.Scan(&variant.ID, &variant.Name, &variant.Active, &additive, &multiplier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("variant %s: %w", id, entities.ErrNotFound)
		}
		return nil, err
	}
	if additive.Valid || multiplier.Valid {
		oc := &entities.OtherCost{
			AdditiveCost:   decimal.Zero,
			CostMultiplier: decimal.NewFromInt(1),
		}
		if additive.Valid {
			oc.AdditiveCost = additive.Decimal
		}
		if multiplier.Valid {
			oc.CostMultiplier = multiplier.Decimal
		}
		variant.OtherCost = oc
	}

	addOns, err := r.addOnsOf(ctx, string(id))
	if err != nil {
		return nil, err
	}
	variant.AddOns = addOns
	return &variant, nil
}

// GetSubVariant returns a sub-variant with its add-ons (GraphRepository
// interface).
func (r *Repository) GetSubVariant(ctx context.Context, id entities.VariantID) (*entities.SubVariant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, parent_id, name
		FROM sub_variants
		WHERE id = $1
	`, string(id))

	var sub entities.SubVariant
	if err := row.Scan(&sub.ID, &sub.ParentID, &sub.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sub-variant %s: %w", id, entities.ErrNotFound)
		}
		return nil, err
	}

	addOns, err := r.addOnsOf(ctx, string(id))
	if err != nil {
		return nil, err
	}
	sub.AddOns = addOns
	return &sub, nil
}

func (r *Repository) addOnsOf(ctx context.Context, ownerID string) ([]entities.AddOn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, amount, price_per_unit
		FROM add_ons
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addOns []entities.AddOn
	for rows.Next() {
		var a entities.AddOn
		if err := rows.Scan(&a.ID, &a.Name, &a.Amount, &a.PricePerUnit); err != nil {
			return nil, err
		}
		addOns = append(addOns, a)
	}
	return addOns, rows.Err()
}

// EdgesOf returns a node's outgoing ingredient edges (GraphRepository
// interface).
func (r *Repository) EdgesOf(ctx context.Context, ownerID string) ([]*entities.IngredientEdge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, target_kind, target_id, amount, unit
		FROM ingredient_edges
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*entities.IngredientEdge
	for rows.Next() {
		var edge entities.IngredientEdge
		var kind, targetID string
		if err := rows.Scan(&edge.ID, &edge.OwnerID, &kind, &targetID, &edge.Amount, &edge.Unit); err != nil {
			return nil, err
		}
		switch kind {
		case targetKindLeafItem:
			edge.Target = entities.LeafTarget(entities.ItemID(targetID))
		case targetKindMaterial:
			edge.Target = entities.MaterialTarget(entities.MaterialID(targetID))
		default:
			return nil, fmt.Errorf("edge %s has unknown target kind %q", edge.ID, kind)
		}
		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}

// Stored values of ingredient_edges.target_kind.
const (
	targetKindLeafItem = "leaf_item"
	targetKindMaterial = "material"
)
