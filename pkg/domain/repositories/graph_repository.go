package repositories

import (
	"context"

	"github.com/tbastin/bomcost/pkg/domain/entities"
)

// EdgeReader provides the outgoing ingredient edges of a graph node. It is
// the minimal surface the cycle guard needs.
type EdgeReader interface {
	// EdgesOf returns the ingredient edges owned by a material, variant, or
	// sub-variant id, in stored order. An unknown owner yields an empty
	// slice, not an error.
	EdgesOf(ctx context.Context, ownerID string) ([]*entities.IngredientEdge, error)
}

// GraphRepository provides read access to the ingredient graph. All Get
// methods return only active records and report entities.ErrNotFound for
// unknown or deactivated ids.
type GraphRepository interface {
	EdgeReader

	GetLeafItem(ctx context.Context, id entities.ItemID) (*entities.LeafItem, error)
	GetMaterial(ctx context.Context, id entities.MaterialID) (*entities.Material, error)
	GetVariant(ctx context.Context, id entities.VariantID) (*entities.Variant, error)
	GetSubVariant(ctx context.Context, id entities.VariantID) (*entities.SubVariant, error)
}
