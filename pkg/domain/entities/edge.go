package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TargetKind discriminates what an ingredient edge points at.
type TargetKind int

const (
	TargetLeafItem TargetKind = iota
	TargetMaterial
)

// String method for TargetKind enum
func (k TargetKind) String() string {
	switch k {
	case TargetLeafItem:
		return "LeafItem"
	case TargetMaterial:
		return "Material"
	default:
		return "Unknown"
	}
}

// IngredientTarget is a tagged reference to either a leaf item or a
// material. Exactly one of ItemID/MaterialID is set, according to Kind;
// every consumer switches on Kind rather than probing the ids.
type IngredientTarget struct {
	Kind       TargetKind
	ItemID     ItemID
	MaterialID MaterialID
}

// LeafTarget builds a target pointing at a leaf inventory item.
func LeafTarget(id ItemID) IngredientTarget {
	return IngredientTarget{Kind: TargetLeafItem, ItemID: id}
}

// MaterialTarget builds a target pointing at a material.
func MaterialTarget(id MaterialID) IngredientTarget {
	return IngredientTarget{Kind: TargetMaterial, MaterialID: id}
}

// IngredientEdge states that its owner (a material, a variant, or a
// sub-variant) requires Amount of Unit of the target. The same edge shape is
// used at every level of the graph; sub-variant edges are additive overlays
// on top of the base variant's edges.
type IngredientEdge struct {
	ID      string
	OwnerID string
	Target  IngredientTarget
	Amount  decimal.Decimal
	Unit    Unit
}

// NewIngredientEdge creates a validated IngredientEdge. Unit-kind agreement
// with the target's reference unit and cycle safety are checked by the
// layers that can see the rest of the graph.
func NewIngredientEdge(id, ownerID string, target IngredientTarget, amount decimal.Decimal, unit Unit) (*IngredientEdge, error) {
	if id == "" {
		return nil, fmt.Errorf("edge id cannot be empty")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("edge owner id cannot be empty")
	}
	switch target.Kind {
	case TargetLeafItem:
		if target.ItemID == "" {
			return nil, fmt.Errorf("edge %s: leaf target id cannot be empty", id)
		}
	case TargetMaterial:
		if target.MaterialID == "" {
			return nil, fmt.Errorf("edge %s: material target id cannot be empty", id)
		}
		if string(target.MaterialID) == ownerID {
			return nil, fmt.Errorf("edge %s: material cannot contain itself", id)
		}
	default:
		return nil, fmt.Errorf("edge %s: unknown target kind %d", id, target.Kind)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("edge %s: amount must be positive, got %s", id, amount)
	}
	return &IngredientEdge{
		ID:      id,
		OwnerID: ownerID,
		Target:  target,
		Amount:  amount,
		Unit:    unit,
	}, nil
}
