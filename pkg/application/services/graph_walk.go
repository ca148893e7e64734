package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
	"github.com/tbastin/bomcost/pkg/domain/services"
)

// maxWorklistIterations bounds graph expansion. The cycle guard keeps the
// material graph acyclic, but the walk must still terminate with a
// diagnostic on malformed data instead of looping.
const maxWorklistIterations = 100_000

// loadedVariant is a variant id resolved to its base record and, when the id
// named a sub-variant, the sub record as well.
type loadedVariant struct {
	Base *entities.Variant
	Sub  *entities.SubVariant
}

// loadVariant resolves an id that may name either a base variant or a
// sub-variant. Unknown in both tables means ErrNotFound.
func loadVariant(ctx context.Context, graph repositories.GraphRepository, id entities.VariantID) (*loadedVariant, error) {
	base, err := graph.GetVariant(ctx, id)
	if err == nil {
		return &loadedVariant{Base: base}, nil
	}
	if !errors.Is(err, entities.ErrNotFound) {
		return nil, err
	}

	sub, err := graph.GetSubVariant(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, fmt.Errorf("variant %s: %w", id, entities.ErrNotFound)
		}
		return nil, err
	}
	base, err = graph.GetVariant(ctx, sub.ParentID)
	if err != nil {
		return nil, fmt.Errorf("parent variant %s of sub-variant %s: %w", sub.ParentID, id, err)
	}
	return &loadedVariant{Base: base, Sub: sub}, nil
}

// rootEdges collects the initial worklist: the base variant's own edges
// plus, when a sub-variant was requested, its additive edges.
func rootEdges(ctx context.Context, graph repositories.GraphRepository, v *loadedVariant) ([]*entities.IngredientEdge, error) {
	edges, err := graph.EdgesOf(ctx, string(v.Base.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to load edges of variant %s: %w", v.Base.ID, err)
	}
	if v.Sub != nil {
		subEdges, err := graph.EdgesOf(ctx, string(v.Sub.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to load edges of sub-variant %s: %w", v.Sub.ID, err)
		}
		edges = append(edges, subEdges...)
	}
	return edges, nil
}

// workItem is one pending edge expansion. Scale is the cumulative yield
// ratio accumulated along the material path from the root; the effective
// requirement is edge.Amount*Scale in the edge's own unit.
type workItem struct {
	edge  *entities.IngredientEdge
	scale decimal.Decimal
}

// walkLeafEdges flattens the given edges into leaf visits. Every leaf-
// targeting edge reached, directly or through nested materials, produces one
// visit carrying the proportionally scaled amount in the edge's own unit.
// Aggregation is left to the visitor, which must be commutative so the
// result is independent of traversal order.
//
// An edge whose unit fails classification aborts the walk with
// ErrInvalidMeasurement; partial results are never surfaced. A missing or
// inactive material also aborts, since skipping it would silently
// undercount.
func walkLeafEdges(
	ctx context.Context,
	graph repositories.GraphRepository,
	converter *services.Converter,
	edges []*entities.IngredientEdge,
	visit func(edge *entities.IngredientEdge, amount decimal.Decimal) error,
) error {
	worklist := make([]workItem, 0, len(edges))
	for _, edge := range edges {
		worklist = append(worklist, workItem{edge: edge, scale: decimal.NewFromInt(1)})
	}

	iterations := 0
	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		iterations++
		if iterations > maxWorklistIterations {
			return fmt.Errorf("ingredient graph expansion exceeded %d steps; graph is malformed or too deep", maxWorklistIterations)
		}

		item := worklist[0]
		worklist = worklist[1:]
		edge := item.edge

		if _, err := converter.Classify(edge.Unit); err != nil {
			return fmt.Errorf("edge %s has unit %q: %w", edge.ID, edge.Unit, entities.ErrInvalidMeasurement)
		}
		amount := edge.Amount.Mul(item.scale)

		switch edge.Target.Kind {
		case entities.TargetLeafItem:
			if err := visit(edge, amount); err != nil {
				return err
			}

		case entities.TargetMaterial:
			material, err := graph.GetMaterial(ctx, edge.Target.MaterialID)
			if err != nil {
				if errors.Is(err, entities.ErrNotFound) {
					return fmt.Errorf("edge %s references material %s: %w", edge.ID, edge.Target.MaterialID, entities.ErrNotFound)
				}
				return err
			}

			if !material.YieldAmount.IsPositive() {
				return fmt.Errorf("material %s has non-positive yield %s: %w",
					material.ID, material.YieldAmount, entities.ErrInvalidMeasurement)
			}

			// Re-express the demand in the material's yield unit, then take
			// the fraction of one declared yield it represents.
			inYieldUnit, err := converter.Convert(amount, edge.Unit, material.YieldUnit)
			if err != nil {
				return fmt.Errorf("edge %s (%s) against material %s yield (%s): %w",
					edge.ID, edge.Unit, material.ID, material.YieldUnit, entities.ErrInvalidMeasurement)
			}
			childScale := inYieldUnit.Div(material.YieldAmount)

			children, err := graph.EdgesOf(ctx, string(material.ID))
			if err != nil {
				return fmt.Errorf("failed to load edges of material %s: %w", material.ID, err)
			}
			for _, child := range children {
				worklist = append(worklist, workItem{edge: child, scale: childScale})
			}

		default:
			return fmt.Errorf("edge %s has unknown target kind %d", edge.ID, edge.Target.Kind)
		}
	}

	return nil
}
