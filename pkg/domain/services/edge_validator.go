package services

import (
	"context"
	"fmt"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
)

// EdgeValidator is the write-path gate for new ingredient edges: the edge's
// unit must resolve to the same quantity kind as its target's reference
// unit, and a material-targeting edge must not close a containment cycle.
type EdgeValidator struct {
	graph     repositories.GraphRepository
	converter *Converter
	guard     *CycleGuard
}

// NewEdgeValidator creates an edge validator over a graph.
func NewEdgeValidator(graph repositories.GraphRepository, converter *Converter) *EdgeValidator {
	return &EdgeValidator{
		graph:     graph,
		converter: converter,
		guard:     NewCycleGuard(graph),
	}
}

// ValidateNewEdge checks an edge before it is persisted. It reports
// ErrInvalidUnit for an unknown edge unit, ErrIncompatibleUnits when the
// edge's kind differs from the target's reference unit kind, ErrNotFound
// for an unknown target, and ErrCircularReference when a material edge
// would close a cycle.
func (v *EdgeValidator) ValidateNewEdge(ctx context.Context, edge *entities.IngredientEdge) error {
	edgeKind, err := v.converter.Classify(edge.Unit)
	if err != nil {
		return fmt.Errorf("edge %s: %w", edge.ID, err)
	}

	var refUnit entities.Unit
	switch edge.Target.Kind {
	case entities.TargetLeafItem:
		leaf, err := v.graph.GetLeafItem(ctx, edge.Target.ItemID)
		if err != nil {
			return err
		}
		refUnit = leaf.MeasurementUnit
	case entities.TargetMaterial:
		material, err := v.graph.GetMaterial(ctx, edge.Target.MaterialID)
		if err != nil {
			return err
		}
		refUnit = material.YieldUnit
	default:
		return fmt.Errorf("edge %s has unknown target kind %d", edge.ID, edge.Target.Kind)
	}

	refKind, err := v.converter.Classify(refUnit)
	if err != nil {
		return fmt.Errorf("target of edge %s: %w", edge.ID, err)
	}
	if edgeKind != refKind {
		return fmt.Errorf("edge %s is %s (%s), target is measured in %s (%s): %w",
			edge.ID, edge.Unit, edgeKind, refUnit, refKind, entities.ErrIncompatibleUnits)
	}

	return v.guard.CheckEdge(ctx, edge)
}
