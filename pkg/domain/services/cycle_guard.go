package services

import (
	"context"
	"fmt"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
)

// CycleGuard validates that the material containment graph stays acyclic.
// It is consulted before any material-targeting ingredient edge is
// persisted; it is the sole gate for that invariant.
type CycleGuard struct {
	edges repositories.EdgeReader
}

// NewCycleGuard creates a cycle guard over an edge source.
func NewCycleGuard(edges repositories.EdgeReader) *CycleGuard {
	return &CycleGuard{edges: edges}
}

// WouldCreateCycle reports whether giving ownerID an edge onto candidateID
// would close a containment cycle. It walks breadth-first from the
// candidate, following only material-to-material edges; reaching the owner
// means the candidate already contains it, directly or transitively. Each
// material is visited at most once, so the walk terminates on any graph.
func (g *CycleGuard) WouldCreateCycle(ctx context.Context, ownerID, candidateID entities.MaterialID) (bool, error) {
	visited := map[entities.MaterialID]bool{candidateID: true}
	queue := []entities.MaterialID{candidateID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == ownerID {
			return true, nil
		}

		edges, err := g.edges.EdgesOf(ctx, string(current))
		if err != nil {
			return false, fmt.Errorf("failed to load edges of material %s: %w", current, err)
		}
		for _, edge := range edges {
			if edge.Target.Kind != entities.TargetMaterial {
				continue
			}
			next := edge.Target.MaterialID
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return false, nil
}

// CheckEdge rejects a material-targeting edge that would close a cycle.
// Edges onto leaf items are always cycle-safe.
func (g *CycleGuard) CheckEdge(ctx context.Context, edge *entities.IngredientEdge) error {
	if edge.Target.Kind != entities.TargetMaterial {
		return nil
	}
	cyclic, err := g.WouldCreateCycle(ctx, entities.MaterialID(edge.OwnerID), edge.Target.MaterialID)
	if err != nil {
		return err
	}
	if cyclic {
		return fmt.Errorf("edge %s: material %s already contains %s: %w",
			edge.ID, edge.Target.MaterialID, edge.OwnerID, entities.ErrCircularReference)
	}
	return nil
}
