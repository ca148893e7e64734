package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/application/dto"
	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
	"github.com/tbastin/bomcost/pkg/domain/services"
)

// ConsumptionService flattens a variant's ingredient graph into aggregated
// leaf-item consumption.
type ConsumptionService struct {
	graph     repositories.GraphRepository
	converter *services.Converter
	log       *slog.Logger
}

// NewConsumptionService creates a consumption resolver.
func NewConsumptionService(graph repositories.GraphRepository, converter *services.Converter, log *slog.Logger) *ConsumptionService {
	return &ConsumptionService{graph: graph, converter: converter, log: log}
}

// Resolve flattens the variant's recipe graph into a map of leaf item id to
// aggregated required amount. Nested materials are expanded proportionally
// to the fraction of their declared yield the parent requires, at any
// nesting depth. Each leaf accumulates in one canonical unit: the unit of
// the first edge that referenced it. The result is a pure function of the
// graph at call time; aggregation is a sum, so it does not depend on the
// order edges are processed in.
func (s *ConsumptionService) Resolve(ctx context.Context, variantID entities.VariantID) (dto.ConsumptionMap, error) {
	variant, err := loadVariant(ctx, s.graph, variantID)
	if err != nil {
		return nil, err
	}
	edges, err := rootEdges(ctx, s.graph, variant)
	if err != nil {
		return nil, err
	}

	result := make(dto.ConsumptionMap)
	err = walkLeafEdges(ctx, s.graph, s.converter, edges, func(edge *entities.IngredientEdge, amount decimal.Decimal) error {
		itemID := edge.Target.ItemID

		existing, seen := result[itemID]
		if !seen {
			kind, err := s.converter.Classify(edge.Unit)
			if err != nil {
				return fmt.Errorf("edge %s has unit %q: %w", edge.ID, edge.Unit, entities.ErrInvalidMeasurement)
			}
			result[itemID] = dto.Requirement{Kind: kind, Unit: edge.Unit, Amount: amount}
			return nil
		}

		converted, err := s.converter.Convert(amount, edge.Unit, existing.Unit)
		if err != nil {
			// The same leaf is referenced across quantity kinds; the stored
			// graph is inconsistent.
			return fmt.Errorf("edge %s (%s) conflicts with prior references to item %s (%s): %w",
				edge.ID, edge.Unit, itemID, existing.Unit, entities.ErrInvalidMeasurement)
		}
		existing.Amount = existing.Amount.Add(converted)
		result[itemID] = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "resolved consumption",
		slog.String("variant", string(variantID)),
		slog.Int("leaf_items", len(result)))
	return result, nil
}
