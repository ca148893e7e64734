package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
	"github.com/tbastin/bomcost/pkg/domain/services"
)

// CostService computes the monetary cost estimate of a variant. It walks the
// same scaled expansion as the consumption resolver but accumulates currency
// instead of quantity.
type CostService struct {
	graph     repositories.GraphRepository
	converter *services.Converter
	log       *slog.Logger
}

// NewCostService creates a cost resolver.
func NewCostService(graph repositories.GraphRepository, converter *services.Converter, log *slog.Logger) *CostService {
	return &CostService{graph: graph, converter: converter, log: log}
}

// Cost computes the rounded cost of a variant: the sum over all reachable
// leaf edges of the scaled amount re-expressed in the leaf's measurement
// unit times its unit price, plus add-on costs (the sub-variant's own
// add-ons stack on the base's), then the base variant's optional other-cost
// adjustment, then price rounding.
func (s *CostService) Cost(ctx context.Context, variantID entities.VariantID) (decimal.Decimal, error) {
	variant, err := loadVariant(ctx, s.graph, variantID)
	if err != nil {
		return decimal.Zero, err
	}
	edges, err := rootEdges(ctx, s.graph, variant)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	err = walkLeafEdges(ctx, s.graph, s.converter, edges, func(edge *entities.IngredientEdge, amount decimal.Decimal) error {
		leaf, err := s.graph.GetLeafItem(ctx, edge.Target.ItemID)
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				return fmt.Errorf("edge %s references item %s: %w", edge.ID, edge.Target.ItemID, entities.ErrNotFound)
			}
			return err
		}
		inItemUnit, err := s.converter.Convert(amount, edge.Unit, leaf.MeasurementUnit)
		if err != nil {
			return fmt.Errorf("edge %s (%s) against item %s (%s): %w",
				edge.ID, edge.Unit, leaf.ID, leaf.MeasurementUnit, entities.ErrInvalidMeasurement)
		}
		total = total.Add(inItemUnit.Mul(leaf.UnitPrice))
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	for _, addOn := range variant.Base.AddOns {
		total = total.Add(addOn.Amount.Mul(addOn.PricePerUnit))
	}
	if variant.Sub != nil {
		for _, addOn := range variant.Sub.AddOns {
			total = total.Add(addOn.Amount.Mul(addOn.PricePerUnit))
		}
	}

	if oc := variant.Base.OtherCost; oc != nil {
		total = total.Mul(oc.CostMultiplier).Add(oc.AdditiveCost)
	}

	rounded := RoundPrice(total)
	s.log.DebugContext(ctx, "resolved cost",
		slog.String("variant", string(variantID)),
		slog.String("raw", total.String()),
		slog.String("rounded", rounded.String()))
	return rounded, nil
}

// RoundPrice applies the catalog's price presentation rule: with
// r = total mod 100, the price becomes ceil(total/100)*100 when r < 50 and
// ceil(total/100)*100 + 50 otherwise. The rule jumps near multiples of 50
// (150 rounds to 250); that is the business rule as stated, kept verbatim.
func RoundPrice(total decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	fifty := decimal.NewFromInt(50)

	remainder := total.Mod(hundred)
	base := total.Div(hundred).Ceil().Mul(hundred)
	if remainder.LessThan(fifty) {
		return base
	}
	return base.Add(fifty)
}
