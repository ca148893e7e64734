package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tbastin/bomcost/pkg/application/dto"
	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
	"github.com/tbastin/bomcost/pkg/domain/services"
)

// StockService checks resolved consumption against on-hand inventory.
type StockService struct {
	graph       repositories.GraphRepository
	converter   *services.Converter
	consumption *ConsumptionService
	log         *slog.Logger
}

// NewStockService creates a stock validator.
func NewStockService(graph repositories.GraphRepository, converter *services.Converter, consumption *ConsumptionService, log *slog.Logger) *StockService {
	return &StockService{graph: graph, converter: converter, consumption: consumption, log: log}
}

// CheckStock resolves the variant's consumption and compares each leaf
// requirement, in the item's own measurement unit, against its on-hand
// quantity. A referenced item that is missing or inactive counts as a
// shortage rather than being skipped; malformed units still abort the whole
// check, exactly as they abort resolution.
func (s *StockService) CheckStock(ctx context.Context, variantID entities.VariantID) (*dto.StockReport, error) {
	consumption, err := s.consumption.Resolve(ctx, variantID)
	if err != nil {
		return nil, err
	}

	report := &dto.StockReport{InStock: true}
	for itemID, req := range consumption {
		leaf, err := s.graph.GetLeafItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				report.InStock = false
				report.Shortages = append(report.Shortages, dto.Shortage{
					ItemID:   itemID,
					Unit:     req.Unit,
					Required: req.Amount,
				})
				continue
			}
			return nil, err
		}

		required, err := s.converter.Convert(req.Amount, req.Unit, leaf.MeasurementUnit)
		if err != nil {
			return nil, fmt.Errorf("requirement for item %s (%s) against its unit (%s): %w",
				itemID, req.Unit, leaf.MeasurementUnit, entities.ErrInvalidMeasurement)
		}
		if required.GreaterThan(leaf.OnHand) {
			report.InStock = false
			report.Shortages = append(report.Shortages, dto.Shortage{
				ItemID:    itemID,
				ItemName:  leaf.Name,
				Unit:      leaf.MeasurementUnit,
				Required:  required,
				Available: leaf.OnHand,
			})
		}
	}

	sort.Slice(report.Shortages, func(i, j int) bool {
		return report.Shortages[i].ItemID < report.Shortages[j].ItemID
	})

	s.log.DebugContext(ctx, "checked stock",
		slog.String("variant", string(variantID)),
		slog.Bool("in_stock", report.InStock),
		slog.Int("shortages", len(report.Shortages)))
	return report, nil
}
