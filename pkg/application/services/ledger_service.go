package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/repositories"
	"github.com/tbastin/bomcost/pkg/domain/services"
)

// LedgerService applies resolved consumption to inventory, at most once per
// fulfillment key, and records the immutable audit trail.
type LedgerService struct {
	graph       repositories.GraphRepository
	ledger      repositories.LedgerRepository
	converter   *services.Converter
	consumption *ConsumptionService
	log         *slog.Logger
}

// NewLedgerService creates a subtraction ledger.
func NewLedgerService(
	graph repositories.GraphRepository,
	ledger repositories.LedgerRepository,
	converter *services.Converter,
	consumption *ConsumptionService,
	log *slog.Logger,
) *LedgerService {
	return &LedgerService{graph: graph, ledger: ledger, converter: converter, consumption: consumption, log: log}
}

// Subtract resolves the variant's consumption, decrements each leaf item's
// on-hand quantity by the required amount in the item's own measurement
// unit, and writes a subtraction record linked to fulfillmentKey. A key that
// was already applied fails with ErrAlreadySubtracted and no effect; the
// repository enforces this even when two calls race. Quantities may go
// negative: over-subtraction is reported ahead of time by the stock check,
// not blocked here. The decrements, the record, and the link commit as one
// unit.
func (s *LedgerService) Subtract(ctx context.Context, variantID entities.VariantID, fulfillmentKey string) (*entities.SubtractionRecord, error) {
	if fulfillmentKey == "" {
		return nil, fmt.Errorf("fulfillment key cannot be empty")
	}

	// Fast-path rejection before any resolution work. The authoritative
	// check is the repository's unique link constraint at commit time.
	if _, err := s.ledger.GetFulfillmentLink(ctx, fulfillmentKey); err == nil {
		return nil, fmt.Errorf("fulfillment %s: %w", fulfillmentKey, entities.ErrAlreadySubtracted)
	} else if !errors.Is(err, entities.ErrNotFound) {
		return nil, err
	}

	consumption, err := s.consumption.Resolve(ctx, variantID)
	if err != nil {
		return nil, err
	}

	record := &entities.SubtractionRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Entries:   make([]entities.SubtractionEntry, 0, len(consumption)),
	}
	for itemID, req := range consumption {
		leaf, err := s.graph.GetLeafItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				return nil, fmt.Errorf("item %s referenced by variant %s: %w", itemID, variantID, entities.ErrNotFound)
			}
			return nil, err
		}
		amount, err := s.converter.Convert(req.Amount, req.Unit, leaf.MeasurementUnit)
		if err != nil {
			return nil, fmt.Errorf("requirement for item %s (%s) against its unit (%s): %w",
				itemID, req.Unit, leaf.MeasurementUnit, entities.ErrInvalidMeasurement)
		}
		record.Entries = append(record.Entries, entities.SubtractionEntry{
			ItemID:     itemID,
			ItemName:   leaf.Name,
			Unit:       leaf.MeasurementUnit,
			UnitPrice:  leaf.UnitPrice,
			Subtracted: amount,
		})
	}
	sort.Slice(record.Entries, func(i, j int) bool {
		return record.Entries[i].ItemID < record.Entries[j].ItemID
	})

	applied, err := s.ledger.ApplySubtraction(ctx, fulfillmentKey, record)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "applied subtraction",
		slog.String("variant", string(variantID)),
		slog.String("fulfillment_key", fulfillmentKey),
		slog.String("record", applied.ID),
		slog.Int("items", len(applied.Entries)))
	return applied, nil
}
