package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
)

func gram(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestRepository_GetLeafItem_InactiveIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	repo.AddLeafItem(entities.LeafItem{
		ID: "sugar", Name: "Sugar", OnHand: gram(100),
		MeasurementUnit: entities.UnitGram, Active: false,
	})

	_, err := repo.GetLeafItem(ctx, "sugar")
	if !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("expected ErrNotFound for inactive item, got %v", err)
	}
}

func TestRepository_EdgesOf_InsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	for _, id := range []string{"e1", "e2", "e3"} {
		repo.AddEdge(entities.IngredientEdge{
			ID: id, OwnerID: "cake",
			Target: entities.LeafTarget("sugar"),
			Amount: gram(1), Unit: entities.UnitGram,
		})
	}

	edges, err := repo.EdgesOf(ctx, "cake")
	if err != nil {
		t.Fatalf("EdgesOf failed: %v", err)
	}
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(edges))
	}
	for i, want := range []string{"e1", "e2", "e3"} {
		if edges[i].ID != want {
			t.Errorf("edge %d = %s, want %s", i, edges[i].ID, want)
		}
	}

	unknown, err := repo.EdgesOf(ctx, "nothing")
	if err != nil || len(unknown) != 0 {
		t.Errorf("unknown owner: edges=%v err=%v, want empty and nil", unknown, err)
	}
}

func TestRepository_ApplySubtraction_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	repo.AddLeafItem(entities.LeafItem{
		ID: "sugar", Name: "Sugar", OnHand: gram(100),
		MeasurementUnit: entities.UnitGram, Active: true,
	})

	record := &entities.SubtractionRecord{
		ID: "rec-1", CreatedAt: time.Now().UTC(),
		Entries: []entities.SubtractionEntry{
			{ItemID: "sugar", ItemName: "Sugar", Unit: entities.UnitGram, Subtracted: gram(30)},
			{ItemID: "ghost", ItemName: "Ghost", Unit: entities.UnitGram, Subtracted: gram(1)},
		},
	}
	_, err := repo.ApplySubtraction(ctx, "key-1", record)
	if !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// The valid entry must not have been applied.
	item, err := repo.GetLeafItem(ctx, "sugar")
	if err != nil {
		t.Fatalf("GetLeafItem failed: %v", err)
	}
	if !item.OnHand.Equal(gram(100)) {
		t.Errorf("sugar on hand = %s, want 100", item.OnHand)
	}
	if _, err := repo.GetFulfillmentLink(ctx, "key-1"); !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("expected no link, got %v", err)
	}
}

func TestRepository_ApplySubtraction_UnitMismatchRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	repo.AddLeafItem(entities.LeafItem{
		ID: "milk", Name: "Milk", OnHand: gram(100),
		MeasurementUnit: entities.UnitMilliliter, Active: true,
	})

	record := &entities.SubtractionRecord{
		ID: "rec-1", CreatedAt: time.Now().UTC(),
		Entries: []entities.SubtractionEntry{
			{ItemID: "milk", ItemName: "Milk", Unit: entities.UnitGram, Subtracted: gram(10)},
		},
	}
	_, err := repo.ApplySubtraction(ctx, "key-1", record)
	if !errors.Is(err, entities.ErrInvalidMeasurement) {
		t.Errorf("expected ErrInvalidMeasurement, got %v", err)
	}
}

func TestRepository_ApplySubtraction_SetsRemaining(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	repo.AddLeafItem(entities.LeafItem{
		ID: "sugar", Name: "Sugar", OnHand: gram(100),
		UnitPrice: gram(2), MeasurementUnit: entities.UnitGram, Active: true,
	})

	record := &entities.SubtractionRecord{
		ID: "rec-1", CreatedAt: time.Now().UTC(),
		Entries: []entities.SubtractionEntry{
			{ItemID: "sugar", ItemName: "Sugar", Unit: entities.UnitGram, UnitPrice: gram(2), Subtracted: gram(30)},
		},
	}
	applied, err := repo.ApplySubtraction(ctx, "key-1", record)
	if err != nil {
		t.Fatalf("ApplySubtraction failed: %v", err)
	}
	if !applied.Entries[0].Remaining.Equal(gram(70)) {
		t.Errorf("remaining = %s, want 70", applied.Entries[0].Remaining)
	}

	stored, err := repo.GetSubtractionRecord(ctx, "rec-1")
	if err != nil {
		t.Fatalf("GetSubtractionRecord failed: %v", err)
	}
	if !stored.Entries[0].Remaining.Equal(gram(70)) {
		t.Errorf("stored remaining = %s, want 70", stored.Entries[0].Remaining)
	}
}
