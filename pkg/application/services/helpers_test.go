package services

import (
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/domain/services"
	"github.com/tbastin/bomcost/pkg/infrastructure/repositories/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	repo        *memory.Repository
	consumption *ConsumptionService
	cost        *CostService
	stock       *StockService
	ledger      *LedgerService
}

func newTestEnv(repo *memory.Repository) *testEnv {
	log := discardLogger()
	converter := services.NewConverter()
	consumption := NewConsumptionService(repo, converter, log)
	return &testEnv{
		repo:        repo,
		consumption: consumption,
		cost:        NewCostService(repo, converter, log),
		stock:       NewStockService(repo, converter, consumption, log),
		ledger:      NewLedgerService(repo, repo, converter, consumption, log),
	}
}

func gramItem(id entities.ItemID, name string, onHand, price string) entities.LeafItem {
	return entities.LeafItem{
		ID:              id,
		Name:            name,
		OnHand:          dec(onHand),
		UnitPrice:       dec(price),
		MeasurementUnit: entities.UnitGram,
		Active:          true,
	}
}

func edge(id, owner string, target entities.IngredientTarget, amount string, unit entities.Unit) entities.IngredientEdge {
	return entities.IngredientEdge{
		ID:      id,
		OwnerID: owner,
		Target:  target,
		Amount:  dec(amount),
		Unit:    unit,
	}
}

// bakeryFixture is the canonical scenario used across the service tests:
// material "icing" yields 1000 g from 800 g sugar and 200 g butter, and the
// "cake" variant requires 250 g of icing, so a cake consumes 200 g sugar and
// 50 g butter.
func bakeryFixture() *memory.Repository {
	repo := memory.NewRepository()

	repo.AddLeafItem(gramItem("sugar", "Caster Sugar", "1000", "2"))
	repo.AddLeafItem(gramItem("butter", "Butter", "100", "5"))

	repo.AddMaterial(entities.Material{
		ID:          "icing",
		Name:        "Icing",
		YieldAmount: dec("1000"),
		YieldUnit:   entities.UnitGram,
		Active:      true,
	})
	repo.AddEdge(edge("icing-sugar", "icing", entities.LeafTarget("sugar"), "800", entities.UnitGram))
	repo.AddEdge(edge("icing-butter", "icing", entities.LeafTarget("butter"), "200", entities.UnitGram))

	repo.AddVariant(entities.Variant{ID: "cake", Name: "Cake", Active: true})
	repo.AddEdge(edge("cake-icing", "cake", entities.MaterialTarget("icing"), "250", entities.UnitGram))

	return repo
}
