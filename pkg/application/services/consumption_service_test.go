package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/application/dto"
	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/infrastructure/repositories/memory"
)

func requireAmount(t *testing.T, result dto.ConsumptionMap, id entities.ItemID, amount string, unit entities.Unit) {
	t.Helper()
	req, ok := result[id]
	if !ok {
		t.Fatalf("expected %s in result, got %v", id, result)
	}
	if req.Unit != unit {
		t.Errorf("%s unit = %s, want %s", id, req.Unit, unit)
	}
	if !req.Amount.Equal(dec(amount)) {
		t.Errorf("%s amount = %s, want %s", id, req.Amount, amount)
	}
}

func TestConsumptionService_Resolve_ScalesNestedMaterial(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(bakeryFixture())

	result, err := env.consumption.Resolve(ctx, "cake")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 leaf items, got %d", len(result))
	}
	// 250 g of a 1000 g yield: every icing ingredient scales by 0.25.
	requireAmount(t, result, "sugar", "200", entities.UnitGram)
	requireAmount(t, result, "butter", "50", entities.UnitGram)
}

func TestConsumptionService_Resolve_TwoLevelNesting(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	repo.AddLeafItem(gramItem("flour", "Flour", "5000", "0.06"))

	// filling yields 500 g from 250 g icing and 250 g flour; the torte
	// requires 100 g of filling, so icing contributes at 0.2*0.25.
	repo.AddMaterial(entities.Material{
		ID: "filling", Name: "Filling",
		YieldAmount: dec("500"), YieldUnit: entities.UnitGram, Active: true,
	})
	repo.AddEdge(edge("filling-icing", "filling", entities.MaterialTarget("icing"), "250", entities.UnitGram))
	repo.AddEdge(edge("filling-flour", "filling", entities.LeafTarget("flour"), "250", entities.UnitGram))
	repo.AddVariant(entities.Variant{ID: "torte", Name: "Torte", Active: true})
	repo.AddEdge(edge("torte-filling", "torte", entities.MaterialTarget("filling"), "100", entities.UnitGram))

	result, err := newTestEnv(repo).consumption.Resolve(ctx, "torte")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	requireAmount(t, result, "flour", "50", entities.UnitGram)
	requireAmount(t, result, "sugar", "40", entities.UnitGram)
	requireAmount(t, result, "butter", "10", entities.UnitGram)
}

func TestConsumptionService_Resolve_YieldUnitConversion(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()

	// The glaze edge is in kilograms while the material yield is declared in
	// grams; 0.5 kg of a 1000 g yield is a 0.5 scale.
	repo.AddVariant(entities.Variant{ID: "glazed", Name: "Glazed Cake", Active: true})
	repo.AddEdge(edge("glazed-icing", "glazed", entities.MaterialTarget("icing"), "0.5", entities.UnitKilogram))

	result, err := newTestEnv(repo).consumption.Resolve(ctx, "glazed")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	requireAmount(t, result, "sugar", "400", entities.UnitGram)
	requireAmount(t, result, "butter", "100", entities.UnitGram)
}

func TestConsumptionService_Resolve_AggregatesAcrossUnits(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()

	// Two direct references to the same leaf in different mass units; the
	// first edge's unit becomes the leaf's canonical accumulation unit.
	repo.AddVariant(entities.Variant{ID: "syrup_cake", Name: "Syrup Cake", Active: true})
	repo.AddEdge(edge("sc-sugar-g", "syrup_cake", entities.LeafTarget("sugar"), "500", entities.UnitGram))
	repo.AddEdge(edge("sc-sugar-kg", "syrup_cake", entities.LeafTarget("sugar"), "0.25", entities.UnitKilogram))

	result, err := newTestEnv(repo).consumption.Resolve(ctx, "syrup_cake")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	requireAmount(t, result, "sugar", "750", entities.UnitGram)
}

func TestConsumptionService_Resolve_SubVariantAddsToBase(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	repo.AddSubVariant(entities.SubVariant{ID: "cake_deluxe", ParentID: "cake", Name: "Deluxe"})
	repo.AddEdge(edge("deluxe-butter", "cake_deluxe", entities.LeafTarget("butter"), "25", entities.UnitGram))

	env := newTestEnv(repo)

	deluxe, err := env.consumption.Resolve(ctx, "cake_deluxe")
	if err != nil {
		t.Fatalf("Resolve(cake_deluxe) failed: %v", err)
	}
	requireAmount(t, deluxe, "sugar", "200", entities.UnitGram)
	requireAmount(t, deluxe, "butter", "75", entities.UnitGram)

	// The base variant is unaffected by its sub-variants.
	base, err := env.consumption.Resolve(ctx, "cake")
	if err != nil {
		t.Fatalf("Resolve(cake) failed: %v", err)
	}
	requireAmount(t, base, "butter", "50", entities.UnitGram)
}

func TestConsumptionService_Resolve_CountKind(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	repo.AddLeafItem(entities.LeafItem{
		ID: "eggs", Name: "Eggs",
		OnHand: dec("30"), UnitPrice: dec("40"),
		MeasurementUnit: entities.UnitPiece, Active: true,
	})
	repo.AddEdge(edge("cake-eggs", "cake", entities.LeafTarget("eggs"), "3", entities.UnitPiece))

	result, err := newTestEnv(repo).consumption.Resolve(ctx, "cake")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	requireAmount(t, result, "eggs", "3", entities.UnitPiece)
	if result["eggs"].Kind != entities.Count {
		t.Errorf("eggs kind = %s, want Count", result["eggs"].Kind)
	}
}

func TestConsumptionService_Resolve_UnknownVariant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(bakeryFixture())

	_, err := env.consumption.Resolve(ctx, "croissant")
	if !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConsumptionService_Resolve_MissingMaterialAborts(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	repo.AddEdge(edge("cake-ghost", "cake", entities.MaterialTarget("ganache"), "100", entities.UnitGram))

	_, err := newTestEnv(repo).consumption.Resolve(ctx, "cake")
	if !errors.Is(err, entities.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing material, got %v", err)
	}
}

func TestConsumptionService_Resolve_BadEdgeUnitAborts(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	repo.AddEdge(edge("cake-mystery", "cake", entities.LeafTarget("sugar"), "1", "Handful"))

	_, err := newTestEnv(repo).consumption.Resolve(ctx, "cake")
	if !errors.Is(err, entities.ErrInvalidMeasurement) {
		t.Errorf("expected ErrInvalidMeasurement, got %v", err)
	}
}

func TestConsumptionService_Resolve_CrossKindLeafReferenceAborts(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	// sugar is referenced by mass through icing; a volume reference to the
	// same leaf is inconsistent data, not a partial result.
	repo.AddEdge(edge("cake-sugar-vol", "cake", entities.LeafTarget("sugar"), "1", entities.UnitLiter))

	_, err := newTestEnv(repo).consumption.Resolve(ctx, "cake")
	if !errors.Is(err, entities.ErrInvalidMeasurement) {
		t.Errorf("expected ErrInvalidMeasurement, got %v", err)
	}
}

func TestConsumptionService_Resolve_MismatchedYieldUnitAborts(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	repo.AddMaterial(entities.Material{
		ID: "custard", Name: "Custard",
		YieldAmount: dec("1"), YieldUnit: entities.UnitLiter, Active: true,
	})
	repo.AddEdge(edge("cake-custard", "cake", entities.MaterialTarget("custard"), "100", entities.UnitGram))

	_, err := newTestEnv(repo).consumption.Resolve(ctx, "cake")
	if !errors.Is(err, entities.ErrInvalidMeasurement) {
		t.Errorf("expected ErrInvalidMeasurement, got %v", err)
	}
}

func TestConsumptionService_Resolve_ZeroYieldAborts(t *testing.T) {
	ctx := context.Background()
	repo := bakeryFixture()
	// NewMaterial rejects this, but a stored row can bypass the constructor.
	repo.AddMaterial(entities.Material{
		ID: "glaze", Name: "Glaze",
		YieldAmount: dec("0"), YieldUnit: entities.UnitGram, Active: true,
	})
	repo.AddEdge(edge("cake-glaze", "cake", entities.MaterialTarget("glaze"), "100", entities.UnitGram))

	_, err := newTestEnv(repo).consumption.Resolve(ctx, "cake")
	if !errors.Is(err, entities.ErrInvalidMeasurement) {
		t.Errorf("expected ErrInvalidMeasurement for zero yield, got %v", err)
	}
}

// Resolution results must not depend on the order edges are stored in; the
// fixture is rebuilt with every permutation of the variant's edges and each
// run has to agree with the first once amounts are normalized to a common
// unit.
func TestConsumptionService_Resolve_OrderIndependent(t *testing.T) {
	ctx := context.Background()

	variantEdges := []entities.IngredientEdge{
		edge("v-icing", "mix", entities.MaterialTarget("icing"), "250", entities.UnitGram),
		edge("v-sugar-kg", "mix", entities.LeafTarget("sugar"), "0.1", entities.UnitKilogram),
		edge("v-butter", "mix", entities.LeafTarget("butter"), "20", entities.UnitGram),
	}

	build := func(order []int) *memory.Repository {
		repo := bakeryFixture()
		repo.AddVariant(entities.Variant{ID: "mix", Name: "Mix", Active: true})
		for _, i := range order {
			repo.AddEdge(variantEdges[i])
		}
		return repo
	}

	normalize := func(t *testing.T, repo *memory.Repository, result dto.ConsumptionMap) map[entities.ItemID]decimal.Decimal {
		t.Helper()
		env := newTestEnv(repo)
		out := make(map[entities.ItemID]decimal.Decimal, len(result))
		for id, req := range result {
			leaf, err := repo.GetLeafItem(ctx, id)
			if err != nil {
				t.Fatalf("leaf %s: %v", id, err)
			}
			converted, err := env.consumption.converter.Convert(req.Amount, req.Unit, leaf.MeasurementUnit)
			if err != nil {
				t.Fatalf("normalize %s: %v", id, err)
			}
			out[id] = converted
		}
		return out
	}

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	var reference map[entities.ItemID]decimal.Decimal
	for _, perm := range permutations {
		repo := build(perm)
		result, err := newTestEnv(repo).consumption.Resolve(ctx, "mix")
		if err != nil {
			t.Fatalf("Resolve with order %v failed: %v", perm, err)
		}
		normalized := normalize(t, repo, result)

		if reference == nil {
			reference = normalized
			continue
		}
		if len(normalized) != len(reference) {
			t.Fatalf("order %v: %d leaf items, want %d", perm, len(normalized), len(reference))
		}
		for id, want := range reference {
			if got, ok := normalized[id]; !ok || !got.Equal(want) {
				t.Errorf("order %v: %s = %s, want %s", perm, id, got, want)
			}
		}
	}
}
