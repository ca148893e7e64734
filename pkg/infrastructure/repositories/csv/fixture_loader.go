package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/tbastin/bomcost/pkg/domain/entities"
	"github.com/tbastin/bomcost/pkg/infrastructure/repositories/memory"
)

// Loader reads an ingredient graph from CSV fixture files. It backs the
// CLI's fixture mode and is handy for seeding demos without a database.
type Loader struct{}

// NewLoader creates a CSV loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads a fixture directory into a fresh in-memory repository.
// items.csv, materials.csv, variants.csv, and edges.csv are required;
// sub_variants.csv and add_ons.csv are optional.
func (l *Loader) LoadScenario(dir string) (*memory.Repository, error) {
	repo := memory.NewRepository()

	items, err := l.LoadLeafItems(filepath.Join(dir, "items.csv"))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		repo.AddLeafItem(item)
	}

	materials, err := l.LoadMaterials(filepath.Join(dir, "materials.csv"))
	if err != nil {
		return nil, err
	}
	for _, material := range materials {
		repo.AddMaterial(material)
	}

	variants, err := l.LoadVariants(filepath.Join(dir, "variants.csv"))
	if err != nil {
		return nil, err
	}

	subVariants, err := l.LoadSubVariants(filepath.Join(dir, "sub_variants.csv"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	addOns, err := l.LoadAddOns(filepath.Join(dir, "add_ons.csv"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for i := range variants {
		variants[i].AddOns = addOns[string(variants[i].ID)]
		repo.AddVariant(variants[i])
	}
	for i := range subVariants {
		subVariants[i].AddOns = addOns[string(subVariants[i].ID)]
		repo.AddSubVariant(subVariants[i])
	}

	edges, err := l.LoadEdges(filepath.Join(dir, "edges.csv"))
	if err != nil {
		return nil, err
	}
	for _, edge := range edges {
		repo.AddEdge(edge)
	}

	return repo, nil
}

// LoadLeafItems loads leaf items from a CSV file.
func (l *Loader) LoadLeafItems(filename string) ([]entities.LeafItem, error) {
	header := []string{"id", "name", "on_hand", "unit_price", "measurement_unit"}
	records, err := readRows(filename, header)
	if err != nil {
		return nil, err
	}

	var items []entities.LeafItem
	for i, record := range records {
		onHand, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: bad on_hand %q: %w", i+2, record[2], err)
		}
		price, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: bad unit_price %q: %w", i+2, record[3], err)
		}
		items = append(items, entities.LeafItem{
			ID:              entities.ItemID(record[0]),
			Name:            record[1],
			OnHand:          onHand,
			UnitPrice:       price,
			MeasurementUnit: entities.Unit(record[4]),
			Active:          true,
		})
	}
	return items, nil
}

// LoadMaterials loads materials from a CSV file.
func (l *Loader) LoadMaterials(filename string) ([]entities.Material, error) {
	header := []string{"id", "name", "yield_amount", "yield_unit"}
	records, err := readRows(filename, header)
	if err != nil {
		return nil, err
	}

	var materials []entities.Material
	for i, record := range records {
		yield, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("materials CSV row %d: bad yield_amount %q: %w", i+2, record[2], err)
		}
		material, err := entities.NewMaterial(
			entities.MaterialID(record[0]), record[1], yield, entities.Unit(record[3]))
		if err != nil {
			return nil, fmt.Errorf("materials CSV row %d: %w", i+2, err)
		}
		materials = append(materials, *material)
	}
	return materials, nil
}

// LoadVariants loads base variants from a CSV file. Empty additive_cost and
// cost_multiplier mean the variant has no other-cost adjustment.
func (l *Loader) LoadVariants(filename string) ([]entities.Variant, error) {
	header := []string{"id", "name", "additive_cost", "cost_multiplier"}
	records, err := readRows(filename, header)
	if err != nil {
		return nil, err
	}

	var variants []entities.Variant
	for i, record := range records {
		variant := entities.Variant{
			ID:     entities.VariantID(record[0]),
			Name:   record[1],
			Active: true,
		}
		if record[2] != "" || record[3] != "" {
			oc := &entities.OtherCost{
				AdditiveCost:   decimal.Zero,
				CostMultiplier: decimal.NewFromInt(1),
			}
			if record[2] != "" {
				oc.AdditiveCost, err = decimal.NewFromString(record[2])
				if err != nil {
					return nil, fmt.Errorf("variants CSV row %d: bad additive_cost %q: %w", i+2, record[2], err)
				}
			}
			if record[3] != "" {
				oc.CostMultiplier, err = decimal.NewFromString(record[3])
				if err != nil {
					return nil, fmt.Errorf("variants CSV row %d: bad cost_multiplier %q: %w", i+2, record[3], err)
				}
			}
			variant.OtherCost = oc
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

// LoadSubVariants loads sub-variants from a CSV file.
func (l *Loader) LoadSubVariants(filename string) ([]entities.SubVariant, error) {
	header := []string{"id", "parent_id", "name"}
	records, err := readRows(filename, header)
	if err != nil {
		return nil, err
	}

	var subVariants []entities.SubVariant
	for _, record := range records {
		subVariants = append(subVariants, entities.SubVariant{
			ID:       entities.VariantID(record[0]),
			ParentID: entities.VariantID(record[1]),
			Name:     record[2],
		})
	}
	return subVariants, nil
}

// LoadAddOns loads add-ons from a CSV file, grouped by owning variant or
// sub-variant id.
func (l *Loader) LoadAddOns(filename string) (map[string][]entities.AddOn, error) {
	header := []string{"id", "owner_id", "name", "amount", "price_per_unit"}
	records, err := readRows(filename, header)
	if err != nil {
		return nil, err
	}

	addOns := make(map[string][]entities.AddOn)
	for i, record := range records {
		amount, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("add_ons CSV row %d: bad amount %q: %w", i+2, record[3], err)
		}
		price, err := decimal.NewFromString(record[4])
		if err != nil {
			return nil, fmt.Errorf("add_ons CSV row %d: bad price_per_unit %q: %w", i+2, record[4], err)
		}
		addOns[record[1]] = append(addOns[record[1]], entities.AddOn{
			ID:           record[0],
			Name:         record[2],
			Amount:       amount,
			PricePerUnit: price,
		})
	}
	return addOns, nil
}

// LoadEdges loads ingredient edges from a CSV file.
func (l *Loader) LoadEdges(filename string) ([]entities.IngredientEdge, error) {
	header := []string{"id", "owner_id", "target_kind", "target_id", "amount", "unit"}
	records, err := readRows(filename, header)
	if err != nil {
		return nil, err
	}

	var edges []entities.IngredientEdge
	for i, record := range records {
		var target entities.IngredientTarget
		switch record[2] {
		case "leaf_item":
			target = entities.LeafTarget(entities.ItemID(record[3]))
		case "material":
			target = entities.MaterialTarget(entities.MaterialID(record[3]))
		default:
			return nil, fmt.Errorf("edges CSV row %d: unknown target_kind %q", i+2, record[2])
		}
		amount, err := decimal.NewFromString(record[4])
		if err != nil {
			return nil, fmt.Errorf("edges CSV row %d: bad amount %q: %w", i+2, record[4], err)
		}
		edge, err := entities.NewIngredientEdge(record[0], record[1], target, amount, entities.Unit(record[5]))
		if err != nil {
			return nil, fmt.Errorf("edges CSV row %d: %w", i+2, err)
		}
		edges = append(edges, *edge)
	}
	return edges, nil
}

// readRows reads a CSV file, validates its header, and returns the data
// rows. Missing files propagate os.IsNotExist so callers can treat some
// fixtures as optional.
func readRows(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s must have a header row", filename)
	}

	header := records[0]
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, header)
	}
	for i := range header {
		if header[i] != expectedHeader[i] {
			return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, header)
		}
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}
