package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaterialID identifies a reusable sub-recipe.
type MaterialID string

// Material is a named, reusable sub-recipe. Its ingredient edges describe
// what producing YieldAmount of YieldUnit consumes; a parent requiring some
// other amount of the material scales those edges proportionally.
type Material struct {
	ID          MaterialID
	Name        string
	YieldAmount decimal.Decimal
	YieldUnit   Unit
	Active      bool
}

// NewMaterial creates a validated Material.
func NewMaterial(id MaterialID, name string, yieldAmount decimal.Decimal, yieldUnit Unit) (*Material, error) {
	if id == "" {
		return nil, fmt.Errorf("material id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("material name cannot be empty")
	}
	if !yieldAmount.IsPositive() {
		return nil, fmt.Errorf("material yield must be positive, got %s", yieldAmount)
	}
	return &Material{
		ID:          id,
		Name:        name,
		YieldAmount: yieldAmount,
		YieldUnit:   yieldUnit,
		Active:      true,
	}, nil
}
