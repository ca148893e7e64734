package entities

import "github.com/shopspring/decimal"

// VariantID identifies a sellable product configuration, base or sub.
type VariantID string

// AddOn is a priced extra attached to a variant: Amount units at
// PricePerUnit each, added after leaf costs are summed.
type AddOn struct {
	ID           string
	Name         string
	Amount       decimal.Decimal
	PricePerUnit decimal.Decimal
}

// OtherCost is an optional per-base-variant cost adjustment applied after
// leaf and add-on summation: total = total*CostMultiplier + AdditiveCost.
type OtherCost struct {
	AdditiveCost   decimal.Decimal
	CostMultiplier decimal.Decimal
}

// Variant is a base product configuration: its own ingredient edges, add-ons,
// and an optional other-cost adjustment.
type Variant struct {
	ID        VariantID
	Name      string
	Active    bool
	AddOns    []AddOn
	OtherCost *OtherCost
}

// SubVariant is a named refinement of a base variant. Its ingredient edges
// and add-ons add to the parent's resolved totals; they never replace them.
type SubVariant struct {
	ID       VariantID
	ParentID VariantID
	Name     string
	AddOns   []AddOn
}
