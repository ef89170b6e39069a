// Package types defines the pricing data model shared by every core package.
package types

import "github.com/shopspring/decimal"

// Bundle is a wholesale data package offered by the catalog.
// Bundles are immutable once constructed; the catalog collaborator
// supplies them already filtered for the request at hand.
type Bundle struct {
	// ID uniquely identifies the bundle in the catalog
	ID string `json:"id"`

	// Name is the display name
	Name string `json:"name"`

	// BundleGroup tags the wholesale product family the bundle belongs to
	BundleGroup string `json:"bundle_group"`

	// Duration is the validity period in days
	Duration int `json:"duration"`

	// Cost is the wholesale cost
	Cost decimal.Decimal `json:"cost"`

	// Country is the ISO country code the bundle covers
	Country string `json:"country"`

	// Region is the coverage region (e.g. "Europe")
	Region string `json:"region"`

	// IsUnlimited indicates an unlimited-data bundle
	IsUnlimited bool `json:"is_unlimited"`

	// DataAmount is the data allowance in MB (ignored when IsUnlimited)
	DataAmount int64 `json:"data_amount"`
}

// BundleSummary is the bundle projection embedded in a PricingCalculation.
type BundleSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	BundleGroup string          `json:"bundle_group"`
	Duration    int             `json:"duration"`
	Cost        decimal.Decimal `json:"cost"`
	Country     string          `json:"country"`
	Region      string          `json:"region"`
	IsUnlimited bool            `json:"is_unlimited"`
	DataAmount  int64           `json:"data_amount"`
}

// Summary returns the calculation-facing projection of the bundle.
func (b Bundle) Summary() BundleSummary {
	return BundleSummary{
		ID:          b.ID,
		Name:        b.Name,
		BundleGroup: b.BundleGroup,
		Duration:    b.Duration,
		Cost:        b.Cost,
		Country:     b.Country,
		Region:      b.Region,
		IsUnlimited: b.IsUnlimited,
		DataAmount:  b.DataAmount,
	}
}
