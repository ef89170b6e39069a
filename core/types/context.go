package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerInfo carries the optional customer attributes a business rule
// may condition on.
type CustomerInfo struct {
	// IsNew marks a first-time customer
	IsNew bool `json:"is_new"`

	// Segment is an opaque customer segment tag
	Segment string `json:"segment,omitempty"`
}

// PricingContext is the input to one pricing calculation. It is built
// once per request; the engine mutates it only to attach the selected
// bundle. The denormalized Country/Region/BundleGroup/Duration fields
// mirror the selected bundle for single-segment condition lookups.
type PricingContext struct {
	// AvailableBundles are the candidate bundles, already filtered by
	// the catalog collaborator for the request's country and group
	AvailableBundles []Bundle `json:"available_bundles"`

	// RequestedDuration is the number of days the customer asked for
	RequestedDuration int `json:"requested_duration"`

	// PaymentMethod is the customer's payment method (e.g. "card")
	PaymentMethod string `json:"payment_method"`

	// Customer holds optional customer attributes
	Customer *CustomerInfo `json:"customer,omitempty"`

	// CurrentDate is the evaluation timestamp; zero means wall clock.
	// Tests inject a fixed date here.
	CurrentDate time.Time `json:"current_date,omitempty"`

	// Bundle is the selected bundle, attached during bundle selection
	Bundle *Bundle `json:"bundle,omitempty"`

	// Denormalized helper fields, populated alongside Bundle
	Country     string `json:"country,omitempty"`
	Region      string `json:"region,omitempty"`
	BundleGroup string `json:"bundle_group,omitempty"`
	Duration    int    `json:"duration,omitempty"`
}

// Now returns the context's evaluation time, defaulting to wall clock.
func (c *PricingContext) Now() time.Time {
	if c.CurrentDate.IsZero() {
		return time.Now()
	}
	return c.CurrentDate
}

// AttachBundle records the selected bundle and fills the denormalized
// helper fields.
func (c *PricingContext) AttachBundle(b Bundle) {
	c.Bundle = &b
	c.Country = b.Country
	c.Region = b.Region
	c.BundleGroup = b.BundleGroup
	c.Duration = b.Duration
}

// Resolve looks up a dot-addressable condition field in the context.
// Path segments are matched case- and underscore-insensitively, so
// "bundleGroup" and "bundle_group" address the same field. Unknown
// paths return ok=false; conditions over them simply do not match.
func (c *PricingContext) Resolve(path string) (Value, bool) {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		segs[i] = normalizeSegment(s)
	}

	switch len(segs) {
	case 1:
		switch segs[0] {
		case "country":
			return StringValue(c.Country), true
		case "region":
			return StringValue(c.Region), true
		case "bundlegroup":
			return StringValue(c.BundleGroup), true
		case "duration":
			return NumberValue(intDecimal(c.Duration)), true
		case "requestedduration":
			return NumberValue(intDecimal(c.RequestedDuration)), true
		case "paymentmethod":
			return StringValue(c.PaymentMethod), true
		case "currentdate":
			return DateValue(c.Now()), true
		}
	case 2:
		switch segs[0] {
		case "bundle":
			return c.resolveBundle(segs[1])
		case "customer":
			return c.resolveCustomer(segs[1])
		}
	}
	return Value{}, false
}

func (c *PricingContext) resolveBundle(field string) (Value, bool) {
	if c.Bundle == nil {
		return Value{}, false
	}
	switch field {
	case "id":
		return StringValue(c.Bundle.ID), true
	case "name":
		return StringValue(c.Bundle.Name), true
	case "bundlegroup", "group":
		return StringValue(c.Bundle.BundleGroup), true
	case "duration":
		return NumberValue(intDecimal(c.Bundle.Duration)), true
	case "cost":
		return NumberValue(c.Bundle.Cost), true
	case "country":
		return StringValue(c.Bundle.Country), true
	case "region":
		return StringValue(c.Bundle.Region), true
	case "isunlimited", "unlimited":
		return BoolValue(c.Bundle.IsUnlimited), true
	case "dataamount":
		return NumberValue(intDecimal64(c.Bundle.DataAmount)), true
	}
	return Value{}, false
}

func (c *PricingContext) resolveCustomer(field string) (Value, bool) {
	switch field {
	case "paymentmethod":
		// payment method lives on the context but rules commonly
		// address it through the customer
		return StringValue(c.PaymentMethod), true
	}
	if c.Customer == nil {
		return Value{}, false
	}
	switch field {
	case "isnew", "new":
		return BoolValue(c.Customer.IsNew), true
	case "segment":
		return StringValue(c.Customer.Segment), true
	}
	return Value{}, false
}

func normalizeSegment(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "")
}

func intDecimal(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func intDecimal64(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
