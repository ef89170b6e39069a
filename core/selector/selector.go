// Package selector picks the bundle to price for a requested duration.
package selector

import (
	"sort"

	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

// SelectOptimalBundle returns the candidate to price: an exact duration
// match when one exists, otherwise the smallest bundle that still covers
// the requested duration. When no candidate covers the request the
// selection fails; there is no fallback to the largest bundle.
func SelectOptimalBundle(candidates []types.Bundle, requestedDuration int) (types.Bundle, error) {
	if len(candidates) == 0 {
		return types.Bundle{}, errors.Selection("no candidate bundles available")
	}

	for _, b := range candidates {
		if b.Duration == requestedDuration {
			return b, nil
		}
	}

	covering := make([]types.Bundle, 0, len(candidates))
	for _, b := range candidates {
		if b.Duration >= requestedDuration {
			covering = append(covering, b)
		}
	}
	if len(covering) == 0 {
		return types.Bundle{}, errors.Newf(errors.TypeSelection,
			"no bundle covers the requested duration of %d days", requestedDuration)
	}

	sort.Slice(covering, func(i, j int) bool {
		return covering[i].Duration < covering[j].Duration
	})
	return covering[0], nil
}

// UnusedDays returns how many of the selected bundle's days exceed the
// request. Zero for an exact match.
func UnusedDays(selected types.Bundle, requestedDuration int) int {
	if d := selected.Duration - requestedDuration; d > 0 {
		return d
	}
	return 0
}

// PreviousDuration returns the largest candidate duration that is at
// most the requested duration, used by the unused-day discount formula.
// ok is false when every candidate exceeds the request.
func PreviousDuration(candidates []types.Bundle, requestedDuration int) (types.Bundle, bool) {
	var best types.Bundle
	found := false
	for _, b := range candidates {
		if b.Duration > requestedDuration {
			continue
		}
		if !found || b.Duration > best.Duration {
			best = b
			found = true
		}
	}
	return best, found
}
