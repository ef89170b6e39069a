package selector

import (
	"testing"

	"github.com/shopspring/decimal"

	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

func bundles(durations ...int) []types.Bundle {
	out := make([]types.Bundle, 0, len(durations))
	for _, d := range durations {
		out = append(out, types.Bundle{
			ID:       "b" + string(rune('0'+d%10)),
			Duration: d,
			Cost:     decimal.NewFromInt(int64(d)),
		})
	}
	return out
}

func TestSelectExactMatch(t *testing.T) {
	got, err := SelectOptimalBundle(bundles(7, 15, 30), 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duration != 15 {
		t.Errorf("selected %d days, want exact 15", got.Duration)
	}
	if UnusedDays(got, 15) != 0 {
		t.Errorf("unused days = %d, want 0 for exact match", UnusedDays(got, 15))
	}
}

func TestSelectSmallestCoveringBundle(t *testing.T) {
	got, err := SelectOptimalBundle(bundles(7, 15, 30), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duration != 15 {
		t.Errorf("selected %d days, want 15 (smallest covering 10)", got.Duration)
	}
	if UnusedDays(got, 10) != 5 {
		t.Errorf("unused days = %d, want 5", UnusedDays(got, 10))
	}
}

func TestSelectFailsWhenNothingCovers(t *testing.T) {
	_, err := SelectOptimalBundle(bundles(7, 15, 30), 40)
	if err == nil {
		t.Fatal("expected selection error when no bundle covers 40 days")
	}
	if !errors.IsType(err, errors.TypeSelection) {
		t.Errorf("error type = %v, want SELECTION_ERROR", err)
	}
}

func TestSelectFailsOnEmptyCandidates(t *testing.T) {
	_, err := SelectOptimalBundle(nil, 7)
	if err == nil {
		t.Fatal("expected selection error for empty candidates")
	}
	if !errors.IsType(err, errors.TypeSelection) {
		t.Errorf("error type = %v, want SELECTION_ERROR", err)
	}
}

func TestPreviousDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []int
		requested int
		want      int
		wantOK    bool
	}{
		{"largest at or below request", []int{7, 10, 15, 30}, 13, 10, true},
		{"exact request counts", []int{7, 10, 15}, 10, 10, true},
		{"nothing at or below", []int{15, 30}, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PreviousDuration(bundles(tt.durations...), tt.requested)
			if ok != tt.wantOK {
				t.Fatalf("ok = %t, want %t", ok, tt.wantOK)
			}
			if ok && got.Duration != tt.want {
				t.Errorf("previous duration = %d, want %d", got.Duration, tt.want)
			}
		})
	}
}
