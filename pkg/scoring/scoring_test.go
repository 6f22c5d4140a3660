package scoring

import (
	"testing"
	"time"
)

func TestRecencyWeightBuckets(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{0, 1.0},
		{1, 1.0},
		{2, 0.8},
		{7, 0.8},
		{8, 0.6},
		{30, 0.6},
		{31, 0.4},
		{90, 0.4},
		{91, 0.2},
		{365, 0.2},
		{366, 0.1},
		{5000, 0.1},
	}

	for _, tt := range tests {
		if got := RecencyWeight(tt.days); got != tt.want {
			t.Errorf("RecencyWeight(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestRecencyWeightNonIncreasing(t *testing.T) {
	prev := RecencyWeight(0)
	for days := 1; days <= 400; days++ {
		got := RecencyWeight(days)
		if got > prev {
			t.Fatalf("RecencyWeight(%d) = %v is greater than RecencyWeight(%d) = %v", days, got, days-1, prev)
		}
		prev = got
	}
}

func TestFreshness(t *testing.T) {
	if got := Freshness(nil); got != 0 {
		t.Errorf("Freshness(nil) = %v, want 0", got)
	}

	now := time.Now()
	if got := Freshness(&now); got != 1.0 {
		t.Errorf("Freshness(now) = %v, want 1.0", got)
	}

	old := now.AddDate(-2, 0, 0)
	if got := Freshness(&old); got != 0.1 {
		t.Errorf("Freshness(2 years ago) = %v, want 0.1", got)
	}
}

func TestDaysSinceNeverNegative(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)
	if got := DaysSince(future); got != 0 {
		t.Errorf("DaysSince(future) = %d, want 0", got)
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}

	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
