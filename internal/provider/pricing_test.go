package provider

import "testing"

func TestEstimateCostKnownModel(t *testing.T) {
	usage := &Usage{InputTokens: 1000, OutputTokens: 1000}
	got := EstimateCost("gpt-4", usage)
	want := float64(1000)*(0.03/1000) + float64(1000)*(0.06/1000)
	if got != want {
		t.Fatalf("cost = %v, want %v", got, want)
	}
}

func TestEstimateCostUnknownModelUsesCheapestTier(t *testing.T) {
	usage := &Usage{InputTokens: 500, OutputTokens: 500}
	got := EstimateCost("some-future-model", usage)
	want := EstimateCost("gpt-4o-mini", usage)
	if got != want {
		t.Fatalf("unknown model cost = %v, want cheapest tier %v", got, want)
	}
	if got <= 0 {
		t.Fatal("fallback cost must be positive")
	}
}

func TestEstimateCostNilUsage(t *testing.T) {
	if got := EstimateCost("gpt-4o", nil); got != 0 {
		t.Fatalf("cost = %v, want 0 without usage", got)
	}
}
