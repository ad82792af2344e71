package extract

import (
	"math/rand"
	"testing"

	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

var fieldSetters = []func(*schema.ContractRecord){
	func(r *schema.ContractRecord) { r.ContractID = "CTR-1" },
	func(r *schema.ContractRecord) { r.PayerName = "Aetna" },
	func(r *schema.ContractRecord) { r.ProviderNPI = "1234567890" },
	func(r *schema.ContractRecord) { r.ProviderName = "General Hospital" },
	func(r *schema.ContractRecord) { r.EffectiveDate = "2024-01-15" },
	func(r *schema.ContractRecord) { r.TerminationDate = "2025-01-15" },
	func(r *schema.ContractRecord) {
		r.RateSchedules = []schema.RateLineItem{{RateAmount: 1, RateType: "FEE_SCHEDULE", RateUnit: "EACH"}}
	},
}

func TestScoreWeights(t *testing.T) {
	tests := []struct {
		name string
		set  []int
		want float64
	}{
		{"empty", nil, 0},
		{"contract id only", []int{0}, 0.15},
		{"npi only", []int{2}, 0.20},
		{"id payer npi", []int{0, 1, 2}, 0.5},
		{"all", []int{0, 1, 2, 3, 4, 5, 6}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r schema.ContractRecord
			for _, i := range tt.set {
				fieldSetters[i](&r)
			}
			if got := Score(r); got != tt.want {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreEmptyRateScheduleIgnored(t *testing.T) {
	r := schema.ContractRecord{RateSchedules: []schema.RateLineItem{}}
	if Score(r) != 0 {
		t.Fatal("empty rate schedule must not contribute")
	}
}

func TestScoreMonotonicAndOrderInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var final []float64
	for trial := 0; trial < 50; trial++ {
		order := rng.Perm(len(fieldSetters))
		var r schema.ContractRecord
		prev := Score(r)
		for _, i := range order {
			fieldSetters[i](&r)
			s := Score(r)
			if s < prev {
				t.Fatalf("score decreased from %v to %v adding field %d", prev, s, i)
			}
			if s < 0 || s > 1 {
				t.Fatalf("score %v out of range", s)
			}
			prev = s
		}
		final = append(final, prev)
	}
	for _, s := range final {
		if s != final[0] {
			t.Fatalf("final score depends on order: %v", final)
		}
	}
}

func TestApplyPenalty(t *testing.T) {
	tests := []struct {
		score, factor, want float64
	}{
		{1, DegradedPenalty, 0.7},
		{0.8, DegradedPenalty, 0.56},
		{0.3, DegradedPenalty, 0.21},
		{0.5, DegradedPenalty, 0.35},
		{0, DegradedPenalty, 0},
		{0.5, 1, 0.5},
	}
	for _, tt := range tests {
		if got := ApplyPenalty(tt.score, tt.factor); got != tt.want {
			t.Errorf("ApplyPenalty(%v, %v) = %v, want %v", tt.score, tt.factor, got, tt.want)
		}
	}
}
