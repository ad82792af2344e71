package extract

import (
	"math"

	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// DegradedPenalty scales the score of records parsed without table
// structure.
const DegradedPenalty = 0.7

type weightedField struct {
	name    string
	weight  float64
	present func(r schema.ContractRecord) bool
}

var confidenceWeights = []weightedField{
	{"contract_id", 0.15, func(r schema.ContractRecord) bool { return r.ContractID != "" }},
	{"payer_name", 0.15, func(r schema.ContractRecord) bool { return r.PayerName != "" }},
	{"provider_npi", 0.20, func(r schema.ContractRecord) bool { return r.ProviderNPI != "" }},
	{"provider_name", 0.10, func(r schema.ContractRecord) bool { return r.ProviderName != "" }},
	{"effective_date", 0.15, func(r schema.ContractRecord) bool { return r.EffectiveDate != "" }},
	{"termination_date", 0.10, func(r schema.ContractRecord) bool { return r.TerminationDate != "" }},
	{"rate_schedules", 0.15, func(r schema.ContractRecord) bool { return len(r.RateSchedules) > 0 }},
}

// Score sums the weights of the fields present in r, rounded to two
// decimals. The weights total 1.
func Score(r schema.ContractRecord) float64 {
	var score float64
	for _, f := range confidenceWeights {
		if f.present(r) {
			score += f.weight
		}
	}
	return Round2(math.Min(score, 1))
}

// ApplyPenalty scales score by factor and re-rounds, clamped to [0, 1].
func ApplyPenalty(score, factor float64) float64 {
	return Round2(math.Max(0, math.Min(1, score*factor)))
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
