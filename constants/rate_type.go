package constants

import "strings"

// RateType is the pricing method of a single rate line item.
type RateType string

const (
	RateTypePerDiem     RateType = "PER_DIEM"
	RateTypePercentage  RateType = "PERCENTAGE"
	RateTypeFlatFee     RateType = "FLAT_FEE"
	RateTypeFeeSchedule RateType = "FEE_SCHEDULE"
	RateTypeCaseRate    RateType = "CASE_RATE"
)

var allRateTypes = []RateType{
	RateTypePerDiem,
	RateTypePercentage,
	RateTypeFlatFee,
	RateTypeFeeSchedule,
	RateTypeCaseRate,
}

// RateTypes returns the recognised rate types as strings, in declaration order.
func RateTypes() []string {
	result := make([]string, len(allRateTypes))
	for i, rt := range allRateTypes {
		result[i] = string(rt)
	}
	return result
}

// CanonicalizeRateType maps free-form input onto a known RateType.
// Empty or unrecognised input yields FEE_SCHEDULE and false.
func CanonicalizeRateType(input string) (RateType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if normalized == "" {
		return RateTypeFeeSchedule, false
	}
	for _, rt := range allRateTypes {
		if normalized == string(rt) {
			return rt, true
		}
	}
	return RateTypeFeeSchedule, false
}
