package constants

import "strings"

// AmendmentType classifies a contract amendment.
type AmendmentType string

const (
	AmendmentTypeModification AmendmentType = "MODIFICATION"
	AmendmentTypeRateChange   AmendmentType = "RATE_CHANGE"
	AmendmentTypeTermination  AmendmentType = "TERMINATION"
	AmendmentTypeExtension    AmendmentType = "EXTENSION"
	AmendmentTypeAddendum     AmendmentType = "ADDENDUM"
)

var allAmendmentTypes = []AmendmentType{
	AmendmentTypeModification,
	AmendmentTypeRateChange,
	AmendmentTypeTermination,
	AmendmentTypeExtension,
	AmendmentTypeAddendum,
}

func AmendmentTypes() []string {
	result := make([]string, len(allAmendmentTypes))
	for i, at := range allAmendmentTypes {
		result[i] = string(at)
	}
	return result
}

// CanonicalizeAmendmentType maps free-form input onto a known AmendmentType.
// Empty or unrecognised input yields MODIFICATION and false.
func CanonicalizeAmendmentType(input string) (AmendmentType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	if normalized == "" {
		return AmendmentTypeModification, false
	}
	for _, at := range allAmendmentTypes {
		if normalized == string(at) {
			return at, true
		}
	}
	return AmendmentTypeModification, false
}
