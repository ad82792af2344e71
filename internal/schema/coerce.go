package schema

import (
	"strings"

	"github.com/joseph-ayodele/contract-extractor/constants"
)

// Normalize returns a copy of r with enum values canonicalized and list
// fields non-nil. Unknown rate types become FEE_SCHEDULE and unknown
// amendment types become MODIFICATION; nothing here fails.
func Normalize(r ContractRecord) ContractRecord {
	out := r

	out.RateSchedules = make([]RateLineItem, 0, len(r.RateSchedules))
	for _, item := range r.RateSchedules {
		out.RateSchedules = append(out.RateSchedules, NormalizeRateLineItem(item))
	}

	out.Amendments = make([]Amendment, 0, len(r.Amendments))
	for _, a := range r.Amendments {
		a.AmendmentType, _ = constants.CanonicalizeAmendmentType(string(a.AmendmentType))
		out.Amendments = append(out.Amendments, a)
	}

	if len(r.ExtractionMetadata.ValidationErrors) > 0 {
		out.ExtractionMetadata.ValidationErrors = append([]string(nil), r.ExtractionMetadata.ValidationErrors...)
	}
	return out
}

// NormalizeRateLineItem canonicalizes the rate type and fills the unit.
func NormalizeRateLineItem(item RateLineItem) RateLineItem {
	item.RateType, _ = constants.CanonicalizeRateType(string(item.RateType))
	if strings.TrimSpace(item.RateUnit) == "" {
		item.RateUnit = DefaultRateUnit
	}
	return item
}
