package schema

import (
	"fmt"
	"math"
	"regexp"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

var reAmendmentID = regexp.MustCompile(`^AMD-\d+$`)

// NPILength is the number of digits in a National Provider Identifier.
const NPILength = 10

// Validate checks r after normalization and reports every problem as
// "field: message", in field order. The result is advisory: callers log
// the messages and keep the record.
func Validate(r ContractRecord) (bool, []string) {
	v := check(Normalize(r))
	return !v.HasErrors(), v.Messages()
}

// Check is the strict form of Validate: nil when r is valid, otherwise an
// error wrapping common.ErrValidation that lists every message.
func Check(r ContractRecord) error {
	return check(Normalize(r)).Error()
}

func check(r ContractRecord) *common.Validator {
	v := common.NewValidator()

	v.Field("contract_id", r.ContractID, common.Required)
	v.Field("provider_npi", r.ProviderNPI, common.ExactDigits(NPILength))
	v.Field("effective_date", r.EffectiveDate, common.Required, common.DateYMD)
	v.Field("termination_date", r.TerminationDate, common.DateYMD)
	checkDateOrder(v, r.EffectiveDate, r.TerminationDate)

	rateTypes := common.OneOf(constants.RateTypes()...)
	for i, item := range r.RateSchedules {
		prefix := fmt.Sprintf("rate_schedules.%d.", i)
		v.Field(prefix+"rate_type", string(item.RateType), common.Required, rateTypes)
		if math.IsInf(item.RateAmount, 0) {
			v.Add(prefix+"rate_amount", item.RateAmount, "must be a finite number")
		} else {
			v.Field(prefix+"rate_amount", item.RateAmount, common.GreaterThan(0))
		}
		v.Field(prefix+"rate_unit", item.RateUnit, common.Required)
		v.Field(prefix+"effective_date", item.EffectiveDate, common.DateYMD)
	}

	amendmentTypes := common.OneOf(constants.AmendmentTypes()...)
	for i, a := range r.Amendments {
		prefix := fmt.Sprintf("amendments.%d.", i)
		v.Field(prefix+"amendment_id", a.AmendmentID, common.Required, common.Pattern(reAmendmentID, "AMD-<n>"))
		v.Field(prefix+"effective_date", a.EffectiveDate, common.DateYMD)
		v.Field(prefix+"description", a.Description, common.MaxLength(MaxDescriptionLength))
		v.Field(prefix+"amendment_type", string(a.AmendmentType), common.Required, amendmentTypes)
	}

	v.Field("extraction_metadata.confidence_score", r.ExtractionMetadata.ConfidenceScore, common.Between(0, 1))
	return v
}

// checkDateOrder flags a termination date earlier than the effective date.
// Both must already be well formed; otherwise the format errors stand alone.
func checkDateOrder(v *common.Validator, effective, termination string) {
	if effective == "" || termination == "" {
		return
	}
	eff, err := common.ParseYMD(effective)
	if err != nil {
		return
	}
	term, err := common.ParseYMD(termination)
	if err != nil {
		return
	}
	if term.Before(eff) {
		v.Add("termination_date", termination, "must not precede effective_date")
	}
}
