package schema

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/joseph-ayodele/contract-extractor/constants"
)

// DefaultRateUnit is used when a rate table has no unit column.
const DefaultRateUnit = "EACH"

// DefaultExtractorVersion stamps records when no version is configured.
const DefaultExtractorVersion = "1.0.0"

// MaxDescriptionLength bounds Amendment.Description, in characters.
const MaxDescriptionLength = 500

// ContractRecord is the extracted view of one contract document.
// Optional strings are omitted from JSON when empty.
type ContractRecord struct {
	ContractID         string             `json:"contract_id"`
	PayerID            string             `json:"payer_id,omitempty"`
	PayerName          string             `json:"payer_name,omitempty"`
	ProviderNPI        string             `json:"provider_npi,omitempty"`
	ProviderName       string             `json:"provider_name,omitempty"`
	EffectiveDate      string             `json:"effective_date,omitempty"`   // YYYY-MM-DD
	TerminationDate    string             `json:"termination_date,omitempty"` // YYYY-MM-DD
	RateSchedules      []RateLineItem     `json:"rate_schedules"`
	Amendments         []Amendment        `json:"amendments"`
	ExtractionMetadata ExtractionMetadata `json:"extraction_metadata"`
}

// RateLineItem is one priced service in a rate schedule.
type RateLineItem struct {
	ServiceCategory string             `json:"service_category,omitempty"`
	CPTCode         string             `json:"cpt_code,omitempty"`
	RateType        constants.RateType `json:"rate_type"`
	RateAmount      float64            `json:"rate_amount"`
	RateUnit        string             `json:"rate_unit"`
	EffectiveDate   string             `json:"effective_date,omitempty"`
	Modifier        string             `json:"modifier,omitempty"`
}

// Amendment is a change to the base contract found in the document body.
type Amendment struct {
	AmendmentID   string                  `json:"amendment_id"` // AMD-<n>
	EffectiveDate string                  `json:"effective_date,omitempty"`
	Description   string                  `json:"description,omitempty"`
	AmendmentType constants.AmendmentType `json:"amendment_type"`
	Changes       map[string]any          `json:"changes,omitempty"`
}

// ExtractionMetadata records how and when a record was produced.
type ExtractionMetadata struct {
	ExtractedAt      time.Time `json:"extracted_at"`
	ConfidenceScore  float64   `json:"confidence_score"`
	SourceFile       string    `json:"source_file"`
	ExtractorVersion string    `json:"extractor_version"`
	ParserMethod     string    `json:"parser_method,omitempty"`
	ValidationErrors []string  `json:"validation_errors,omitempty"`
}

// Encode renders v as UTF-8 JSON with 2-space indentation and a trailing
// newline. HTML characters are not escaped.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
