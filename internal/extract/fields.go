package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

// Fields are the scalar values found in contract text. Empty means the
// field was not found.
type Fields struct {
	ContractID      string
	PayerID         string
	PayerName       string
	ProviderNPI     string
	ProviderName    string
	EffectiveDate   string
	TerminationDate string
}

// SyntheticContractID is used when the text names no contract id.
// Two calls within the same second return the same value.
func SyntheticContractID(clock common.Clock) string {
	return "CTR-" + common.ClockOrSystem(clock).Now().UTC().Format("20060102150405")
}

// ExtractFields runs each field's pattern chain over text independently.
// A miss leaves the field empty; contract_id falls back to a synthetic id.
func ExtractFields(text string, clock common.Clock) Fields {
	var f Fields

	if id, ok := contractIDChain.first(text); ok && id != "" {
		f.ContractID = id
	} else {
		f.ContractID = SyntheticContractID(clock)
	}

	f.ProviderNPI, _ = npiChain.first(text)
	f.ProviderName, _ = providerChain.first(text)
	f.PayerName, _ = payerChain.first(text)
	f.EffectiveDate, _ = effectiveDateChain.first(text)
	f.TerminationDate, _ = terminationDateChain.first(text)
	f.PayerID = DerivePayerID(f.PayerName)
	return f
}

// DerivePayerID builds "<initials of the first two words>-001", upper-cased.
// An empty payer name yields "".
func DerivePayerID(payerName string) string {
	words := strings.Fields(payerName)
	if len(words) == 0 {
		return ""
	}
	if len(words) > 2 {
		words = words[:2]
	}
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String() + "-001"
}
