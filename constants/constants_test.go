package constants

import "testing"

func TestCanonicalizeRateType(t *testing.T) {
	tests := []struct {
		in    string
		want  RateType
		known bool
	}{
		{"per_diem", RateTypePerDiem, true},
		{"  CASE_RATE ", RateTypeCaseRate, true},
		{"", RateTypeFeeSchedule, false},
		{"capitation", RateTypeFeeSchedule, false},
	}
	for _, tt := range tests {
		got, ok := CanonicalizeRateType(tt.in)
		if got != tt.want || ok != tt.known {
			t.Errorf("CanonicalizeRateType(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.known)
		}
	}
}

func TestCanonicalizeAmendmentType(t *testing.T) {
	if got, ok := CanonicalizeAmendmentType("extension"); got != AmendmentTypeExtension || !ok {
		t.Errorf("extension = %s, %v", got, ok)
	}
	if got, ok := CanonicalizeAmendmentType("renewal"); got != AmendmentTypeModification || ok {
		t.Errorf("renewal = %s, %v", got, ok)
	}
}

func TestDocumentKeys(t *testing.T) {
	if !IsDocumentKey("incoming/a/contract.PDF") {
		t.Error("upper-case extension should be a document key")
	}
	if IsDocumentKey("incoming/a/contract.pdf.txt") {
		t.Error("txt should not be a document key")
	}
	if got := DocumentBaseName("incoming/a/contract_2024.pdf"); got != "contract_2024" {
		t.Errorf("DocumentBaseName = %q", got)
	}
	if got := DocumentBaseName(`C:\in\Scan.PDF`); got != "Scan" {
		t.Errorf("DocumentBaseName windows path = %q", got)
	}
}
