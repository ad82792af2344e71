package common

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestExactDigits(t *testing.T) {
	rule := ExactDigits(10)
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"1234567890", false},
		{"", false},
		{"123456789", true},
		{"12345678901", true},
		{"12345abcde", true},
		{"123-456-78", true},
		{"１２３４５６７８９０", true}, // full-width digits are not ASCII
	}
	for _, tt := range tests {
		err := rule("provider_npi", tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExactDigits(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if err != nil && !strings.HasPrefix(err.Message, FormatError) {
			t.Errorf("expected format error message, got %q", err.Message)
		}
	}
}

func TestDateYMD(t *testing.T) {
	if err := DateYMD("effective_date", "2024-01-15"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := DateYMD("effective_date", ""); err != nil {
		t.Errorf("empty optional date should pass: %v", err)
	}
	for _, bad := range []string{"01/15/2024", "2024-13-01", "2024-1-5", "2024-02-30"} {
		err := DateYMD("effective_date", bad)
		if err == nil {
			t.Errorf("expected error for %q", bad)
			continue
		}
		if err.String() != "effective_date: format error: date must be in YYYY-MM-DD format" {
			t.Errorf("unexpected message %q", err.String())
		}
	}
}

func TestValidatorCollectsInOrder(t *testing.T) {
	v := NewValidator()
	v.Field("contract_id", "", Required).
		Field("provider_npi", "12", ExactDigits(10)).
		Field("rate_amount", 0.0, GreaterThan(0)).
		Field("confidence_score", 1.2, Between(0, 1)).
		Field("amendment_id", "X-1", Pattern(regexp.MustCompile(`^AMD-\d+$`), "AMD-<n>")).
		Field("description", strings.Repeat("x", 501), MaxLength(500)).
		Field("rate_type", "BOGUS", OneOf("A", "B"))

	msgs := v.Messages()
	want := []string{
		"contract_id: is required",
		"provider_npi: format error: must be exactly 10 digits",
		"rate_amount: must be greater than 0",
		"confidence_score: must be between 0 and 1",
		"amendment_id: format error: must match AMD-<n>",
		"description: must be at most 500 characters",
		"rate_type: must be one of A, B",
	}
	if len(msgs) != len(want) {
		t.Fatalf("expected %d messages, got %d: %v", len(want), len(msgs), msgs)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, msgs[i], want[i])
		}
	}
	if err := v.Error(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator().Field("contract_id", "CTR-1", Required)
	if v.HasErrors() || v.Error() != nil || len(v.Messages()) != 0 {
		t.Fatal("expected no errors")
	}
}
