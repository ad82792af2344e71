package document

import (
	"reflect"
	"testing"
)

func TestParseMarkdownTables(t *testing.T) {
	md := `Intro text | not a table

| Service Category | CPT Code | Rate Type | Rate |
|:-----------------|---------:|-----------|------|
| Office Visit     | 99213    | fee_schedule | $125.50 |
| Inpatient \| Acute | | PER_DIEM | $1,800.00 |

Between tables.

| Name | Title |
| --- | --- |
| A |

| not | a table |
no delimiter row
`
	tables := ParseMarkdownTables(md)
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d: %+v", len(tables), tables)
	}

	want := Table{
		Headers: []string{"Service Category", "CPT Code", "Rate Type", "Rate"},
		Rows: [][]string{
			{"Office Visit", "99213", "fee_schedule", "$125.50"},
			{"Inpatient | Acute", "", "PER_DIEM", "$1,800.00"},
		},
	}
	if !reflect.DeepEqual(tables[0], want) {
		t.Errorf("table 0 = %+v, want %+v", tables[0], want)
	}
	if len(tables[1].Rows) != 1 || len(tables[1].Rows[0]) != 1 {
		t.Errorf("short rows should be kept as is: %+v", tables[1])
	}
}

func TestParseMarkdownTablesNone(t *testing.T) {
	if got := ParseMarkdownTables("no tables here\n---\n"); len(got) != 0 {
		t.Fatalf("expected no tables, got %+v", got)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf and tabs", "Contract\tNumber:\r\nCTR-1\r\n", "Contract Number:\nCTR-1"},
		{"multi space", "NPI:    1234567890   ", "NPI: 1234567890"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"ligature", "ﬁnal rate", "final rate"},
		{"nbsp", "Effective\u00a0Date: 01/15/2024", "Effective Date: 01/15/2024"},
		{"full width digits", "NPI: １２３４５６７８９０", "NPI: 1234567890"},
		{"leading zero kept", "01/05/2024", "01/05/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
