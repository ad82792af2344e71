package extract

import (
	"math"
	"testing"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/document"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

func TestMapRateSchedulesRoles(t *testing.T) {
	tables := []document.Table{{
		Headers: []string{"Service Category", "CPT Code", "Rate Type", "Rate", "Notes"},
		Rows: [][]string{
			{"Office Visit", "99213", "per_diem", "$1,250.50", "x"},
			{"Lab", "80053", "", "42"},
			{"Imaging", "70450", "bogus", "$300.00"},
		},
	}}
	got := MapRateSchedules(tables)
	want := []schema.RateLineItem{
		{ServiceCategory: "Office Visit", CPTCode: "99213", RateType: constants.RateTypePerDiem, RateAmount: 1250.50, RateUnit: "EACH"},
		{ServiceCategory: "Lab", CPTCode: "80053", RateType: constants.RateTypeFeeSchedule, RateAmount: 42, RateUnit: "EACH"},
		{ServiceCategory: "Imaging", CPTCode: "70450", RateType: constants.RateTypeFeeSchedule, RateAmount: 300, RateUnit: "EACH"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMapRateSchedulesHeaderPrecedence(t *testing.T) {
	tables := []document.Table{{
		Headers: []string{"Service Type", "Rate Type", "Fee"},
		Rows:    [][]string{{"Inpatient", "CASE_RATE", "$9,800"}},
	}}
	got := MapRateSchedules(tables)
	want := schema.RateLineItem{ServiceCategory: "Inpatient", RateType: constants.RateTypeCaseRate, RateAmount: 9800, RateUnit: "EACH"}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %+v, want [%+v]", got, want)
	}
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		header string
		want   columnRole
	}{
		{"service type", roleServiceCategory},
		{"category", roleServiceCategory},
		{"cpt code", roleCPTCode},
		{"rate type", roleRateType},
		{"rate", roleRateAmount},
		{"allowed amount", roleRateAmount},
		{"notes", roleNone},
	}
	for _, tt := range tests {
		if got := roleOf(tt.header); got != tt.want {
			t.Errorf("roleOf(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}

func TestMapRateSchedulesDropsNonPositive(t *testing.T) {
	tables := []document.Table{{
		Headers: []string{"CPT", "Amount"},
		Rows: [][]string{
			{"1", "$0.00"},
			{"2", "-15"},
			{"3", "n/a"},
			{"4", ""},
			{"5", "NaN"},
			{"6", "Inf"},
			{"7"},
			{"8", "$0.01"},
		},
	}}
	got := MapRateSchedules(tables)
	if len(got) != 1 || got[0].CPTCode != "8" || got[0].RateAmount != 0.01 {
		t.Fatalf("expected only the positive row, got %+v", got)
	}
	for _, item := range got {
		if item.RateAmount <= 0 {
			t.Fatalf("non-positive amount leaked: %+v", item)
		}
	}
}

func TestMapRateSchedulesSkipsNonRateTables(t *testing.T) {
	tables := []document.Table{
		{Headers: []string{"Name", "Title", "Signature"}, Rows: [][]string{{"Jane", "CEO", "$500"}}},
		{Headers: nil, Rows: [][]string{{"99213", "$10"}}},
	}
	if got := MapRateSchedules(tables); len(got) != 0 {
		t.Fatalf("expected no items, got %+v", got)
	}
}

func TestMapRateSchedulesFirstColumnWins(t *testing.T) {
	tables := []document.Table{{
		Headers: []string{"Fee", "Rate", "Code", "CPT"},
		Rows:    [][]string{{"10", "20", "A1", "B2"}},
	}}
	got := MapRateSchedules(tables)
	if len(got) != 1 || got[0].RateAmount != 10 || got[0].CPTCode != "A1" {
		t.Fatalf("expected first matching columns, got %+v", got)
	}
}

func TestMapRateSchedulesUnmappedAmount(t *testing.T) {
	// "price" marks a rate table but maps no amount column, so every row drops.
	tables := []document.Table{{Headers: []string{"Item", "Price"}, Rows: [][]string{{"x", "$5"}}}}
	if got := MapRateSchedules(tables); len(got) != 0 {
		t.Fatalf("expected no items, got %+v", got)
	}
}

func TestIsRateTable(t *testing.T) {
	tests := []struct {
		headers []string
		want    bool
	}{
		{[]string{"CPT Code", "Rate Amount"}, true},
		{[]string{"SERVICE"}, true},
		{[]string{"Unit Price"}, true},
		{[]string{"Name", "Date"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsRateTable(tt.headers); got != tt.want {
			t.Errorf("IsRateTable(%v) = %v, want %v", tt.headers, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$125.50", 125.50, true},
		{" $1,000 ", 1000, true},
		{"1e3", 1000, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || (ok && math.Abs(got-tt.want) > 1e-9) {
			t.Errorf("ParseAmount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
