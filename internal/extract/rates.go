package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/document"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// rateTableKeywords mark a table as a rate table when any appears in the
// joined, lower-cased header row.
var rateTableKeywords = []string{"rate", "amount", "fee", "price", "cpt", "service"}

type columnRole int

const (
	roleNone columnRole = iota
	roleServiceCategory
	roleCPTCode
	roleRateType
	roleRateAmount
)

// roleOf classifies one lower-cased header. "type" is checked before
// "rate" so a "Rate Type" column is not read as the amount.
func roleOf(header string) columnRole {
	switch {
	case strings.Contains(header, "service"), strings.Contains(header, "category"):
		return roleServiceCategory
	case strings.Contains(header, "cpt"), strings.Contains(header, "code"):
		return roleCPTCode
	case strings.Contains(header, "type"):
		return roleRateType
	case strings.Contains(header, "rate"), strings.Contains(header, "amount"), strings.Contains(header, "fee"):
		return roleRateAmount
	}
	return roleNone
}

// IsRateTable reports whether headers look like a rate schedule.
func IsRateTable(headers []string) bool {
	joined := strings.ToLower(strings.Join(headers, " "))
	for _, kw := range rateTableKeywords {
		if strings.Contains(joined, kw) {
			return true
		}
	}
	return false
}

// columnMap maps each role to the first header column that plays it.
func columnMap(headers []string) map[columnRole]int {
	cols := make(map[columnRole]int)
	for i, h := range headers {
		role := roleOf(strings.ToLower(h))
		if role == roleNone {
			continue
		}
		if _, taken := cols[role]; !taken {
			cols[role] = i
		}
	}
	return cols
}

// MapRateSchedules turns rate tables into line items in table then row
// order. Tables that are not rate tables contribute nothing; rows without
// a positive amount are dropped.
func MapRateSchedules(tables []document.Table) []schema.RateLineItem {
	items := make([]schema.RateLineItem, 0)
	for _, t := range tables {
		if !IsRateTable(t.Headers) {
			continue
		}
		cols := columnMap(t.Headers)
		for _, row := range t.Rows {
			amount, ok := ParseAmount(cell(row, cols, roleRateAmount))
			if !ok {
				continue
			}
			rateType, _ := constants.CanonicalizeRateType(cell(row, cols, roleRateType))
			items = append(items, schema.RateLineItem{
				ServiceCategory: cell(row, cols, roleServiceCategory),
				CPTCode:         cell(row, cols, roleCPTCode),
				RateType:        rateType,
				RateAmount:      amount,
				RateUnit:        schema.DefaultRateUnit,
			})
		}
	}
	return items
}

// cell returns the cleaned value of role's column, or "" when the role is
// unmapped or the row is too short.
func cell(row []string, cols map[columnRole]int, role columnRole) string {
	idx, ok := cols[role]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return document.NormalizeText(row[idx])
}

// ParseAmount strips "$" and "," and parses the rest. Only finite values
// strictly above zero are accepted.
func ParseAmount(s string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
