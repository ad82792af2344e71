package extract

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; month-first before year-first, four-digit
// years before two-digit ones.
var dateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"2006/1/2",
	"2006-1-2",
	"1/2/06",
	"1-2-06",
}

// ParseDate converts a matched date string to YYYY-MM-DD, or "" when no
// layout parses it.
func ParseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
