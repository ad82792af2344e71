package document

import (
	"regexp"
	"strings"
)

var reTableDelimiter = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?$`)

// ParseMarkdownTables returns every pipe table in md, in document order.
// A table is a header row, a delimiter row, then rows that start with '|'.
// Rows shorter than the header are kept as is.
func ParseMarkdownTables(md string) []Table {
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	var tables []Table

	for i := 0; i+1 < len(lines); i++ {
		header := strings.TrimSpace(lines[i])
		delim := strings.TrimSpace(lines[i+1])
		if !strings.HasPrefix(header, "|") || !reTableDelimiter.MatchString(delim) {
			continue
		}

		t := Table{Headers: splitRow(header)}
		j := i + 2
		for ; j < len(lines); j++ {
			row := strings.TrimSpace(lines[j])
			if !strings.HasPrefix(row, "|") {
				break
			}
			t.Rows = append(t.Rows, splitRow(row))
		}
		tables = append(tables, t)
		i = j - 1
	}
	return tables
}

// splitRow splits "| a | b \| c |" into ["a", "b | c"].
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = strings.TrimSuffix(line, "|")
	}

	var cells []string
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) && line[i+1] == '|' {
			cur.WriteByte('|')
			i++
			continue
		}
		if c == '|' {
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return append(cells, strings.TrimSpace(cur.String()))
}
