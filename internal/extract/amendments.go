package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

var (
	reAmendmentHeader = regexp.MustCompile(`(?i)Amendment\s*(?:#|No\.?)?\s*(\d+)[:\s]*`)
	reAmendmentWord   = regexp.MustCompile(`(?i)amendment`)
	reAmendmentDate   = regexp.MustCompile(`(?i)effective[:\s]*(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
)

// ExtractAmendments finds "Amendment [#|No.] <n>" blocks. A block's
// description runs to the next occurrence of the word "amendment" or the
// end of text, cut to MaxDescriptionLength characters and trimmed.
// Every amendment is typed MODIFICATION; there is no classifier yet.
func ExtractAmendments(text string) []schema.Amendment {
	out := make([]schema.Amendment, 0)
	pos := 0
	for pos < len(text) {
		loc := reAmendmentHeader.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		number := text[pos+loc[2] : pos+loc[3]]
		bodyStart := pos + loc[1]

		bodyEnd := len(text)
		if next := reAmendmentWord.FindStringIndex(text[bodyStart:]); next != nil {
			bodyEnd = bodyStart + next[0]
		}

		description := strings.TrimSpace(truncateRunes(text[bodyStart:bodyEnd], schema.MaxDescriptionLength))
		a := schema.Amendment{
			AmendmentID:   "AMD-" + number,
			Description:   description,
			AmendmentType: constants.AmendmentTypeModification,
		}
		if m := reAmendmentDate.FindStringSubmatch(description); m != nil {
			a.EffectiveDate = ParseDate(m[1])
		}
		out = append(out, a)

		pos = bodyEnd
	}
	return out
}

func truncateRunes(s string, max int) string {
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
