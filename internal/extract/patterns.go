package extract

import (
	"regexp"
	"strings"
)

// rule pairs a pattern with the function that turns its submatches into
// a field value.
type rule struct {
	re      *regexp.Regexp
	extract func(groups []string) string
}

// chain is an ordered list of rules. The first rule whose pattern matches
// decides the value, even if that value ends up empty.
type chain []rule

func (c chain) first(text string) (string, bool) {
	for _, r := range c {
		if m := r.re.FindStringSubmatch(text); m != nil {
			return r.extract(m), true
		}
	}
	return "", false
}

func group1(m []string) string { return strings.TrimSpace(m[1]) }

func date1(m []string) string { return ParseDate(m[1]) }

func ci(pattern string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + pattern) }

const (
	dateMDY = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`
	dateYMD = `(\d{4}[/-]\d{1,2}[/-]\d{1,2})`
)

var (
	contractIDChain = chain{
		{ci(`Contract\s*(?:Number|No|#|ID)[:\s]*([A-Z0-9\-]+)`), group1},
		{ci(`Agreement\s*(?:Number|No|#)[:\s]*([A-Z0-9\-]+)`), group1},
		{ci(`CTR[:\s\-]*(\d+)`), group1},
	}

	npiChain = chain{
		{ci(`NPI[:\s#]*(\d{10})`), group1},
	}

	providerChain = chain{
		{ci(`Provider[:\s]+([A-Za-z\s\.,]+(?:Hospital|Medical|Health|Center|Clinic))`), group1},
		{ci(`Facility[:\s]+([A-Za-z\s\.,]+(?:Hospital|Medical|Health|Center|Clinic))`), group1},
	}

	payerChain = chain{
		{ci(`(?:Payer|Insurance|Plan)[:\s]+([A-Za-z\s]+(?:Blue Cross|Aetna|UnitedHealth|Cigna|Humana|Anthem))`), group1},
		{ci(`(Blue Cross Blue Shield|Aetna|UnitedHealthcare|Cigna|Humana|Anthem|Kaiser)`), group1},
	}

	effectiveDateChain = chain{
		{ci(`Effective\s*Date[:\s]*` + dateMDY), date1},
		{ci(`Effective\s*Date[:\s]*` + dateYMD), date1},
		{ci(`Effective[:\s]*` + dateYMD), date1},
		{ci(`(?:begins|commencing)[:\s]*` + dateMDY), date1},
	}

	terminationDateChain = chain{
		{ci(`(?:Termination|Expiration|End)\s*Date[:\s]*` + dateMDY), date1},
		{ci(`(?:terminates|expires|ends)[:\s]*` + dateMDY), date1},
	}
)
