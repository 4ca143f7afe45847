package extract

import (
	"regexp"
	"strings"
)

// fieldRule couples a named anchor pattern with an optional post-processing
// transform. Every extracted field is the first capture group of its rule,
// trimmed of whitespace and stray quote characters. A rule that does not
// match yields "" — absence, not an error.
type fieldRule struct {
	name string
	re   *regexp.Regexp
	post func(string) string
}

func (r fieldRule) match(text string) string {
	m := r.re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	v := strings.Trim(strings.TrimSpace(m[1]), `"'`)
	if r.post != nil {
		v = r.post(v)
	}
	return v
}

// firstMatch tries an ordered fallback chain, first match wins. Used where
// document variants label the same field differently (refund payment method,
// refund date).
func firstMatch(text string, rules []fieldRule) string {
	for _, r := range rules {
		if v := r.match(text); v != "" {
			return v
		}
	}
	return ""
}
