package policy

import "regexp"

type rule struct {
	pattern *regexp.Regexp
	mask    string
}

// Order matters: keys and cards are masked before the looser phone pattern
// gets a chance to claim their digits.
var rules = []rule{
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`), "[REDACTED_KEY]"},
	{regexp.MustCompile(`(?i)([?&](?:key|api_key|access_token)=)[^&\s"']+`), "${1}[REDACTED_KEY]"},
	{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._\-]{8,}`), "${1}[REDACTED_KEY]"},
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
}

// Redact masks credentials and common PII in text bound for logs or for
// error details shown to learners.
func Redact(input string) (redacted string, changed bool) {
	out := input
	for _, r := range rules {
		next := r.pattern.ReplaceAllString(out, r.mask)
		changed = changed || next != out
		out = next
	}
	return out, changed
}

// RedactError is Redact for error values; nil stays "".
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	out, _ := Redact(err.Error())
	return out
}
