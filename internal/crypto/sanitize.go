package crypto

import (
	"html"
	"regexp"
	"strings"
)

// Denylist of substrings stripped from all inbound text before it reaches
// handlers. Matching is case-insensitive; the remainder is HTML-escaped.
var dangerousPatterns = []string{
	"<script", "</script>",
	"javascript:", "vbscript:",
	"onload=", "onerror=", "onclick=",
	"eval(", "exec(",
	"DROP TABLE", "DELETE FROM", "INSERT INTO", "UPDATE SET",
	"--", "/*", "*/",
	"UNION SELECT", "OR 1=1", "AND 1=1",
}

var dangerousRegexps = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(dangerousPatterns))
	for i, pattern := range dangerousPatterns {
		res[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	}
	return res
}()

// SanitizeInput strips the injection denylist from text case-insensitively,
// HTML-escapes the five special characters, and trims surrounding space.
func SanitizeInput(text string) string {
	if text == "" {
		return text
	}

	sanitized := text
	for _, re := range dangerousRegexps {
		sanitized = re.ReplaceAllString(sanitized, "")
	}

	return strings.TrimSpace(html.EscapeString(sanitized))
}
