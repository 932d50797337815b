package logger

import (
	"regexp"
	"strings"
)

// Redacted is the replacement text for values that must never reach a log sink.
const Redacted = "[REDACTED]"

// Patterns for sensitive data that must be masked before logging.
// Card numbers keep their last 4 digits, emails keep their domain,
// everything else is replaced wholesale.
var (
	reSecretAssign = regexp.MustCompile(`(?i)(password|passwd|pwd|token|jwt|bearer|api[_-]?key|apikey|secret)["']?\s*[:=]\s*["']?([^"'\s,}]+)`)
	reCardNumber   = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	reSSN          = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	rePhone        = regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`)
	reEmail        = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// Redact removes sensitive data from a log message. Secret assignments
// (password=..., token: ...) lose their value, card numbers keep only the
// last 4 digits, emails keep only the domain, SSNs and phone numbers are
// removed entirely.
func Redact(message string) string {
	s := reSecretAssign.ReplaceAllString(message, "$1="+Redacted)

	s = reCardNumber.ReplaceAllStringFunc(s, func(card string) string {
		digits := strings.NewReplacer(" ", "", "-", "").Replace(card)
		if len(digits) < 4 {
			return strings.Repeat("*", len(digits))
		}
		return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
	})

	s = reSSN.ReplaceAllString(s, Redacted)
	s = rePhone.ReplaceAllString(s, Redacted)

	s = reEmail.ReplaceAllStringFunc(s, func(email string) string {
		at := strings.LastIndex(email, "@")
		if at < 0 {
			return Redacted
		}
		return "***@" + email[at+1:]
	})

	return s
}

var sensitiveParams = []string{
	"password", "token", "secret", "api_key", "apikey", "auth", "card_number",
}

// SensitiveQueryString reports whether a raw query string carries a parameter
// that should never appear in a log line.
func SensitiveQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
