// Package redact removes sensitive information from strings before they
// are logged. Error messages can carry connection strings, credentials,
// document references, and contact details that must never reach the
// log stream.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedContactPlaceholder    = "[REDACTED_CONTACT]"
)

var rules = []struct {
	pattern     *regexp.Regexp
	placeholder string
}{
	// Database connection strings with embedded credentials.
	{regexp.MustCompile(`(?i)(postgres|mysql|redis)://[^@\s]+@`), RedactedCredentialPlaceholder},

	// API keys, tokens and secrets in key=value or key: value form.
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedCredentialPlaceholder},

	// JWT tokens (three base64url segments).
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), RedactedCredentialPlaceholder},

	// Email addresses and phone numbers extracted from documents.
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), RedactedContactPlaceholder},
	{regexp.MustCompile(`\b1[3-9]\d{9}\b`), RedactedContactPlaceholder},

	// Filesystem and object-store paths, which embed project IDs and
	// original filenames.
	{regexp.MustCompile(`(/[\w.\x{4e00}-\x{9fff}-]+){2,}`), RedactedPathPlaceholder},
}

// String redacts sensitive patterns from the input.
func String(s string) string {
	for _, rule := range rules {
		s = rule.pattern.ReplaceAllString(s, rule.placeholder)
	}
	return s
}

// Error redacts the message of err. Returns an empty string for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
