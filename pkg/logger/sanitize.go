package logger

import (
	"strings"

	"go.uber.org/zap"
)

var sensitiveTokens = []string{
	"password",
	"password_hash",
	"token",
	"secret",
	"authorization",
	"api_key",
	"apikey",
}

// SanitizeFields redacts secret-bearing keys outright and masks email
// values so visitor PII does not land in log aggregation verbatim.
func SanitizeFields(fields []zap.Field) []zap.Field {
	if len(fields) == 0 {
		return fields
	}

	sanitized := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.ToLower(field.Key)
		switch {
		case isSensitiveKey(key):
			sanitized = append(sanitized, zap.String(field.Key, "***"))
		case strings.Contains(key, "email"):
			sanitized = append(sanitized, zap.String(field.Key, MaskEmail(field.String)))
		default:
			sanitized = append(sanitized, field)
		}
	}
	return sanitized
}

// MaskEmail keeps the first character of the local part and the domain:
// "visitor@example.com" becomes "v***@example.com".
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

func isSensitiveKey(key string) bool {
	for _, token := range sensitiveTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}
