package ratelimit

import (
	"net/http"
	"strings"
)

// ClientIdentifier picks the counting key for a request. Email-scoped
// endpoints bucket by the subject's email; otherwise the forwarded client
// IP is used, taking the first comma-separated hop. Unidentifiable clients
// all share the single "unknown" bucket, which is deliberately
// conservative.
func ClientIdentifier(email string, header http.Header) string {
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		return "email:" + strings.ToLower(trimmed)
	}

	if forwarded := header.Get("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			first = forwarded[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return "ip:" + ip
		}
	}

	if realIP := strings.TrimSpace(header.Get("X-Real-IP")); realIP != "" {
		return "ip:" + realIP
	}

	return "unknown"
}
