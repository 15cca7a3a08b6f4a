package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"visitor@example.com", "v***@example.com"},
		{"a@b.co", "a***@b.co"},
		{"not-an-email", "***"},
		{"@example.com", "***"},
		{"", "***"},
	}

	for _, tc := range cases {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFields(t *testing.T) {
	t.Parallel()

	fields := []zap.Field{
		zap.String("password_hash", "bcrypt-stuff"),
		zap.String("authorization", "Bearer abc"),
		zap.String("email", "visitor@example.com"),
		zap.String("tenant_slug", "corner-cafe"),
	}

	sanitized := SanitizeFields(fields)
	if len(sanitized) != len(fields) {
		t.Fatalf("expected %d fields, got %d", len(fields), len(sanitized))
	}

	if sanitized[0].String != "***" {
		t.Fatalf("password_hash not redacted: %q", sanitized[0].String)
	}
	if sanitized[1].String != "***" {
		t.Fatalf("authorization not redacted: %q", sanitized[1].String)
	}
	if sanitized[2].String != "v***@example.com" {
		t.Fatalf("email not masked: %q", sanitized[2].String)
	}
	if sanitized[3].String != "corner-cafe" {
		t.Fatalf("plain field altered: %q", sanitized[3].String)
	}
}
