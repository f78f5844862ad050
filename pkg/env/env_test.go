package env

import "testing"

func TestGetPrefersFirstKey(t *testing.T) {
	t.Setenv("PHARMACY_LOG_FORMAT", "console")
	t.Setenv("LOG_FORMAT", "json")
	if got := Get("fallback", "PHARMACY_LOG_FORMAT", "LOG_FORMAT"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestGetFallsThroughBlankValues(t *testing.T) {
	t.Setenv("PHARMACY_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", "text")
	if got := Get("fallback", "PHARMACY_LOG_FORMAT", "LOG_FORMAT"); got != "text" {
		t.Fatalf("expected alias value, got %q", got)
	}
	t.Setenv("LOG_FORMAT", "")
	if got := Get("fallback", "PHARMACY_LOG_FORMAT", "LOG_FORMAT"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
