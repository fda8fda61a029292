package sec

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var secret = []byte(strings.Repeat("s", MinSecretLength))

func TestAPITokenRoundTrip(t *testing.T) {
	tok, err := GenerateAPIToken(secret, "certmerge", "editor", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAPIToken(secret, "certmerge", tok)
	if err != nil {
		t.Fatalf("ParseAPIToken: %v", err)
	}
	if claims.Subject != "editor" {
		t.Errorf("sub = %q", claims.Subject)
	}
}

func TestAPITokenRejections(t *testing.T) {
	if _, err := GenerateAPIToken([]byte("short"), "i", "s", 0); !errors.Is(err, ErrWeakSecret) {
		t.Errorf("weak secret err = %v", err)
	}
	tok, _ := GenerateAPIToken(secret, "certmerge", "editor", 0)
	other := []byte(strings.Repeat("o", MinSecretLength))
	if _, err := ParseAPIToken(other, "", tok); err == nil {
		t.Error("wrong secret accepted")
	}
	if _, err := ParseAPIToken(secret, "someone-else", tok); err == nil {
		t.Error("wrong issuer accepted")
	}
	noExpiry, _ := GenerateAPIToken(secret, "certmerge", "editor", -time.Hour)
	if _, err := ParseAPIToken(secret, "", noExpiry); err != nil {
		// negative ttl is treated as no expiry
		t.Errorf("no-expiry token rejected: %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc": "abc",
		"Bearer ":    "",
		"bearer xyz": "xyz",
		"Basic abc":  "",
		"Bearer":     "",
		"":           "",
	}
	for in, want := range tests {
		if got := ExtractBearerToken(in); got != want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	a, _ := GenerateOpaqueToken(0)
	b, _ := GenerateOpaqueToken(0)
	if a == b || len(a) != 43 {
		t.Errorf("tokens %q %q", a, b)
	}
}
