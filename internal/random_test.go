package internal

import (
	"strings"
	"testing"
)

func TestNewVerificationIDUniqueAndParsable(t *testing.T) {
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		vid, err := NewVerificationID()
		if err != nil {
			t.Fatalf("NewVerificationID failed: %v", err)
		}

		token := vid.String()
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate verification id after %d draws", i)
		}
		seen[token] = struct{}{}

		parsed, err := ParseVerificationID(token)
		if err != nil {
			t.Fatalf("ParseVerificationID failed: %v", err)
		}
		if parsed != vid {
			t.Fatal("parse round trip mismatch")
		}
	}
}

func TestParseVerificationIDRejectsGarbage(t *testing.T) {
	cases := []string{"", "not-base64!!", "c2hvcnQ", strings.Repeat("A", 64)}
	for _, c := range cases {
		if _, err := ParseVerificationID(c); err == nil {
			t.Fatalf("expected parse error for %q", c)
		}
	}
}

func TestNewCodeLengthAndAlphabet(t *testing.T) {
	const alphabet = "0123456789"

	for i := 0; i < 200; i++ {
		code, err := NewCode(alphabet, 6)
		if err != nil {
			t.Fatalf("NewCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 characters, got %d", len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("code %q contains character outside alphabet", code)
			}
		}
	}
}

func TestNewCodeRejectsBadInput(t *testing.T) {
	if _, err := NewCode("0123456789", 3); err == nil {
		t.Fatal("expected error for length below minimum")
	}
	if _, err := NewCode("0123456789", 13); err == nil {
		t.Fatal("expected error for length above maximum")
	}
	if _, err := NewCode("a", 6); err == nil {
		t.Fatal("expected error for single-character alphabet")
	}
}

func TestHashCodeDeterministic(t *testing.T) {
	a := HashCode("123456")
	b := HashCode("123456")
	c := HashCode("654321")

	if a != b {
		t.Fatal("expected identical hashes for identical codes")
	}
	if a == c {
		t.Fatal("expected different hashes for different codes")
	}
}
