package common

import (
	"encoding/base64"
	"testing"
)

func TestMakeRandURLString_LengthAndAlphabet(t *testing.T) {
	const n = 32
	s, err := MakeRandURLString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != base64.RawURLEncoding.EncodedLen(n) {
		t.Fatalf("expected encoded length %d, got %d", base64.RawURLEncoding.EncodedLen(n), len(s))
	}
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("string is not valid base64url: %v", err)
	}
	if len(decoded) != n {
		t.Fatalf("expected %d decoded bytes, got %d", n, len(decoded))
	}
}

func TestMakeRandURLString_ZeroSize(t *testing.T) {
	s, err := MakeRandURLString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

func TestMakeRandURLString_EntropyHint(t *testing.T) {
	const n = 32
	a, err := MakeRandURLString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MakeRandURLString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Logf("warning: two MakeRandURLString(%d) results are identical; extremely unlikely", n)
	}
}
