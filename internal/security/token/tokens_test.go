package tokens

import (
	"strings"
	"testing"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken: %v", err)
	}
	b, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken: %v", err)
	}
	if a == b {
		t.Fatal("two tokens are identical")
	}
	// 32 bytes -> 43 chars base64url sin padding
	if len(a) != 43 {
		t.Fatalf("token length = %d, want 43", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("token %q is not url-safe", a)
	}
}

func TestSHA256Hex(t *testing.T) {
	// vector conocido: sha256("abc")
	got := SHA256Hex("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("SHA256Hex(abc) = %q, want %q", got, want)
	}
}

func TestSHA256Base64URL(t *testing.T) {
	got := SHA256Base64URL("abc")
	if got != SHA256Base64URL("abc") {
		t.Fatal("hash is not deterministic")
	}
	if len(got) != 43 {
		t.Fatalf("hash length = %d, want 43", len(got))
	}
	if strings.ContainsAny(got, "+/=") {
		t.Fatalf("hash %q is not url-safe", got)
	}
}
