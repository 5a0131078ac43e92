package security

import (
	"errors"
	"strings"
	"testing"
)

func TestCredentialSealer_RoundTrip(t *testing.T) {
	sealer, err := NewCredentialSealer("session-secret-for-tests")
	if err != nil {
		t.Fatalf("NewCredentialSealer returned error: %v", err)
	}

	sealed, err := sealer.Seal("naver-blog-pass!")
	if err != nil {
		t.Fatalf("Seal returned error: %v", err)
	}
	if strings.Contains(sealed, "naver-blog-pass") {
		t.Fatal("sealed value must not contain the plaintext")
	}

	opened, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if opened != "naver-blog-pass!" {
		t.Errorf("Open() = %q, want %q", opened, "naver-blog-pass!")
	}
}

func TestCredentialSealer_NonceIsRandom(t *testing.T) {
	sealer, _ := NewCredentialSealer("session-secret-for-tests")

	a, _ := sealer.Seal("same")
	b, _ := sealer.Seal("same")
	if a == b {
		t.Error("sealing the same plaintext twice should produce different ciphertexts")
	}
}

func TestCredentialSealer_Empty(t *testing.T) {
	sealer, _ := NewCredentialSealer("session-secret-for-tests")

	sealed, err := sealer.Seal("")
	if err != nil || sealed != "" {
		t.Errorf("Seal(\"\") = %q, %v; want empty, nil", sealed, err)
	}
	opened, err := sealer.Open("")
	if err != nil || opened != "" {
		t.Errorf("Open(\"\") = %q, %v; want empty, nil", opened, err)
	}
}

func TestCredentialSealer_WrongKey(t *testing.T) {
	a, _ := NewCredentialSealer("secret-a")
	b, _ := NewCredentialSealer("secret-b")

	sealed, _ := a.Seal("password")
	if _, err := b.Open(sealed); !errors.Is(err, ErrUnsealFailed) {
		t.Errorf("err = %v, want ErrUnsealFailed", err)
	}
}

func TestCredentialSealer_Corrupted(t *testing.T) {
	sealer, _ := NewCredentialSealer("secret")

	inputs := []string{"not base64!!", "c2hvcnQ=", strings.Repeat("A", 64)}
	for _, in := range inputs {
		if _, err := sealer.Open(in); !errors.Is(err, ErrUnsealFailed) {
			t.Errorf("Open(%q) err = %v, want ErrUnsealFailed", in, err)
		}
	}
}

func TestNewCredentialSealer_EmptySecret(t *testing.T) {
	if _, err := NewCredentialSealer(""); err == nil {
		t.Error("expected error for empty secret")
	}
}
