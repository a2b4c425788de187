package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateCardNumber(t *testing.T) {
	number, err := GenerateCardNumber("400000", 16)
	if err != nil {
		t.Fatalf("GenerateCardNumber: %v", err)
	}
	if len(number) != 16 {
		t.Errorf("length = %d, want 16", len(number))
	}
	if !strings.HasPrefix(number, "400000") {
		t.Errorf("number %q missing prefix", number)
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			t.Errorf("non-digit %q in card number %q", c, number)
		}
	}

	if _, err := GenerateCardNumber("400000", 4); err == nil {
		t.Error("expected error for length shorter than prefix")
	}
	if _, err := GenerateCardNumber("400000", 20); err == nil {
		t.Error("expected error for length over 19")
	}
}

func TestGenerateCVV(t *testing.T) {
	cvv := GenerateCVV()
	if len(cvv) != 3 {
		t.Fatalf("cvv length = %d, want 3", len(cvv))
	}
	for _, c := range cvv {
		if c < '0' || c > '9' {
			t.Errorf("non-digit %q in cvv %q", c, cvv)
		}
	}
}

func TestDefaultCardExpiry(t *testing.T) {
	decided := time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC)
	want := time.Date(2029, time.August, 30, 10, 0, 0, 0, time.UTC)
	if got := DefaultCardExpiry(decided); !got.Equal(want) {
		t.Errorf("DefaultCardExpiry(%s) = %s, want %s", decided, got, want)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := []byte("a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6") // 32 bytes
	plaintexts := []string{"4000001234567890", "12/27", "x"}
	for _, plain := range plaintexts {
		encrypted, err := Encrypt(plain, key)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plain, err)
		}
		if encrypted == plain {
			t.Errorf("ciphertext equals plaintext for %q", plain)
		}
		decrypted, err := Decrypt(encrypted, key)
		if err != nil {
			t.Fatalf("Decrypt(%q): %v", plain, err)
		}
		if decrypted != plain {
			t.Errorf("round trip = %q, want %q", decrypted, plain)
		}
	}

	if _, err := Encrypt("data", []byte("short")); err == nil {
		t.Error("expected error for bad key size")
	}
	if _, err := Decrypt("not-hex", key); err == nil {
		t.Error("expected error for invalid ciphertext")
	}
}

func TestGenerateHMACDeterministic(t *testing.T) {
	a := GenerateHMAC("4000001234567890", "12/27", "123", "secret")
	b := GenerateHMAC("4000001234567890", "12/27", "123", "secret")
	if a != b {
		t.Error("HMAC not deterministic for equal input")
	}
	c := GenerateHMAC("4000001234567890", "12/27", "124", "secret")
	if a == c {
		t.Error("HMAC identical for different input")
	}
}
