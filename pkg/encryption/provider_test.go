package encryption

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

var testKey = strings.Repeat("ab", 32) // 32 bytes hex encoded

func TestRoundTrip(t *testing.T) {
	for _, kind := range []string{"aesgcm", "xchacha"} {
		t.Run(kind, func(t *testing.T) {
			p, err := NewProvider(kind, testKey)
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if p.Name() != kind {
				t.Errorf("Name = %q, want %q", p.Name(), kind)
			}

			plaintext := []byte("BP 128/82, HR 74. Continued on lisinopril 10mg daily.")
			sealed, err := p.Encrypt(plaintext)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if bytes.Contains(sealed, plaintext) {
				t.Fatal("ciphertext contains plaintext")
			}

			opened, err := p.Decrypt(sealed)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Errorf("round trip mismatch: got %q", opened)
			}
		})
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	for _, kind := range []string{"aesgcm", "xchacha"} {
		t.Run(kind, func(t *testing.T) {
			p1, _ := NewProvider(kind, testKey)
			p2, _ := NewProvider(kind, strings.Repeat("cd", 32))

			sealed, err := p1.Encrypt([]byte("secret"))
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if _, err := p2.Decrypt(sealed); err == nil {
				t.Fatal("Decrypt with wrong key should fail")
			}
		})
	}
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	p, _ := NewProvider("aesgcm", testKey)
	if _, err := p.Decrypt([]byte{0x01, 0x02}); err == nil {
		t.Fatal("truncated ciphertext should fail")
	}
}

func TestNewProviderRejectsBadKeys(t *testing.T) {
	if _, err := NewProvider("aesgcm", "not-hex"); err == nil {
		t.Error("non-hex key should be rejected")
	}
	if _, err := NewProvider("aesgcm", hex.EncodeToString([]byte("short"))); err == nil {
		t.Error("short key should be rejected")
	}
	if _, err := NewProvider("rot13", testKey); err == nil {
		t.Error("unknown provider should be rejected")
	}
}
