// Package encryption provides the at-rest encryption strategy for record
// snippets. The provider is chosen once at bootstrap and injected as a fixed
// dependency; nothing downstream branches on which one is active.
package encryption

import (
	"encoding/hex"
	"fmt"
)

// Provider seals and opens record payloads. Nonces are generated per call and
// prepended to the ciphertext.
type Provider interface {
	Name() string
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// NewProvider builds the configured provider from a 32-byte hex key.
func NewProvider(kind, keyHex string) (Provider, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	switch kind {
	case "aesgcm":
		return NewAESGCMProvider(key)
	case "xchacha":
		return NewXChaChaProvider(key)
	default:
		return nil, fmt.Errorf("unsupported encryption provider: %s", kind)
	}
}
