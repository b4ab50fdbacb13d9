package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// XChaChaProvider implements Provider with XChaCha20-Poly1305. The extended
// nonce makes random nonces safe at any write volume.
type XChaChaProvider struct {
	aead cipher.AEAD
}

func NewXChaChaProvider(key []byte) (*XChaChaProvider, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("xchacha20poly1305: %w", err)
	}
	return &XChaChaProvider{aead: aead}, nil
}

func (p *XChaChaProvider) Name() string { return "xchacha" }

func (p *XChaChaProvider) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return p.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (p *XChaChaProvider) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < p.aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, body := ciphertext[:p.aead.NonceSize()], ciphertext[p.aead.NonceSize():]
	plaintext, err := p.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plaintext, nil
}
