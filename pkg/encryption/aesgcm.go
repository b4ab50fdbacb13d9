package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// AESGCMProvider implements Provider with AES-256-GCM.
type AESGCMProvider struct {
	aead cipher.AEAD
}

func NewAESGCMProvider(key []byte) (*AESGCMProvider, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm mode: %w", err)
	}
	return &AESGCMProvider{aead: aead}, nil
}

func (p *AESGCMProvider) Name() string { return "aesgcm" }

func (p *AESGCMProvider) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return p.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (p *AESGCMProvider) Decrypt(ciphertext []byte) ([]byte, error) {
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
