// Package cipher implements the symmetric authenticated-encryption service
// used for sensitive fields at rest and for whole-database backups.
//
// The service wraps AES-256-GCM with a single process-wide key. A fresh
// random nonce is generated per call and prepended to the ciphertext, so
// encrypting the same plaintext twice yields different blobs. When no key is
// configured the service is constructed disabled and every call fails with
// common.ErrKeyUnavailable; callers degrade gracefully (fields stored absent).
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/savelyev/securesms/internal/common"
)

const keySize = 32

// Service performs authenticated encryption with a fixed key. It is stateless
// apart from the key and safe for unsynchronized concurrent use.
type Service struct {
	aead gocipher.AEAD
}

// New builds a Service from a base64-encoded 32-byte key. An empty key yields
// a disabled service rather than an error, so a misconfigured deployment
// still starts; the caller should surface Enabled() to operators.
func New(encodedKey string) (*Service, error) {
	if encodedKey == "" {
		return &Service{}, nil
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Service{aead: aead}, nil
}

// Enabled reports whether a key is configured.
func (s *Service) Enabled() bool {
	return s.aead != nil
}

// Encrypt seals plaintext under a fresh nonce and returns nonce||ciphertext.
func (s *Service) Encrypt(plaintext []byte) ([]byte, error) {
	if s.aead == nil {
		return nil, common.ErrKeyUnavailable
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. Truncated or tampered input, or
// input sealed under a different key, fails with common.ErrInvalidCiphertext;
// partial plaintext is never returned.
func (s *Service) Decrypt(blob []byte) ([]byte, error) {
	if s.aead == nil {
		return nil, common.ErrKeyUnavailable
	}

	if len(blob) < s.aead.NonceSize() {
		return nil, common.ErrInvalidCiphertext
	}

	nonce, ciphertext := blob[:s.aead.NonceSize()], blob[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrInvalidCiphertext
	}

	return plaintext, nil
}
