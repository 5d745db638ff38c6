// Package crypto seals free-text report fields at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks values written by Seal. Values without it are returned
// by Open untouched, so rows written before a key was configured stay readable.
const sealedPrefix = "enc:v1:"

// FieldCipher seals and opens individual text columns. A nil *FieldCipher
// is valid and passes values through unchanged.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher creates a FieldCipher from a hex-encoded 32-byte key.
// An empty key returns nil (sealing disabled).
func NewFieldCipher(hexKey string) (*FieldCipher, error) {
	if hexKey == "" {
		return nil, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &FieldCipher{aead: aead}, nil
}

// Seal encrypts plaintext into a prefixed base64 string.
func (c *FieldCipher) Seal(plaintext string) (string, error) {
	if c == nil {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Unprefixed values are returned as-is.
func (c *FieldCipher) Open(value string) (string, error) {
	if c == nil || !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("decoding base64: %w", err)
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	return string(plaintext), nil
}

// SealAll seals each referenced string in place.
func (c *FieldCipher) SealAll(fields ...*string) error {
	for _, f := range fields {
		v, err := c.Seal(*f)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// OpenAll opens each referenced string in place.
func (c *FieldCipher) OpenAll(fields ...*string) error {
	for _, f := range fields {
		v, err := c.Open(*f)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}
