package sqlite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrSecretKeyRequired is returned when a stored password was encrypted but
// the repository was opened without a key.
var ErrSecretKeyRequired = errors.New("stored password is encrypted: set MIKROMON_SECRET_KEY")

// secretBox seals router passwords with AES-256-GCM. A nil key stores
// passwords as-is.
type secretBox struct {
	key []byte
}

// seal returns the stored form of plaintext and whether it is encrypted.
func (b secretBox) seal(plaintext string) (string, bool, error) {
	if b.key == nil || plaintext == "" {
		return plaintext, false, nil
	}

	gcm, err := b.aead()
	if err != nil {
		return "", false, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", false, fmt.Errorf("rand nonce: %w", err)
	}

	// nonce || ciphertext || tag
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), true, nil
}

// open reverses seal.
func (b secretBox) open(stored string, encrypted bool) (string, error) {
	if !encrypted {
		return stored, nil
	}
	if b.key == nil {
		return "", ErrSecretKeyRequired
	}

	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := b.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}
	return string(plaintext), nil
}

func (b secretBox) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
