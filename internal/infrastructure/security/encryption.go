// Package security provides AES encryption utilities
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
)

// normalizeKey hex-decodes the key when it looks like a hex string, falling
// back to raw bytes. AES requires a 16, 24, or 32 byte key.
func normalizeKey(key string) ([]byte, error) {
	keyBytes := []byte(key)
	if len(key) == 32 || len(key) == 48 || len(key) == 64 {
		if decoded, err := hex.DecodeString(key); err == nil {
			switch len(decoded) {
			case 16, 24, 32:
				keyBytes = decoded
			}
		}
	}

	switch len(keyBytes) {
	case 16, 24, 32:
		return keyBytes, nil
	}
	return nil, errors.New("invalid key length")
}

func aead(key string) (cipher.AEAD, error) {
	keyBytes, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals data with AES-GCM under key, returning base64 with the
// nonce prepended.
func Encrypt(data, key string) (string, error) {
	if key == "" {
		return "", errors.New("empty encryption key")
	}

	gcm, err := aead(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(data), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func Decrypt(encrypted, key string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	gcm, err := aead(key)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", errors.New("invalid ciphertext")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
