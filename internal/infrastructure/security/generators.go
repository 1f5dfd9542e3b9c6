// Package security covers credential handling for the admin API: id and
// secret generation, AES-GCM encryption of token nonces, and the dashboard
// JWT lifecycle.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// GenerateULID returns a new lexicographically sortable id. Every catalog
// entity and draft session gets its id from here.
func GenerateULID() string {
	return ulid.Make().String()
}

// GenerateSecureToken returns a URL-safe random token of the given byte
// length, used for tenant activation links.
func GenerateSecureToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// GenerateSecureKey returns a random hex string of the given character
// length. Provisioning mints per-tenant JWT and AES secrets with it.
func GenerateSecureKey(length int) (string, error) {
	buf := make([]byte, length/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
