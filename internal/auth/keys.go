// Package auth provides password hashing and signed, time-limited tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	secretLength = 32
	// Shortest secret accepted from configuration.
	minSecretLength = 16
)

// LoadOrGenerateSecret returns the signing secret stored in <dataPath>/auth.key,
// generating and persisting a random one when the file does not exist.
func LoadOrGenerateSecret(dataPath string) (string, error) {
	keyPath := filepath.Join(dataPath, "auth.key")

	//#nosec G304 -- path is derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		secret := strings.TrimSpace(string(raw))
		if len(secret) < minSecretLength {
			return "", fmt.Errorf("auth key in %s is too short: %d chars", keyPath, len(secret))
		}
		return secret, nil
	}

	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate auth key: %w", err)
	}
	secret := hex.EncodeToString(buf)

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(secret), 0o600); err != nil {
		return "", fmt.Errorf("failed to save auth key: %w", err)
	}

	return secret, nil
}

// DeriveKey expands secret into a 32-byte key bound to purpose with HKDF-SHA256.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("derive key: empty secret")
	}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	key := make([]byte, secretLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
