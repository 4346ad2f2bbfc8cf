package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewAPIKeyToken returns a random 32-byte URL-safe bearer token.
func NewAPIKeyToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
