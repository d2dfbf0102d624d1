package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateAPIKey generates a random API key with the given prefix.
// Format: prefix_randomhex
// Example: pf_live_a1b2c3d4e5f6...
func GenerateAPIKey(prefix string) (string, error) {
	b := make([]byte, 32) // 64 char hex
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}

// GenerateStorefrontToken generates the per-shop storefront API token that
// the injected widget script sends with calculate requests: pf_live_xxx
func GenerateStorefrontToken() (string, error) {
	return GenerateAPIKey("pf_live")
}

// GenerateWebhookSecret generates a per-shop webhook secret: pf_secret_xxx
func GenerateWebhookSecret() (string, error) {
	return GenerateAPIKey("pf_secret")
}

// GenerateOAuthState generates the nonce carried through the OAuth handshake.
func GenerateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
