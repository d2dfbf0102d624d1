package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"total":750}`)
	sig := GenerateSignature(payload, "secret")

	assert.True(t, VerifySignature(payload, sig, "secret"))
	assert.False(t, VerifySignature(payload, sig, "other-secret"))
	assert.False(t, VerifySignature([]byte("tampered"), sig, "secret"))
}

func TestVerifyWebhookHMAC(t *testing.T) {
	payload := []byte(`{"myshopify_domain":"acme.myshopify.com"}`)

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write(payload)
	header := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifyWebhookHMAC(payload, header, "app-secret"))
	assert.False(t, VerifyWebhookHMAC(payload, header, "wrong"))
	assert.False(t, VerifyWebhookHMAC(payload, "not-base64-hmac", "app-secret"))
}

func TestVerifyQuerySignature(t *testing.T) {
	query := url.Values{}
	query.Set("shop", "acme.myshopify.com")
	query.Set("code", "abc123")
	query.Set("timestamp", "1700000000")

	// Signed message: sorted key=value pairs joined with '&', hmac excluded.
	message := "code=abc123&shop=acme.myshopify.com&timestamp=1700000000"
	query.Set("hmac", GenerateSignature([]byte(message), "app-secret"))

	assert.True(t, VerifyQuerySignature(query, "app-secret"))
	assert.False(t, VerifyQuerySignature(query, "wrong-secret"))

	query.Set("shop", "evil.myshopify.com")
	assert.False(t, VerifyQuerySignature(query, "app-secret"))
}

func TestVerifyQuerySignatureMissingHMAC(t *testing.T) {
	query := url.Values{}
	query.Set("shop", "acme.myshopify.com")
	assert.False(t, VerifyQuerySignature(query, "app-secret"))
}
