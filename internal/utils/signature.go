package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// GenerateSignature creates a hex-encoded HMAC-SHA256 signature.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature validates a hex-encoded HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// VerifyWebhookHMAC validates the base64 HMAC-SHA256 header Shopify sends
// with webhook deliveries (X-Shopify-Hmac-Sha256).
func VerifyWebhookHMAC(payload []byte, headerValue, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(headerValue), []byte(expected))
}

// VerifyQuerySignature validates the hmac parameter of OAuth callbacks and
// app-proxy requests: parameters are sorted, joined key=value with '&', and
// signed with the app secret. The hmac/signature parameters themselves are
// excluded from the signed message.
func VerifyQuerySignature(query url.Values, secret string) bool {
	provided := query.Get("hmac")
	if provided == "" {
		provided = query.Get("signature")
	}
	if provided == "" {
		return false
	}

	pairs := make([]string, 0, len(query))
	for key, values := range query {
		if key == "hmac" || key == "signature" {
			continue
		}
		pairs = append(pairs, key+"="+strings.Join(values, ","))
	}
	sort.Strings(pairs)

	return VerifySignature([]byte(strings.Join(pairs, "&")), provided, secret)
}
