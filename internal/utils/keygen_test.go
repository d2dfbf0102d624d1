package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStorefrontToken(t *testing.T) {
	token, err := GenerateStorefrontToken()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "pf_live_"))
	assert.Len(t, token, len("pf_live_")+64)

	other, err := GenerateStorefrontToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateWebhookSecret(t *testing.T) {
	secret, err := GenerateWebhookSecret()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(secret, "pf_secret_"))
}

func TestGenerateOAuthState(t *testing.T) {
	state, err := GenerateOAuthState()
	require.NoError(t, err)
	assert.Len(t, state, 32)

	other, err := GenerateOAuthState()
	require.NoError(t, err)
	assert.NotEqual(t, state, other)
}
