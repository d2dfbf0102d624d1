package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidAuthRateLimiter(t *testing.T) {
	rl := NewInvalidAuthRateLimiter()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "attempt %d within limit", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "sixth attempt in window is blocked")

	// Other IPs are tracked independently.
	assert.True(t, rl.Allow("10.0.0.2"))
}
