package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidShopDomain(t *testing.T) {
	valid := []string{
		"acme.myshopify.com",
		"my-store-2.myshopify.com",
		"a.myshopify.com",
	}
	for _, d := range valid {
		assert.True(t, ValidShopDomain(d), d)
	}

	invalid := []string{
		"",
		"myshopify.com",
		".myshopify.com",
		"acme.shopify.com",
		"acme.myshopify.com.evil.com",
		"Acme.myshopify.com",
		"-acme.myshopify.com",
		"acme-.myshopify.com",
		"ac me.myshopify.com",
	}
	for _, d := range invalid {
		assert.False(t, ValidShopDomain(d), d)
	}
}
