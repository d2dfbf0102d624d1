package utils

import "strings"

// ValidShopDomain reports whether the value looks like a myshopify domain
// (store-name.myshopify.com). OAuth endpoints reject anything else before
// redirecting, so the handshake can never be pointed at an arbitrary host.
func ValidShopDomain(domain string) bool {
	const suffix = ".myshopify.com"
	if !strings.HasSuffix(domain, suffix) {
		return false
	}
	name := strings.TrimSuffix(domain, suffix)
	if name == "" || len(name) > 100 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return name[0] != '-' && name[len(name)-1] != '-'
}
