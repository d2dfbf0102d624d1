package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Allowed hosts for the admin dashboard (origin is checked by host to cover
// all URL variants). Storefront routes are handled separately: the widget is
// embedded on arbitrary shop domains, so those echo any origin.
var allowedAdminHosts = map[string]bool{
	"localhost:3000": true,
	"127.0.0.1:3000": true,
}

// AllowAdminHost registers an additional dashboard host at startup.
func AllowAdminHost(host string) {
	if host != "" {
		allowedAdminHosts[strings.ToLower(host)] = true
	}
}

// originHost returns the host part of origin or referer URL, or empty if invalid.
// Strips default ports (:443, :80) so "shop.example.com:443" matches "shop.example.com".
func originHost(raw string) string {
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "/"))
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if strings.HasSuffix(host, ":443") || strings.HasSuffix(host, ":80") {
		host, _, _ = strings.Cut(host, ":")
	}
	return host
}

// CORSMiddleware handles Cross-Origin Resource Sharing (CORS) headers.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		origin = strings.TrimSpace(strings.TrimSuffix(origin, "/"))
		host := originHost(origin)

		storefront := strings.HasPrefix(c.Request.URL.Path, "/v1/storefront")
		if host != "" && (storefront || allowedAdminHosts[host]) {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		if !storefront {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Api-Key")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Header("Access-Control-Max-Age", "86400")

		// Handle preflight request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
