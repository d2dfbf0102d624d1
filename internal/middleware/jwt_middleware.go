package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/priceforge/priceforge_api/internal/utils"
)

// JWTMiddleware guards the admin dashboard routes. Operators sign in with
// email and password and carry the resulting session token as a Bearer
// header on every dashboard request.
type JWTMiddleware struct{}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired session")
			c.Abort()
			return
		}

		c.Set("admin_id", claims.UserID)
		c.Set("admin_email", claims.Email)
		c.Next()
	}
}

// AdminID returns the authenticated operator's id, 0 when unauthenticated.
func AdminID(c *gin.Context) int {
	if v, ok := c.Get("admin_id"); ok {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

// AdminEmail returns the authenticated operator's email for audit logging.
func AdminEmail(c *gin.Context) string {
	if v, ok := c.Get("admin_email"); ok {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}
