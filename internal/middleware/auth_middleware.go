package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/priceforge/priceforge_api/internal/models"
	"github.com/priceforge/priceforge_api/internal/service"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// ShopAuthMiddleware authenticates storefront widget requests via the
// per-shop API token.
type ShopAuthMiddleware struct {
	authService *service.AuthService
	rateLimiter *InvalidAuthRateLimiter
}

// NewShopAuthMiddleware constructs a new ShopAuthMiddleware.
func NewShopAuthMiddleware(authService *service.AuthService) *ShopAuthMiddleware {
	return &ShopAuthMiddleware{
		authService: authService,
		rateLimiter: NewInvalidAuthRateLimiter(),
	}
}

// Handle returns a Gin middleware function that enforces authentication.
// The widget sends its token either as a Bearer header or X-Api-Key.
func (m *ShopAuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Api-Key")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if token == "" {
			m.handleAuthError(c, "INVALID_TOKEN", "Missing storefront token")
			return
		}

		shop, err := m.authService.ValidateStorefrontToken(token)
		if err != nil {
			m.handleAuthError(c, "INVALID_TOKEN", "Invalid storefront token")
			return
		}

		c.Set("shop", shop)
		c.Set("shop_id", shop.ID)

		c.Next()
	}
}

func (m *ShopAuthMiddleware) handleAuthError(c *gin.Context, code, message string) {
	// Apply rate limit for invalid auth attempts
	ip := c.ClientIP()
	if !m.rateLimiter.Allow(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}

// GetShop returns the authenticated shop from context.
func GetShop(c *gin.Context) *models.Shop {
	shop, _ := c.Get("shop")
	if shop == nil {
		return nil
	}
	return shop.(*models.Shop)
}
