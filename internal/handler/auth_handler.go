package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/config"
	"github.com/priceforge/priceforge_api/internal/service"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// AuthHandler handles admin login and the Shopify OAuth install flow.
type AuthHandler struct {
	adminAuth *service.AdminAuthService
	shops     *service.ShopService
	cfg       *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(adminAuth *service.AdminAuthService, shops *service.ShopService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{adminAuth: adminAuth, shops: shops, cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, err := h.adminAuth.Login(req.Email, req.Password)
	if err != nil {
		utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{"token": token})
}

type installRequest struct {
	Shop string `json:"shop" binding:"required"`
}

// BeginInstall handles POST /v1/auth/install
func (h *AuthHandler) BeginInstall(c *gin.Context) {
	var req installRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	authorizeURL, err := h.shops.BeginInstall(c.Request.Context(), req.Shop)
	if err != nil {
		if err == utils.ErrInvalidShop {
			utils.Error(c, 400, "INVALID_SHOP", "Not a valid myshopify.com domain")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to start installation")
		return
	}

	utils.Success(c, 200, "Redirect the merchant to authorize", gin.H{"authorizeUrl": authorizeURL})
}

// OAuthCallback handles GET /v1/auth/callback
// Shopify signs the callback query with the app secret; verify before the
// code exchange.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	query := c.Request.URL.Query()
	shopDomain := query.Get("shop")
	code := query.Get("code")
	state := query.Get("state")

	if shopDomain == "" || code == "" || state == "" {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing shop, code, or state parameter")
		return
	}
	if !utils.ValidShopDomain(shopDomain) {
		utils.Error(c, 400, "INVALID_SHOP", "Not a valid myshopify.com domain")
		return
	}
	if !utils.VerifyQuerySignature(query, h.cfg.Shopify.APISecret) {
		log.Warn().Str("shop", shopDomain).Msg("OAuth callback with bad HMAC")
		utils.Error(c, 401, "INVALID_SIGNATURE", "HMAC verification failed")
		return
	}

	shop, err := h.shops.CompleteInstall(c.Request.Context(), shopDomain, code, state)
	if err != nil {
		if err == utils.ErrInvalidSignature {
			utils.Error(c, 401, "INVALID_STATE", "Unknown or expired OAuth state")
			return
		}
		utils.Error(c, 502, "INSTALL_FAILED", "Installation could not be completed")
		return
	}

	utils.Success(c, 200, "App installed", gin.H{
		"shopDomain": shop.ShopDomain,
		"apiToken":   shop.APIToken,
		"currency":   shop.Currency,
	})
}
