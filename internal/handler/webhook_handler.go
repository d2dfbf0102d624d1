package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/config"
	"github.com/priceforge/priceforge_api/internal/service"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// WebhookHandler receives Shopify webhook deliveries.
type WebhookHandler struct {
	shops *service.ShopService
	cfg   *config.Config
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(shops *service.ShopService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{shops: shops, cfg: cfg}
}

// Uninstalled handles POST /webhook/shopify/uninstalled
// Shopify signs webhook bodies with the app secret; a delivery with a bad
// HMAC is acknowledged with 401 and ignored. Processing errors still return
// 200 so Shopify does not retry forever against a dead shop.
func (h *WebhookHandler) Uninstalled(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Failed to read webhook body")
		return
	}

	hmacHeader := c.GetHeader("X-Shopify-Hmac-Sha256")
	if !utils.VerifyWebhookHMAC(body, hmacHeader, h.cfg.Shopify.APISecret) {
		log.Warn().Str("topic", c.GetHeader("X-Shopify-Topic")).Msg("Webhook with bad HMAC rejected")
		utils.Error(c, 401, "INVALID_SIGNATURE", "HMAC verification failed")
		return
	}

	shopDomain := c.GetHeader("X-Shopify-Shop-Domain")
	if shopDomain == "" {
		var payload struct {
			Domain string `json:"myshopify_domain"`
		}
		_ = json.Unmarshal(body, &payload)
		shopDomain = payload.Domain
	}
	if shopDomain == "" {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing shop domain")
		return
	}

	if err := h.shops.HandleUninstalled(c.Request.Context(), shopDomain); err != nil {
		log.Error().Err(err).Str("shop", shopDomain).Msg("Failed to process uninstall webhook")
	}

	utils.Success(c, 200, "Webhook processed", nil)
}
