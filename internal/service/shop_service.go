package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/cache"
	"github.com/priceforge/priceforge_api/internal/config"
	"github.com/priceforge/priceforge_api/internal/models"
	"github.com/priceforge/priceforge_api/internal/repository"
	"github.com/priceforge/priceforge_api/internal/utils"
	"github.com/priceforge/priceforge_api/pkg/shopify"
)

// oauthStateTTL bounds how long an install handshake may take.
const oauthStateTTL = 10 * time.Minute

// ShopService owns the Shopify app lifecycle: OAuth install, script tag
// registration, and uninstall cleanup.
type ShopService struct {
	shopRepo      *repository.ShopRepository
	templateCache *cache.TemplateCache
	redis         *cache.RedisClient
	client        *shopify.Client
	cfg           *config.Config
}

// NewShopService creates a new ShopService.
func NewShopService(
	shopRepo *repository.ShopRepository,
	templateCache *cache.TemplateCache,
	redis *cache.RedisClient,
	client *shopify.Client,
	cfg *config.Config,
) *ShopService {
	return &ShopService{
		shopRepo:      shopRepo,
		templateCache: templateCache,
		redis:         redis,
		client:        client,
		cfg:           cfg,
	}
}

// BeginInstall starts the OAuth handshake for a shop domain and returns the
// authorization URL to redirect the merchant to. The state nonce is kept in
// Redis until the callback consumes it.
func (s *ShopService) BeginInstall(ctx context.Context, shopDomain string) (string, error) {
	if !utils.ValidShopDomain(shopDomain) {
		return "", utils.ErrInvalidShop
	}

	state, err := utils.GenerateOAuthState()
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, "oauth:state:"+state, shopDomain, oauthStateTTL); err != nil {
		return "", err
	}

	redirectURI := s.cfg.AppURL + "/v1/auth/callback"
	return s.client.AuthorizeURL(shopDomain, s.cfg.Shopify.Scopes, redirectURI, state), nil
}

// CompleteInstall finishes the OAuth handshake: verifies the state nonce,
// exchanges the code, provisions the shop record with fresh storefront
// credentials, and registers the widget script tag plus the uninstall webhook.
func (s *ShopService) CompleteInstall(ctx context.Context, shopDomain, code, state string) (*models.Shop, error) {
	stored, err := s.redis.Get(ctx, "oauth:state:"+state)
	if err != nil || stored != shopDomain {
		return nil, utils.ErrInvalidSignature
	}
	_ = s.redis.Delete(ctx, "oauth:state:"+state)

	tokenResp, err := s.client.ExchangeToken(ctx, shopDomain, code)
	if err != nil {
		log.Error().Err(err).Str("shop", shopDomain).Msg("OAuth token exchange failed")
		return nil, err
	}

	apiToken, err := utils.GenerateStorefrontToken()
	if err != nil {
		return nil, err
	}
	webhookSecret, err := utils.GenerateWebhookSecret()
	if err != nil {
		return nil, err
	}

	shop := &models.Shop{
		ShopDomain:        shopDomain,
		AccessToken:       tokenResp.AccessToken,
		APIToken:          apiToken,
		WebhookSecret:     webhookSecret,
		Currency:          "USD",
		CurrencyPrecision: 2,
	}
	if remote, err := s.client.GetShop(ctx, shopDomain, tokenResp.AccessToken); err == nil && remote.Currency != "" {
		shop.Currency = remote.Currency
	}
	shop.CurrencyPrecision = utils.PrecisionForCurrency(shop.Currency)

	if err := s.shopRepo.Upsert(shop); err != nil {
		log.Error().Err(err).Str("shop", shopDomain).Msg("Failed to persist shop")
		return nil, err
	}

	s.registerScriptTag(ctx, shop)
	s.registerUninstallWebhook(ctx, shop)

	log.Info().Str("shop", shopDomain).Int("shop_id", shop.ID).Msg("Shop installed")
	return shop, nil
}

// registerScriptTag installs the storefront widget script, replacing stale
// registrations from earlier installs.
func (s *ShopService) registerScriptTag(ctx context.Context, shop *models.Shop) {
	if s.cfg.Shopify.ScriptURL == "" {
		return
	}

	tags, err := s.client.ListScriptTags(ctx, shop.ShopDomain, shop.AccessToken)
	if err == nil {
		for _, tag := range tags {
			if tag.Src != s.cfg.Shopify.ScriptURL {
				_ = s.client.DeleteScriptTag(ctx, shop.ShopDomain, shop.AccessToken, tag.ID)
			}
		}
	}

	tag, err := s.client.CreateScriptTag(ctx, shop.ShopDomain, shop.AccessToken, s.cfg.Shopify.ScriptURL)
	if err != nil {
		log.Error().Err(err).Str("shop", shop.ShopDomain).Msg("Failed to register script tag")
		return
	}
	if err := s.shopRepo.SetScriptTagID(shop.ID, &tag.ID); err != nil {
		log.Warn().Err(err).Str("shop", shop.ShopDomain).Msg("Failed to store script tag id")
	}
}

func (s *ShopService) registerUninstallWebhook(ctx context.Context, shop *models.Shop) {
	address := s.cfg.AppURL + "/webhook/shopify/uninstalled"
	if _, err := s.client.CreateWebhook(ctx, shop.ShopDomain, shop.AccessToken, "app/uninstalled", address); err != nil {
		log.Error().Err(err).Str("shop", shop.ShopDomain).Msg("Failed to register uninstall webhook")
	}
}

// HandleUninstalled deactivates a shop after the app/uninstalled webhook and
// drops its cached templates. The shop row is kept for reinstall history.
func (s *ShopService) HandleUninstalled(ctx context.Context, shopDomain string) error {
	shop, err := s.shopRepo.GetByDomain(shopDomain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrShopNotFound
		}
		return err
	}

	if err := s.shopRepo.Deactivate(shopDomain, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.templateCache.InvalidateShop(ctx, shop.ID); err != nil {
		log.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to invalidate cache on uninstall")
	}

	log.Info().Str("shop", shopDomain).Msg("Shop uninstalled")
	return nil
}

// GetByDomain returns the installed shop for a domain.
func (s *ShopService) GetByDomain(domain string) (*models.Shop, error) {
	shop, err := s.shopRepo.GetByDomain(domain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrShopNotFound
		}
		return nil, err
	}
	return shop, nil
}

// RefreshScriptTags re-asserts the script tag registration for every active
// shop. Called periodically by the script tag worker so merchants who removed
// the tag by hand get it back.
func (s *ShopService) RefreshScriptTags(ctx context.Context) (int, error) {
	shops, err := s.shopRepo.ListActive()
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for i := range shops {
		shop := &shops[i]
		if shop.AccessToken == "" {
			continue
		}
		tags, err := s.client.ListScriptTags(ctx, shop.ShopDomain, shop.AccessToken)
		if err != nil {
			log.Warn().Err(err).Str("shop", shop.ShopDomain).Msg("Failed to list script tags")
			continue
		}
		present := false
		for _, tag := range tags {
			if tag.Src == s.cfg.Shopify.ScriptURL {
				present = true
				break
			}
		}
		if present {
			continue
		}
		s.registerScriptTag(ctx, shop)
		refreshed++
	}
	return refreshed, nil
}

// WidgetScriptURL returns the configured storefront script source, used by
// the health/status endpoint.
func (s *ShopService) WidgetScriptURL() string {
	return s.cfg.Shopify.ScriptURL
}
