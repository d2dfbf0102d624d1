package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/priceforge/priceforge_api/internal/models"
)

// templateTTL bounds staleness if an invalidation is ever lost; saves always
// invalidate explicitly.
const templateTTL = 15 * time.Minute

// TemplateCache stores resolved template snapshots so the storefront
// calculate path can skip the scope-matching query on hot products.
// Primary key: template:tpl:{shopId}:{templateId}
// Match key:   template:match:{shopId}:{productKey} - points to templateId
type TemplateCache struct {
	redis *RedisClient
}

// NewTemplateCache creates a new TemplateCache.
func NewTemplateCache(redis *RedisClient) *TemplateCache {
	return &TemplateCache{redis: redis}
}

func (c *TemplateCache) keyTemplate(shopID, templateID int) string {
	return fmt.Sprintf("template:tpl:%d:%d", shopID, templateID)
}

func (c *TemplateCache) keyMatch(shopID int, productKey string) string {
	return fmt.Sprintf("template:match:%d:%s", shopID, productKey)
}

// SetTemplate stores a template snapshot.
func (c *TemplateCache) SetTemplate(ctx context.Context, tpl *models.Template) error {
	data, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	return c.redis.Set(ctx, c.keyTemplate(tpl.ShopID, tpl.ID), string(data), templateTTL)
}

// GetTemplate retrieves a template snapshot, or redis.Nil-wrapped error on miss.
func (c *TemplateCache) GetTemplate(ctx context.Context, shopID, templateID int) (*models.Template, error) {
	data, err := c.redis.Get(ctx, c.keyTemplate(shopID, templateID))
	if err != nil {
		return nil, err
	}
	var tpl models.Template
	if err := json.Unmarshal([]byte(data), &tpl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}
	return &tpl, nil
}

// SetMatch records which template matched a storefront product key.
func (c *TemplateCache) SetMatch(ctx context.Context, shopID int, productKey string, templateID int) error {
	return c.redis.Set(ctx, c.keyMatch(shopID, productKey), fmt.Sprintf("%d", templateID), templateTTL)
}

// GetMatch returns the cached template for a product key, resolving the match
// key through the primary key. Returns an error on any miss.
func (c *TemplateCache) GetMatch(ctx context.Context, shopID int, productKey string) (*models.Template, error) {
	raw, err := c.redis.Get(ctx, c.keyMatch(shopID, productKey))
	if err != nil {
		return nil, err
	}
	var templateID int
	if _, err := fmt.Sscanf(raw, "%d", &templateID); err != nil {
		return nil, fmt.Errorf("corrupt match entry: %w", err)
	}
	return c.GetTemplate(ctx, shopID, templateID)
}

// InvalidateShop drops every cached snapshot and match entry for a shop.
// Called whenever any of the shop's templates is created, updated, or deleted,
// since scope matching depends on the whole template set.
func (c *TemplateCache) InvalidateShop(ctx context.Context, shopID int) error {
	if err := c.redis.DeleteByPattern(ctx, fmt.Sprintf("template:tpl:%d:*", shopID)); err != nil {
		return err
	}
	return c.redis.DeleteByPattern(ctx, fmt.Sprintf("template:match:%d:*", shopID))
}
