package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/cache"
	"github.com/priceforge/priceforge_api/internal/models"
	"github.com/priceforge/priceforge_api/internal/pricing"
	"github.com/priceforge/priceforge_api/internal/repository"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// ProductContext identifies the storefront product a template is resolved
// for. All identifiers come from the widget script reading the product page.
type ProductContext struct {
	ProductID     string   `json:"productId"`
	CollectionIDs []string `json:"collectionIds"`
	Vendor        string   `json:"vendor"`
	Tags          []string `json:"tags"`
}

// key is the cache key for the resolved product→template match. A product id
// fully determines vendor, collections and tags, so it keys alone; without
// one, every identifier that scope matching reads must participate or two
// different products could share a cached match.
func (p ProductContext) key() string {
	if p.ProductID != "" {
		return "p:" + p.ProductID
	}
	parts := []string{"v:" + strings.ToLower(p.Vendor)}
	if len(p.CollectionIDs) > 0 {
		parts = append(parts, "c:"+strings.Join(lowerSorted(p.CollectionIDs), ","))
	}
	if len(p.Tags) > 0 {
		parts = append(parts, "t:"+strings.Join(lowerSorted(p.Tags), ","))
	}
	return strings.Join(parts, "|")
}

func lowerSorted(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	sort.Strings(out)
	return out
}

// CalculationService resolves templates for storefront products and runs the
// authoritative price computation. The storefront widget previews with the
// same pipeline client-side; this service is the source of truth at add-to-cart.
type CalculationService struct {
	templateRepo *repository.TemplateRepository
	logRepo      *repository.CalculationLogRepository
	cache        *cache.TemplateCache
	engine       *pricing.Engine
}

// NewCalculationService creates a new CalculationService.
func NewCalculationService(
	templateRepo *repository.TemplateRepository,
	logRepo *repository.CalculationLogRepository,
	templateCache *cache.TemplateCache,
	engine *pricing.Engine,
) *CalculationService {
	return &CalculationService{
		templateRepo: templateRepo,
		logRepo:      logRepo,
		cache:        templateCache,
		engine:       engine,
	}
}

// ResolveTemplate returns the template governing the given product, applying
// scope precedence PRODUCT > COLLECTION > VENDOR > TAG > GLOBAL. Matches are
// cached per product key; any template write invalidates the whole shop.
func (s *CalculationService) ResolveTemplate(ctx context.Context, shopID int, product ProductContext) (*models.Template, error) {
	if tpl, err := s.cache.GetMatch(ctx, shopID, product.key()); err == nil {
		return tpl, nil
	}

	templates, err := s.templateRepo.GetActiveByShop(shopID)
	if err != nil {
		return nil, err
	}

	tpl := matchTemplate(templates, product)
	if tpl == nil {
		return nil, utils.ErrNoMatchingTemplate
	}

	if err := s.cache.SetTemplate(ctx, tpl); err == nil {
		if err := s.cache.SetMatch(ctx, shopID, product.key(), tpl.ID); err != nil {
			log.Warn().Err(err).Int("shop_id", shopID).Msg("Failed to cache template match")
		}
	}
	return tpl, nil
}

// matchTemplate walks the narrow-to-wide ordered template list and returns
// the first whose scope covers the product.
func matchTemplate(templates []models.Template, product ProductContext) *models.Template {
	for i := range templates {
		tpl := &templates[i]
		switch tpl.Scope {
		case models.ScopeProduct:
			if product.ProductID != "" && containsFold(tpl.ScopeValues, product.ProductID) {
				return tpl
			}
		case models.ScopeCollection:
			for _, cid := range product.CollectionIDs {
				if containsFold(tpl.ScopeValues, cid) {
					return tpl
				}
			}
		case models.ScopeVendor:
			if product.Vendor != "" && containsFold(tpl.ScopeValues, product.Vendor) {
				return tpl
			}
		case models.ScopeTag:
			for _, tag := range product.Tags {
				if containsFold(tpl.ScopeValues, tag) {
					return tpl
				}
			}
		case models.ScopeGlobal:
			return tpl
		}
	}
	return nil
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

// ActiveFields returns the keys of fields visible for the given inputs,
// driving the widget's conditional show/hide without a price computation.
func (s *CalculationService) ActiveFields(ctx context.Context, shopID int, product ProductContext, inputs pricing.InputSet) ([]string, *models.Template, error) {
	tpl, err := s.ResolveTemplate(ctx, shopID, product)
	if err != nil {
		return nil, nil, err
	}
	return s.engine.ActiveFields(tpl, inputs), tpl, nil
}

// Calculate runs the price computation, rounding at the shop's currency
// precision. Preview and authoritative calls share the same pipeline; only
// the authoritative cart-add path records a calculation log row. Pricing
// errors are returned as-is so handlers can map Recoverable ones to 422.
func (s *CalculationService) Calculate(ctx context.Context, shop *models.Shop, product ProductContext, inputs pricing.InputSet, quantity int, authoritative bool) (*pricing.Breakdown, *models.Template, error) {
	tpl, err := s.ResolveTemplate(ctx, shop.ID, product)
	if err != nil {
		return nil, nil, err
	}

	breakdown, perr := s.engine.WithPrecision(shop.CurrencyPrecision).ComposePrice(tpl, inputs, quantity)
	if perr != nil {
		return nil, tpl, perr
	}

	if authoritative {
		s.recordLog(shop.ID, tpl, product, inputs, breakdown)
	}
	return breakdown, tpl, nil
}

// ListLogs returns a shop's calculation history, newest first.
func (s *CalculationService) ListLogs(shopID int, templateID *int, page, limit int) ([]models.CalculationLog, int, error) {
	return s.logRepo.GetAllPaged(shopID, templateID, page, limit)
}

// recordLog persists the calculation for the admin history view. Logging is
// best-effort: a failed insert never fails the storefront response.
func (s *CalculationService) recordLog(shopID int, tpl *models.Template, product ProductContext, inputs pricing.InputSet, breakdown *pricing.Breakdown) {
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal breakdown for log")
		return
	}
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal inputs for log")
		return
	}

	entry := &models.CalculationLog{
		ShopID:     shopID,
		TemplateID: tpl.ID,
		Quantity:   breakdown.Quantity,
		Total:      breakdown.Total,
		Breakdown:  breakdownJSON,
		Inputs:     inputsJSON,
	}
	if product.ProductID != "" {
		pid := product.ProductID
		entry.ProductID = &pid
	}

	if err := s.logRepo.Insert(entry); err != nil {
		log.Warn().Err(err).Int("shop_id", shopID).Int("template_id", tpl.ID).Msg("Failed to record calculation log")
	}
}
