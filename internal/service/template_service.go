package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/cache"
	"github.com/priceforge/priceforge_api/internal/models"
	"github.com/priceforge/priceforge_api/internal/pricing"
	"github.com/priceforge/priceforge_api/internal/repository"
	"github.com/priceforge/priceforge_api/internal/sse"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// TemplateService owns the admin-facing template lifecycle. Every write path
// validates the template, invalidates the shop's cache, and notifies SSE
// subscribers.
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	cache        *cache.TemplateCache
	engine       *pricing.Engine
	notifier     sse.TemplateNotifier
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(
	templateRepo *repository.TemplateRepository,
	templateCache *cache.TemplateCache,
	engine *pricing.Engine,
	notifier sse.TemplateNotifier,
) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		cache:        templateCache,
		engine:       engine,
		notifier:     notifier,
	}
}

// Validate runs the static checker without persisting anything. Used by the
// editor's dry-run endpoint.
func (s *TemplateService) Validate(tpl *models.Template) *pricing.ValidationResult {
	return s.engine.Validate(tpl)
}

// Create validates and persists a new template for the shop. A template with
// validation errors is rejected; warnings are allowed through.
func (s *TemplateService) Create(ctx context.Context, shopID int, tpl *models.Template) (*pricing.ValidationResult, error) {
	tpl.ShopID = shopID
	tpl.PublicID = uuid.New().String()
	normalizeTemplate(tpl)

	result := s.engine.Validate(tpl)
	if !result.Valid {
		return result, utils.ErrTemplateInvalid
	}

	if err := s.templateRepo.Create(tpl); err != nil {
		log.Error().Err(err).Int("shop_id", shopID).Str("name", tpl.Name).Msg("Failed to create template")
		return result, err
	}

	s.invalidate(ctx, shopID)
	s.notifier.NotifyTemplateCreated(tpl)

	log.Info().
		Int("shop_id", shopID).
		Int("template_id", tpl.ID).
		Str("scope", string(tpl.Scope)).
		Msg("Template created")
	return result, nil
}

// Update validates and rewrites an existing template owned by the shop.
func (s *TemplateService) Update(ctx context.Context, shopID, templateID int, tpl *models.Template) (*pricing.ValidationResult, error) {
	existing, err := s.templateRepo.GetByID(shopID, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrTemplateNotFound
		}
		return nil, err
	}

	tpl.ID = existing.ID
	tpl.ShopID = shopID
	tpl.PublicID = existing.PublicID
	normalizeTemplate(tpl)

	result := s.engine.Validate(tpl)
	if !result.Valid {
		return result, utils.ErrTemplateInvalid
	}

	if err := s.templateRepo.Update(tpl); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, utils.ErrTemplateNotFound
		}
		log.Error().Err(err).Int("shop_id", shopID).Int("template_id", templateID).Msg("Failed to update template")
		return result, err
	}

	s.invalidate(ctx, shopID)
	s.notifier.NotifyTemplateUpdated(tpl)

	log.Info().Int("shop_id", shopID).Int("template_id", templateID).Msg("Template updated")
	return result, nil
}

// Delete removes a template owned by the shop.
func (s *TemplateService) Delete(ctx context.Context, shopID, templateID int) error {
	tpl, err := s.templateRepo.GetByID(shopID, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrTemplateNotFound
		}
		return err
	}

	if err := s.templateRepo.Delete(shopID, templateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrTemplateNotFound
		}
		return err
	}

	s.invalidate(ctx, shopID)
	s.notifier.NotifyTemplateDeleted(tpl)

	log.Info().Int("shop_id", shopID).Int("template_id", templateID).Msg("Template deleted")
	return nil
}

// Get returns a single template owned by the shop.
func (s *TemplateService) Get(shopID, templateID int) (*models.Template, error) {
	tpl, err := s.templateRepo.GetByID(shopID, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

// List returns the shop's templates with optional name search, paginated.
func (s *TemplateService) List(shopID int, search string, page, limit int) ([]models.Template, int, error) {
	return s.templateRepo.GetAllPaged(shopID, search, page, limit)
}

// Duplicate copies an existing template into a new inactive draft. The copy
// gets a fresh public id and a "(copy)" name suffix so the editor can rename
// it before activation.
func (s *TemplateService) Duplicate(ctx context.Context, shopID, templateID int) (*models.Template, error) {
	src, err := s.templateRepo.GetByID(shopID, templateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrTemplateNotFound
		}
		return nil, err
	}

	clone := *src
	clone.ID = 0
	clone.PublicID = uuid.New().String()
	clone.Name = src.Name + " (copy)"
	clone.IsActive = false

	if err := s.templateRepo.Create(&clone); err != nil {
		return nil, err
	}

	s.invalidate(ctx, shopID)
	s.notifier.NotifyTemplateCreated(&clone)

	log.Info().Int("shop_id", shopID).Int("source_id", templateID).Int("template_id", clone.ID).Msg("Template duplicated")
	return &clone, nil
}

func (s *TemplateService) invalidate(ctx context.Context, shopID int) {
	if err := s.cache.InvalidateShop(ctx, shopID); err != nil {
		log.Warn().Err(err).Int("shop_id", shopID).Msg("Failed to invalidate template cache")
	}
}

// normalizeTemplate fills derived defaults before validation: formula-less
// express multiplier floors at 1 and a missing scope defaults to GLOBAL.
func normalizeTemplate(tpl *models.Template) {
	if tpl.Scope == "" {
		tpl.Scope = models.ScopeGlobal
	}
	if tpl.HasExpressOption && tpl.ExpressMultiplier == 0 {
		tpl.ExpressMultiplier = 1
	}
	if tpl.MinQuantity < 1 {
		tpl.MinQuantity = 1
	}
}
