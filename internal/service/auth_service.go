package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/priceforge/priceforge_api/internal/models"
	"github.com/priceforge/priceforge_api/internal/repository"
	"github.com/priceforge/priceforge_api/internal/utils"
)

// AuthService validates storefront API tokens carried by widget requests.
type AuthService struct {
	shopRepo *repository.ShopRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(shopRepo *repository.ShopRepository) *AuthService {
	return &AuthService{shopRepo: shopRepo}
}

// ValidateStorefrontToken resolves a pf_live token to its active shop.
func (s *AuthService) ValidateStorefrontToken(token string) (*models.Shop, error) {
	if !strings.HasPrefix(token, "pf_live_") {
		return nil, utils.ErrInvalidToken
	}

	shop, err := s.shopRepo.GetByAPIToken(token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidToken
		}
		return nil, err
	}
	if !shop.IsActive {
		return nil, utils.ErrInvalidToken
	}
	return shop, nil
}
