package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/priceforge/priceforge_api/internal/models"
	"github.com/priceforge/priceforge_api/internal/repository"
	"github.com/priceforge/priceforge_api/internal/utils"
)

type AdminAuthService struct {
	adminRepo *repository.AdminUserRepository
}

func NewAdminAuthService(adminRepo *repository.AdminUserRepository) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo}
}

func (s *AdminAuthService) Login(email, password string) (string, error) {
	user, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		log.Warn().Str("email", email).Msg("Login failed: unknown email")
		return "", errors.New("invalid credentials")
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Login rejected: account inactive")
		return "", errors.New("account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Login failed: wrong password")
		return "", errors.New("invalid credentials")
	}

	if err := s.adminRepo.TouchLogin(user.ID, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record login time")
	}

	log.Info().Str("email", email).Msg("Admin login successful")
	return utils.GenerateJWT(user.ID, user.Email)
}

func (s *AdminAuthService) CreateAdmin(email, password, name string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		Role:         "admin",
		IsActive:     true,
	}

	return s.adminRepo.Create(user)
}
