package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/priceforge/priceforge_api/internal/models"
)

// ShopRepository handles data access for installed shops.
type ShopRepository struct {
	db *sqlx.DB
}

// NewShopRepository creates a new ShopRepository.
func NewShopRepository(db *sqlx.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// Upsert inserts a shop on first install or reactivates and refreshes it on
// reinstall, keyed by the myshopify domain.
func (r *ShopRepository) Upsert(shop *models.Shop) error {
	const q = `
        INSERT INTO shops (shop_domain, access_token, api_token, webhook_secret, currency, currency_precision, is_active, installed_at)
        VALUES ($1, $2, $3, $4, $5, $6, true, NOW())
        ON CONFLICT (shop_domain) DO UPDATE SET
            access_token = EXCLUDED.access_token,
            currency = EXCLUDED.currency,
            currency_precision = EXCLUDED.currency_precision,
            is_active = true,
            uninstalled_at = NULL,
            installed_at = NOW(),
            updated_at = NOW()
        RETURNING id, api_token, webhook_secret`

	// On reinstall the existing api_token and webhook_secret survive; scan
	// them back so callers hand the merchant the token actually in effect.
	return r.db.QueryRowx(q,
		shop.ShopDomain,
		shop.AccessToken,
		shop.APIToken,
		shop.WebhookSecret,
		shop.Currency,
		shop.CurrencyPrecision,
	).Scan(&shop.ID, &shop.APIToken, &shop.WebhookSecret)
}

// GetByDomain returns a shop by its myshopify domain.
func (r *ShopRepository) GetByDomain(domain string) (*models.Shop, error) {
	const q = `SELECT * FROM shops WHERE shop_domain = $1 LIMIT 1`
	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var s models.Shop
	if err := stmt.Get(&s, domain); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByAPIToken returns a shop by its storefront API token.
func (r *ShopRepository) GetByAPIToken(token string) (*models.Shop, error) {
	const q = `SELECT * FROM shops WHERE api_token = $1 LIMIT 1`
	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var s models.Shop
	if err := stmt.Get(&s, token); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns a shop by primary key.
func (r *ShopRepository) GetByID(id int) (*models.Shop, error) {
	const q = `SELECT * FROM shops WHERE id = $1 LIMIT 1`
	var s models.Shop
	if err := r.db.Get(&s, q, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListActive returns all active shops.
func (r *ShopRepository) ListActive() ([]models.Shop, error) {
	const q = `SELECT * FROM shops WHERE is_active = true ORDER BY shop_domain`
	var shops []models.Shop
	if err := r.db.Select(&shops, q); err != nil {
		return nil, err
	}
	return shops, nil
}

// SetScriptTagID stores the registered storefront script tag id.
func (r *ShopRepository) SetScriptTagID(shopID int, scriptTagID *int64) error {
	const q = `UPDATE shops SET script_tag_id = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(q, shopID, scriptTagID)
	return err
}

// Deactivate marks a shop uninstalled and clears its credentials.
func (r *ShopRepository) Deactivate(domain string, at time.Time) error {
	const q = `
        UPDATE shops SET
            is_active = false,
            access_token = '',
            script_tag_id = NULL,
            uninstalled_at = $2,
            updated_at = NOW()
        WHERE shop_domain = $1`
	_, err := r.db.Exec(q, domain, at)
	return err
}
