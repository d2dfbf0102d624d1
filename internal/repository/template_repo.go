package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/priceforge/priceforge_api/internal/models"
)

// TemplateRepository handles data access for pricing templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create inserts a template and populates its id.
func (r *TemplateRepository) Create(tpl *models.Template) error {
	const q = `
        INSERT INTO templates (
            public_id, shop_id, name, pricing_formula, pricing_meta, scope, scope_values,
            is_active, sections, min_quantity, max_quantity, min_quantity_message,
            max_quantity_message, discount_tiers, has_express_option, express_multiplier,
            express_label, express_field_key, has_notes_field, quantity_presets
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20
        )
        RETURNING id, created_at, updated_at`

	return r.db.QueryRowx(q,
		tpl.PublicID, tpl.ShopID, tpl.Name, tpl.PricingFormula, tpl.PricingMeta,
		tpl.Scope, tpl.ScopeValues, tpl.IsActive, tpl.Sections, tpl.MinQuantity,
		tpl.MaxQuantity, tpl.MinQuantityMessage, tpl.MaxQuantityMessage,
		tpl.DiscountTiers, tpl.HasExpressOption, tpl.ExpressMultiplier,
		tpl.ExpressLabel, tpl.ExpressFieldKey, tpl.HasNotesField, tpl.QuantityPresets,
	).Scan(&tpl.ID, &tpl.CreatedAt, &tpl.UpdatedAt)
}

// Update rewrites all editable columns of an existing template owned by the shop.
func (r *TemplateRepository) Update(tpl *models.Template) error {
	const q = `
        UPDATE templates SET
            name = $3,
            pricing_formula = $4,
            pricing_meta = $5,
            scope = $6,
            scope_values = $7,
            is_active = $8,
            sections = $9,
            min_quantity = $10,
            max_quantity = $11,
            min_quantity_message = $12,
            max_quantity_message = $13,
            discount_tiers = $14,
            has_express_option = $15,
            express_multiplier = $16,
            express_label = $17,
            express_field_key = $18,
            has_notes_field = $19,
            quantity_presets = $20,
            updated_at = NOW()
        WHERE id = $1 AND shop_id = $2`

	res, err := r.db.Exec(q,
		tpl.ID, tpl.ShopID, tpl.Name, tpl.PricingFormula, tpl.PricingMeta,
		tpl.Scope, tpl.ScopeValues, tpl.IsActive, tpl.Sections, tpl.MinQuantity,
		tpl.MaxQuantity, tpl.MinQuantityMessage, tpl.MaxQuantityMessage,
		tpl.DiscountTiers, tpl.HasExpressOption, tpl.ExpressMultiplier,
		tpl.ExpressLabel, tpl.ExpressFieldKey, tpl.HasNotesField, tpl.QuantityPresets,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetByID returns a template owned by the shop.
func (r *TemplateRepository) GetByID(shopID, id int) (*models.Template, error) {
	const q = `SELECT * FROM templates WHERE id = $1 AND shop_id = $2 LIMIT 1`
	stmt, err := r.db.Preparex(q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var tpl models.Template
	if err := stmt.Get(&tpl, id, shopID); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// GetAllPaged returns the shop's templates with optional name search and
// pagination, plus the total count. Page begins at 1.
func (r *TemplateRepository) GetAllPaged(shopID int, search string, page, limit int) ([]models.Template, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE shop_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')`

	countQuery := `SELECT COUNT(1) FROM templates ` + baseWhere
	var total int
	if err := r.db.Get(&total, countQuery, shopID, search); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT * FROM templates ` + baseWhere + `
        ORDER BY updated_at DESC LIMIT $3 OFFSET $4`
	var templates []models.Template
	if err := r.db.Select(&templates, listQuery, shopID, search, limit, offset); err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// GetActiveByShop returns all active templates for scope matching, ordered so
// narrower scopes come first (PRODUCT before COLLECTION before VENDOR before
// TAG before GLOBAL).
func (r *TemplateRepository) GetActiveByShop(shopID int) ([]models.Template, error) {
	const q = `
        SELECT * FROM templates
        WHERE shop_id = $1 AND is_active = true
        ORDER BY CASE scope
            WHEN 'PRODUCT' THEN 1
            WHEN 'COLLECTION' THEN 2
            WHEN 'VENDOR' THEN 3
            WHEN 'TAG' THEN 4
            WHEN 'GLOBAL' THEN 5
        END, updated_at DESC`

	var templates []models.Template
	if err := r.db.Select(&templates, q, shopID); err != nil {
		return nil, err
	}
	return templates, nil
}

// Delete removes a template owned by the shop.
func (r *TemplateRepository) Delete(shopID, id int) error {
	const q = `DELETE FROM templates WHERE id = $1 AND shop_id = $2`
	res, err := r.db.Exec(q, id, shopID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
