package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/priceforge/priceforge_api/internal/models"
)

// CalculationLogRepository handles data access for storefront calculation logs.
type CalculationLogRepository struct {
	db *sqlx.DB
}

// NewCalculationLogRepository creates a new CalculationLogRepository.
func NewCalculationLogRepository(db *sqlx.DB) *CalculationLogRepository {
	return &CalculationLogRepository{db: db}
}

// Insert records a successful storefront calculation.
func (r *CalculationLogRepository) Insert(log *models.CalculationLog) error {
	const q = `
        INSERT INTO calculation_logs (shop_id, template_id, product_id, quantity, total, breakdown, inputs)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`

	return r.db.QueryRowx(q,
		log.ShopID, log.TemplateID, log.ProductID, log.Quantity,
		log.Total, log.Breakdown, log.Inputs,
	).Scan(&log.ID, &log.CreatedAt)
}

// GetAllPaged returns a shop's calculation logs newest first, plus the total
// count. An optional template id narrows the result.
func (r *CalculationLogRepository) GetAllPaged(shopID int, templateID *int, page, limit int) ([]models.CalculationLog, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE shop_id = $1 AND ($2::int IS NULL OR template_id = $2)`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM calculation_logs `+baseWhere, shopID, templateID); err != nil {
		return nil, 0, err
	}

	var logs []models.CalculationLog
	listQuery := `SELECT * FROM calculation_logs ` + baseWhere + `
        ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	if err := r.db.Select(&logs, listQuery, shopID, templateID, limit, offset); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// DeleteOlderThan removes logs created before the cutoff and returns how many
// rows were deleted. Used by the retention worker.
func (r *CalculationLogRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM calculation_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
