package models

import (
	"encoding/json"
	"time"
)

// CalculationLog records an authoritative price computation for auditing and
// merchant analytics. Preview calculations are not logged.
type CalculationLog struct {
	ID         int             `db:"id" json:"id"`
	ShopID     int             `db:"shop_id" json:"shopId"`
	TemplateID int             `db:"template_id" json:"templateId"`
	ProductID  *string         `db:"product_id" json:"productId,omitempty"`
	Quantity   int             `db:"quantity" json:"quantity"`
	Total      float64         `db:"total" json:"total"`
	Breakdown  json.RawMessage `db:"breakdown" json:"breakdown"`
	Inputs     json.RawMessage `db:"inputs" json:"inputs,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
