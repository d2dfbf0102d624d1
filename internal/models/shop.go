package models

import "time"

// Shop represents a merchant store that installed the app.
// The Shopify access token and API token are omitted from JSON responses.
type Shop struct {
	ID                int        `db:"id" json:"id"`
	ShopDomain        string     `db:"shop_domain" json:"shopDomain"`
	AccessToken       string     `db:"access_token" json:"-"`
	APIToken          string     `db:"api_token" json:"apiToken,omitempty"`
	WebhookSecret     string     `db:"webhook_secret" json:"-"`
	Currency          string     `db:"currency" json:"currency"`
	CurrencyPrecision int        `db:"currency_precision" json:"currencyPrecision"`
	ScriptTagID       *int64     `db:"script_tag_id" json:"-"`
	IsActive          bool       `db:"is_active" json:"isActive"`
	InstalledAt       time.Time  `db:"installed_at" json:"installedAt"`
	UninstalledAt     *time.Time `db:"uninstalled_at" json:"uninstalledAt,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}
