package shopify

import "fmt"

// AccessTokenResponse is returned by the OAuth token exchange.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// Shop is the subset of the Admin API shop resource the app uses.
type Shop struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"myshopify_domain"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

type shopResponse struct {
	Shop Shop `json:"shop"`
}

// ScriptTag is a storefront-injected script registration.
type ScriptTag struct {
	ID           int64  `json:"id,omitempty"`
	Event        string `json:"event"`
	Src          string `json:"src"`
	DisplayScope string `json:"display_scope,omitempty"`
}

type scriptTagRequest struct {
	ScriptTag ScriptTag `json:"script_tag"`
}

type scriptTagResponse struct {
	ScriptTag ScriptTag `json:"script_tag"`
}

type scriptTagsResponse struct {
	ScriptTags []ScriptTag `json:"script_tags"`
}

// Webhook is an Admin API webhook subscription.
type Webhook struct {
	ID      int64  `json:"id,omitempty"`
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format,omitempty"`
}

type webhookRequest struct {
	Webhook Webhook `json:"webhook"`
}

type webhookResponse struct {
	Webhook Webhook `json:"webhook"`
}

// APIError is a non-2xx Admin API response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api error: status %d: %s", e.StatusCode, e.Body)
}
