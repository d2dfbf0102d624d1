package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds Shopify app credentials.
type Config struct {
	APIKey     string
	APISecret  string
	APIVersion string
}

// Client is a minimal Shopify Admin REST client. One client serves every
// installed shop; the per-shop access token is passed per call.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new Shopify Admin API client.
func NewClient(config Config) *Client {
	if config.APIVersion == "" {
		config.APIVersion = "2024-10"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		config:     config,
	}
}

// AuthorizeURL builds the OAuth authorization URL the merchant is redirected
// to at install time.
func (c *Client) AuthorizeURL(shopDomain, scopes, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", c.config.APIKey)
	q.Set("scope", scopes)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shopDomain, q.Encode())
}

// ExchangeToken swaps the OAuth authorization code for a permanent access
// token.
func (c *Client) ExchangeToken(ctx context.Context, shopDomain, code string) (*AccessTokenResponse, error) {
	payload := map[string]string{
		"client_id":     c.config.APIKey,
		"client_secret": c.config.APISecret,
		"code":          code,
	}
	var result AccessTokenResponse
	endpoint := fmt.Sprintf("https://%s/admin/oauth/access_token", shopDomain)
	if err := c.doRequest(ctx, http.MethodPost, endpoint, "", payload, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned empty access token")
	}
	return &result, nil
}

// GetShop fetches the shop resource (name, currency).
func (c *Client) GetShop(ctx context.Context, shopDomain, token string) (*Shop, error) {
	var result shopResponse
	if err := c.doRequest(ctx, http.MethodGet, c.adminURL(shopDomain, "shop.json"), token, nil, &result); err != nil {
		return nil, err
	}
	return &result.Shop, nil
}

// CreateScriptTag registers the storefront widget script.
func (c *Client) CreateScriptTag(ctx context.Context, shopDomain, token, src string) (*ScriptTag, error) {
	req := scriptTagRequest{ScriptTag: ScriptTag{
		Event:        "onload",
		Src:          src,
		DisplayScope: "online_store",
	}}
	var result scriptTagResponse
	if err := c.doRequest(ctx, http.MethodPost, c.adminURL(shopDomain, "script_tags.json"), token, req, &result); err != nil {
		return nil, err
	}
	return &result.ScriptTag, nil
}

// ListScriptTags returns all script tags registered by the app.
func (c *Client) ListScriptTags(ctx context.Context, shopDomain, token string) ([]ScriptTag, error) {
	var result scriptTagsResponse
	if err := c.doRequest(ctx, http.MethodGet, c.adminURL(shopDomain, "script_tags.json"), token, nil, &result); err != nil {
		return nil, err
	}
	return result.ScriptTags, nil
}

// DeleteScriptTag removes a script tag registration.
func (c *Client) DeleteScriptTag(ctx context.Context, shopDomain, token string, id int64) error {
	path := fmt.Sprintf("script_tags/%d.json", id)
	return c.doRequest(ctx, http.MethodDelete, c.adminURL(shopDomain, path), token, nil, nil)
}

// CreateWebhook subscribes to an Admin API webhook topic.
func (c *Client) CreateWebhook(ctx context.Context, shopDomain, token, topic, address string) (*Webhook, error) {
	req := webhookRequest{Webhook: Webhook{Topic: topic, Address: address, Format: "json"}}
	var result webhookResponse
	if err := c.doRequest(ctx, http.MethodPost, c.adminURL(shopDomain, "webhooks.json"), token, req, &result); err != nil {
		return nil, err
	}
	return &result.Webhook, nil
}

func (c *Client) adminURL(shopDomain, path string) string {
	return fmt.Sprintf("https://%s/admin/api/%s/%s", shopDomain, c.config.APIVersion, path)
}

// doRequest performs a JSON request with the per-shop access token header.
func (c *Client) doRequest(ctx context.Context, method, endpoint, token string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Shopify-Access-Token", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Shopify API request failed")
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
