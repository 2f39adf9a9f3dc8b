package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultAPIVersion is the Admin REST API version all requests target.
	DefaultAPIVersion = "2024-10"

	requestTimeout = 30 * time.Second
)

// API is the request surface the provisioning steps depend on. The concrete
// Client implements it; tests substitute a fake.
type API interface {
	Get(ctx context.Context, path string) (map[string]any, error)
	Post(ctx context.Context, path string, payload any) (map[string]any, error)
	Put(ctx context.Context, path string, payload any) (map[string]any, error)
	Delete(ctx context.Context, path string) error
}

// Client is an authenticated Admin REST API client bound to a single shop.
// Every call is a live read or mutation against the store; none are
// reversible here.
type Client struct {
	shop       string
	token      string
	version    string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the given shop domain and access token.
func NewClient(shop, token string) *Client {
	return &Client{
		shop:       shop,
		token:      token,
		version:    DefaultAPIVersion,
		baseURL:    "https://" + shop,
		httpClient: &http.Client{},
		logger:     slog.With("module", "shopify_client", "shop", shop),
	}
}

// NewClientWithBaseURL creates a client pointed at an explicit base URL
// instead of the shop domain. Used by tests against httptest servers.
func NewClientWithBaseURL(shop, token, baseURL string) *Client {
	client := NewClient(shop, token)
	client.baseURL = strings.TrimSuffix(baseURL, "/")

	return client
}

// Shop returns the shop domain this client is bound to.
func (c *Client) Shop() string {
	return c.shop
}

// Get performs an authenticated GET against the given resource path.
func (c *Client) Get(ctx context.Context, path string) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs an authenticated POST with a JSON payload.
func (c *Client) Post(ctx context.Context, path string, payload any) (map[string]any, error) {
	return c.do(ctx, http.MethodPost, path, payload)
}

// Put performs an authenticated PUT with a JSON payload.
func (c *Client) Put(ctx context.Context, path string, payload any) (map[string]any, error) {
	return c.do(ctx, http.MethodPut, path, payload)
}

// Delete performs an authenticated DELETE against the given resource path.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)

	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (map[string]any, error) {
	url := fmt.Sprintf("%s/admin/api/%s/%s.json", c.baseURL, c.version, strings.Trim(path, "/"))

	var bodyReader io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request payload for %s: %w", path, err)
		}

		bodyReader = bytes.NewReader(encoded)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", path, err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body for %s: %w", path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Path:    path,
			Message: extractErrorMessage(bodyBytes),
		}

		c.logger.Debug("Admin API request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", apiErr.Message)

		return nil, apiErr
	}

	if len(bodyBytes) == 0 {
		return map[string]any{}, nil
	}

	var body map[string]any
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return nil, fmt.Errorf("failed to decode response body for %s: %w", path, err)
	}

	return body, nil
}

// extractErrorMessage pulls the "errors" field out of an Admin API error
// body. The field is a string, a list, or an object depending on endpoint.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var parsed struct {
		Errors any `json:"errors"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Errors == nil {
		return ""
	}

	switch errs := parsed.Errors.(type) {
	case string:
		return errs
	case []any:
		parts := make([]string, 0, len(errs))
		for _, e := range errs {
			parts = append(parts, fmt.Sprint(e))
		}

		return strings.Join(parts, "; ")
	case map[string]any:
		parts := make([]string, 0, len(errs))
		for field, e := range errs {
			parts = append(parts, fmt.Sprintf("%s: %v", field, e))
		}

		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(errs)
	}
}
