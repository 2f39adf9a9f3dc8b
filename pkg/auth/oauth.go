// Package auth implements the OAuth handshake with the platform: the
// authorize redirect and the callback that exchanges a code for a
// permanent access token.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailorbase/storesmith/pkg/models"
)

// ErrAuthenticationFailed indicates the OAuth callback could not be
// verified or the token exchange was rejected. Not recoverable locally;
// the HTTP layer surfaces it to the user.
var ErrAuthenticationFailed = errors.New("authentication failed")

const defaultScopes = "read_products,write_products,read_themes,write_themes,read_content,write_content,read_orders,write_draft_orders"

// Service drives the OAuth flow. State nonces are held in memory for the
// process lifetime; a restart mid-handshake requires starting over.
type Service struct {
	apiKey    string
	apiSecret string
	appURL    string
	scopes    string

	httpClient *http.Client
	logger     *slog.Logger

	// tokenBase overrides the https://{shop} token endpoint in tests.
	tokenBase string

	mu     sync.Mutex
	states map[string]string // state nonce -> shop
}

func NewService(apiKey, apiSecret, appURL string, logger *slog.Logger) *Service {
	return &Service{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		appURL:     strings.TrimSuffix(appURL, "/"),
		scopes:     defaultScopes,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With("module", "oauth"),
		states:     make(map[string]string),
	}
}

// BeginAuth returns the authorize URL the merchant is redirected to, plus
// the state nonce embedded in it.
func (s *Service) BeginAuth(shop string) (string, string) {
	state := uuid.New().String()

	s.mu.Lock()
	s.states[state] = shop
	s.mu.Unlock()

	redirectURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		s.apiKey,
		s.scopes,
		url.QueryEscape(s.appURL+"/auth/callback"),
		state,
	)

	s.logger.Info("Starting OAuth handshake", "shop", shop)

	return redirectURL, state
}

// CompleteCallback verifies the callback query (HMAC and state nonce) and
// exchanges the authorization code for a permanent access token.
func (s *Service) CompleteCallback(ctx context.Context, query url.Values) (*models.Session, error) {
	shop := query.Get("shop")
	code := query.Get("code")
	state := query.Get("state")

	if shop == "" || code == "" {
		return nil, fmt.Errorf("callback missing shop or code: %w", ErrAuthenticationFailed)
	}

	if !s.verifyHMAC(query) {
		s.logger.Warn("OAuth callback failed HMAC verification", "shop", shop)

		return nil, fmt.Errorf("callback HMAC mismatch: %w", ErrAuthenticationFailed)
	}

	if !s.consumeState(state, shop) {
		s.logger.Warn("OAuth callback carried unknown state nonce", "shop", shop)

		return nil, fmt.Errorf("unknown or reused state nonce: %w", ErrAuthenticationFailed)
	}

	token, scope, err := s.exchangeCode(ctx, shop, code)
	if err != nil {
		return nil, err
	}

	s.logger.Info("OAuth handshake completed", "shop", shop)

	return &models.Session{
		Shop:        shop,
		AccessToken: token,
		Scope:       scope,
		IsOnline:    false,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// verifyHMAC checks the hmac parameter against an HMAC-SHA256 of the
// remaining query parameters, sorted and joined as k=v pairs.
func (s *Service) verifyHMAC(query url.Values) bool {
	provided := query.Get("hmac")
	if provided == "" {
		return false
	}

	pairs := make([]string, 0, len(query))

	for key, values := range query {
		if key == "hmac" {
			continue
		}

		for _, value := range values {
			pairs = append(pairs, key+"="+value)
		}
	}

	sort.Strings(pairs)

	mac := hmac.New(sha256.New, []byte(s.apiSecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}

func (s *Service) consumeState(state, shop string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expectedShop, known := s.states[state]
	if !known || expectedShop != shop {
		return false
	}

	delete(s.states, state)

	return true
}

func (s *Service) exchangeCode(ctx context.Context, shop, code string) (string, string, error) {
	base := s.tokenBase
	if base == "" {
		base = "https://" + shop
	}

	payload, err := json.Marshal(map[string]string{
		"client_id":     s.apiKey,
		"client_secret": s.apiSecret,
		"code":          code,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/admin/oauth/access_token", strings.NewReader(string(payload)))
	if err != nil {
		return "", "", fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("Token exchange rejected", "shop", shop, "status", resp.StatusCode)

		return "", "", fmt.Errorf("token exchange returned %d: %w", resp.StatusCode, ErrAuthenticationFailed)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("failed to decode token response: %w", err)
	}

	if parsed.AccessToken == "" {
		return "", "", fmt.Errorf("token response carried no access token: %w", ErrAuthenticationFailed)
	}

	return parsed.AccessToken, parsed.Scope, nil
}
