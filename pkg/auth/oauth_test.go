package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey    = "test-api-key"
	testAPISecret = "test-api-secret"
)

func newTestService(tokenBase string) *Service {
	service := NewService(testAPIKey, testAPISecret, "https://app.example.com", slog.Default())
	service.tokenBase = tokenBase

	return service
}

// signQuery fills in the hmac parameter the way the platform signs
// callbacks: remaining parameters as sorted k=v pairs joined with &.
func signQuery(query url.Values) {
	pairs := make([]string, 0, len(query))

	for key, values := range query {
		for _, value := range values {
			pairs = append(pairs, key+"="+value)
		}
	}

	sort.Strings(pairs)

	mac := hmac.New(sha256.New, []byte(testAPISecret))
	mac.Write([]byte(strings.Join(pairs, "&")))

	query.Set("hmac", hex.EncodeToString(mac.Sum(nil)))
}

func callbackQuery(shop, code, state string) url.Values {
	query := url.Values{}
	query.Set("shop", shop)
	query.Set("code", code)
	query.Set("state", state)
	query.Set("timestamp", "1724900000")
	signQuery(query)

	return query
}

func TestService_BeginAuth(t *testing.T) {
	service := newTestService("")

	redirectURL, state := service.BeginAuth("test-shop.myshopify.com")

	assert.NotEmpty(t, state)
	assert.Contains(t, redirectURL, "https://test-shop.myshopify.com/admin/oauth/authorize")
	assert.Contains(t, redirectURL, "client_id="+testAPIKey)
	assert.Contains(t, redirectURL, "state="+state)
	assert.Contains(t, redirectURL, url.QueryEscape("https://app.example.com/auth/callback"))
}

func TestService_CompleteCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/oauth/access_token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testAPIKey, body["client_id"])
		assert.Equal(t, testAPISecret, body["client_secret"])
		assert.Equal(t, "auth-code-123", body["code"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "shpat_test_token",
			"scope":        "read_products,write_products",
		})
	}))
	defer server.Close()

	service := newTestService(server.URL)

	_, state := service.BeginAuth("test-shop.myshopify.com")

	session, err := service.CompleteCallback(t.Context(), callbackQuery("test-shop.myshopify.com", "auth-code-123", state))
	require.NoError(t, err)

	assert.Equal(t, "test-shop.myshopify.com", session.Shop)
	assert.Equal(t, "shpat_test_token", session.AccessToken)
	assert.Equal(t, "read_products,write_products", session.Scope)
	assert.False(t, session.IsOnline)
}

func TestService_CompleteCallbackRejectsBadHMAC(t *testing.T) {
	service := newTestService("")

	_, state := service.BeginAuth("test-shop.myshopify.com")

	query := callbackQuery("test-shop.myshopify.com", "auth-code-123", state)
	query.Set("hmac", "0000000000000000000000000000000000000000000000000000000000000000")

	_, err := service.CompleteCallback(t.Context(), query)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestService_CompleteCallbackRejectsUnknownState(t *testing.T) {
	service := newTestService("")

	_, err := service.CompleteCallback(t.Context(), callbackQuery("test-shop.myshopify.com", "auth-code-123", "never-issued"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestService_CompleteCallbackStateIsSingleUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "shpat_test_token"})
	}))
	defer server.Close()

	service := newTestService(server.URL)

	_, state := service.BeginAuth("test-shop.myshopify.com")

	_, err := service.CompleteCallback(t.Context(), callbackQuery("test-shop.myshopify.com", "auth-code-123", state))
	require.NoError(t, err)

	_, err = service.CompleteCallback(t.Context(), callbackQuery("test-shop.myshopify.com", "auth-code-123", state))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestService_CompleteCallbackRejectsMissingParams(t *testing.T) {
	service := newTestService("")

	query := url.Values{}
	query.Set("shop", "test-shop.myshopify.com")
	signQuery(query)

	_, err := service.CompleteCallback(t.Context(), query)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestService_CompleteCallbackTokenExchangeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_request"})
	}))
	defer server.Close()

	service := newTestService(server.URL)

	_, state := service.BeginAuth("test-shop.myshopify.com")

	_, err := service.CompleteCallback(t.Context(), callbackQuery("test-shop.myshopify.com", "bad-code", state))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
