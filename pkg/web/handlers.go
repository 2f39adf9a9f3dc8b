package web

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/tailorbase/storesmith/pkg/auth"
	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/sessions"
	"github.com/tailorbase/storesmith/pkg/shopify"
)

// BuildFunc runs a full store build for an authenticated session. Wired to
// the orchestrator in production; tests substitute a fake.
type BuildFunc func(ctx context.Context, session *models.Session) (*models.BuildReport, error)

type APIHandlers struct {
	authService *auth.Service
	store       sessions.Store
	build       BuildFunc
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	authService *auth.Service,
	store sessions.Store,
	build BuildFunc,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		store:       store,
		build:       build,
		validator:   validator,
		logger:      logger.With("module", "web"),
	}
}

// BeginAuth handles GET /auth?shop= by redirecting the merchant to the
// platform's authorize page. The shop parameter feeds the redirect target,
// so anything but a platform shop domain is rejected outright.
func (h *APIHandlers) BeginAuth(c fiber.Ctx) error {
	shop := c.Query("shop")
	if shop == "" {
		return badRequest(c, "shop query parameter is required")
	}

	if err := h.validator.Var(shop, "hostname"); err != nil || !strings.HasSuffix(shop, ".myshopify.com") {
		return badRequest(c, "shop must be a *.myshopify.com domain")
	}

	redirectURL, _ := h.authService.BeginAuth(shop)

	return c.Redirect().To(redirectURL)
}

// AuthCallback handles GET /auth/callback: verifies the handshake, stores
// the session, and sends the merchant to the setup page.
func (h *APIHandlers) AuthCallback(c fiber.Ctx) error {
	query, err := url.ParseQuery(string(c.RequestCtx().URI().QueryString()))
	if err != nil {
		return badRequest(c, "invalid callback query")
	}

	session, err := h.authService.CompleteCallback(c.Context(), query)
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			return unauthorized(c, "OAuth callback verification failed")
		}

		return internalError(c, err)
	}

	if err := h.store.StoreSession(c.Context(), session); err != nil {
		h.logger.Error("Failed to store session", "shop", session.Shop, "error", err)

		return internalError(c, err)
	}

	return c.Redirect().To("/setup?shop=" + url.QueryEscape(session.Shop))
}

// Setup handles GET /setup, a minimal landing page pointing at the build
// endpoint.
func (h *APIHandlers) Setup(c fiber.Ctx) error {
	shop := c.Query("shop")

	return c.JSON(fiber.Map{
		"shop":    shop,
		"message": "authenticated; POST /api/build-store to provision this shop",
	})
}

// BuildStore handles POST /api/build-store, the sole trigger for the build
// orchestrator.
func (h *APIHandlers) BuildStore(c fiber.Ctx) error {
	var req BuildStoreRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, "invalid request: "+err.Error())
	}

	session, err := h.resolveSession(c.Context(), &req)
	if err != nil {
		if sessions.IsSessionNotFound(err) {
			return notFound(c, "no session for shop; authenticate via /auth or supply access_token")
		}

		return internalError(c, err)
	}

	report, err := h.build(c.Context(), session)
	if err != nil {
		if shopify.IsUnauthorized(err) {
			return unauthorized(c, "the platform rejected the access token")
		}

		return internalError(c, err)
	}

	message := "store build completed"
	if failed := report.Failed(); len(failed) > 0 {
		message = "store build completed with failed steps"
	}

	return c.JSON(BuildStoreResponse{
		Success:  true,
		Message:  message,
		StoreURL: "https://" + session.Shop,
		Report:   report,
	})
}

// HealthCheck handles GET /health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.store.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

// resolveSession prefers an explicit access token from the request and
// falls back to the stored session for the shop.
func (h *APIHandlers) resolveSession(ctx context.Context, req *BuildStoreRequest) (*models.Session, error) {
	if req.AccessToken != "" {
		return &models.Session{Shop: req.Shop, AccessToken: req.AccessToken}, nil
	}

	return h.store.GetSession(ctx, req.Shop)
}
