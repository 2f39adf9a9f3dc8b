// Package main provides the storesmith server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailorbase/storesmith/pkg/auth"
	"github.com/tailorbase/storesmith/pkg/eventbus"
	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/otelhelper"
	"github.com/tailorbase/storesmith/pkg/provision"
	"github.com/tailorbase/storesmith/pkg/scheduler"
	"github.com/tailorbase/storesmith/pkg/sessions"
	"github.com/tailorbase/storesmith/pkg/shopify"
	"github.com/tailorbase/storesmith/pkg/web"
	"github.com/tailorbase/storesmith/pkg/webhooks"
)

// Config carries the platform credentials and public URL of the app.
type Config struct {
	AppURL    string
	APIKey    string
	APISecret string
	Tracing   bool
}

type API struct {
	config    Config
	logger    *slog.Logger
	store     sessions.Store
	eventBus  eventbus.EventBus
	scheduler *scheduler.Handle
	tracer    trace.Tracer
	validate  *validator.Validate
	app       *fiber.App
}

func NewAPI(
	ctx context.Context,
	config Config,
	store sessions.Store,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) (*API, error) {
	var tracer trace.Tracer

	if config.Tracing {
		var err error

		tracer, err = otelhelper.NewTracer(ctx, "storesmith")
		if err != nil {
			return nil, err
		}
	}

	return &API{
		config:    config,
		logger:    logger,
		store:     store,
		eventBus:  eventBus,
		scheduler: scheduler.NewHandle(logger),
		tracer:    tracer,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (a *API) App() *fiber.App {
	authService := auth.NewService(a.config.APIKey, a.config.APISecret, a.config.AppURL, a.logger)
	handlers := web.NewAPIHandlers(authService, a.store, a.buildStore, a.validate, a.logger)
	receiver := webhooks.NewReceiver(a.config.APISecret, a.eventBus, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("storesmith")
	})

	app.Get("/auth", handlers.BeginAuth)
	app.Get("/auth/callback", handlers.AuthCallback)
	app.Get("/setup", handlers.Setup)
	app.Post("/api/build-store", handlers.BuildStore)

	w := app.Group("/webhooks")
	w.Post("/order-created", receiver.OrderCreated)
	w.Post("/product-created", receiver.ProductCreated)

	app.Get("/health", handlers.HealthCheck)

	a.app = app

	return app
}

// buildStore wires a per-shop orchestrator over the shared scheduler and
// event bus. One build runs at a time per request; independent shops get
// independent clients.
func (a *API) buildStore(ctx context.Context, session *models.Session) (*models.BuildReport, error) {
	orchestrator := provision.NewOrchestrator(provision.Config{
		Client:    shopify.NewClient(session.Shop, session.AccessToken),
		Shop:      session.Shop,
		AppURL:    a.config.AppURL,
		Scheduler: a.scheduler,
		EventBus:  a.eventBus,
		Logger:    a.logger,
		Tracer:    a.tracer,
	})

	return orchestrator.BuildCompleteStore(ctx)
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

// Shutdown stops the recurring-task scheduler and the HTTP server.
func (a *API) Shutdown(ctx context.Context) {
	if err := a.scheduler.Stop(ctx); err != nil {
		a.logger.ErrorContext(ctx, "Failed to stop scheduler", "error", err)
	}

	if a.app != nil {
		if err := a.app.Shutdown(); err != nil {
			a.logger.ErrorContext(ctx, "Failed to shut down server", "error", err)
		}
	}
}
