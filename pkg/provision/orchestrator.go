// Package provision builds out a complete store through an ordered,
// idempotent sequence of Admin API mutations.
package provision

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/tailorbase/storesmith/pkg/eventbus"
	"github.com/tailorbase/storesmith/pkg/events"
	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/runner"
	"github.com/tailorbase/storesmith/pkg/scheduler"
	"github.com/tailorbase/storesmith/pkg/shopify"
	"github.com/tailorbase/storesmith/pkg/webhooks"
)

// Config carries the collaborators an Orchestrator needs. Client, Shop,
// AppURL, and Scheduler are required; EventBus and Tracer are optional.
type Config struct {
	Client    shopify.API
	Shop      string
	AppURL    string
	Scheduler *scheduler.Handle
	EventBus  eventbus.EventBus
	Logger    *slog.Logger
	Tracer    trace.Tracer
	ThemeWait ThemeWaitConfig
}

// Orchestrator owns the canonical build sequence for one shop. All remote
// access goes through the injected client.
type Orchestrator struct {
	client    shopify.API
	shop      string
	appURL    string
	runner    *runner.Runner
	scheduler *scheduler.Handle
	registrar *webhooks.Registrar
	eventBus  eventbus.EventBus
	logger    *slog.Logger
	themeWait ThemeWaitConfig
}

func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With("module", "orchestrator", "shop", cfg.Shop)

	themeWait := cfg.ThemeWait
	if themeWait.Deadline == 0 {
		themeWait = DefaultThemeWait()
	}

	return &Orchestrator{
		client:    cfg.Client,
		shop:      cfg.Shop,
		appURL:    cfg.AppURL,
		runner:    runner.NewRunner(logger, cfg.Tracer),
		scheduler: cfg.Scheduler,
		registrar: webhooks.NewRegistrar(cfg.Client, logger),
		eventBus:  cfg.EventBus,
		logger:    logger,
		themeWait: themeWait,
	}
}

// Steps returns the canonical build sequence in execution order. Navigation,
// shipping, and checkout hold their sequence positions as explicit no-ops:
// the Admin REST API exposes no menu resource, and shipping/checkout
// configuration is out of scope for now.
func (o *Orchestrator) Steps() []models.BuildStep {
	return []models.BuildStep{
		{Name: "store-settings", Run: o.configureSettings},
		{Name: "theme-setup", Run: o.setupTheme},
		{Name: "collections", Run: o.createCollections},
		{Name: "navigation", Run: o.noop("navigation")},
		{Name: "pages", Run: o.createPages},
		{Name: "products", Run: o.seedProducts},
		{Name: "shipping", Run: o.noop("shipping")},
		{Name: "automation", Run: o.setupAutomation},
		{Name: "checkout", Run: o.noop("checkout")},
	}
}

// BuildCompleteStore runs the full sequence and returns the report. Per-step
// failures live in the report; the returned error is non-nil only when the
// platform rejected the credentials mid-run.
func (o *Orchestrator) BuildCompleteStore(ctx context.Context) (*models.BuildReport, error) {
	report := runner.NewReport(o.shop)

	o.publish(ctx, events.NewBuildStarted(o.shop, report.RunID))

	err := o.runner.Execute(ctx, report, o.Steps())

	o.publish(ctx, events.NewBuildFinished(o.shop, report))

	return report, err
}

func (o *Orchestrator) noop(name string) func(context.Context) error {
	return func(context.Context) error {
		o.logger.Debug("Placeholder step, nothing to do", "step", name)

		return nil
	}
}

func (o *Orchestrator) publish(ctx context.Context, event eventbus.Event) {
	if o.eventBus == nil {
		return
	}

	if err := o.eventBus.Publish(ctx, o.shop, event); err != nil {
		o.logger.Error("Failed to publish build event", "event_type", event.GetType(), "error", err)
	}
}
