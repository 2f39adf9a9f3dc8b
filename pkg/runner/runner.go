// Package runner executes ordered build steps with a conflict-tolerant,
// best-effort policy: re-running a build against a partially built store
// must never abort on "already exists".
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/otelhelper"
	"github.com/tailorbase/storesmith/pkg/shopify"
)

type Runner struct {
	logger *slog.Logger
	tracer trace.Tracer
}

func NewRunner(logger *slog.Logger, tracer trace.Tracer) *Runner {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("storesmith")
	}

	return &Runner{
		logger: logger.With("module", "step_runner"),
		tracer: tracer,
	}
}

// NewReport creates an empty report with a fresh run ID. Callers that need
// the run ID before execution (for event publication) create the report
// themselves and pass it to Execute.
func NewReport(shop string) *models.BuildReport {
	return &models.BuildReport{
		RunID:     generateRunID(),
		Shop:      shop,
		StartedAt: time.Now().UTC(),
	}
}

// Run executes the steps strictly in declared order and records one result
// per step. Conflict-class errors downgrade to skipped_existing; any other
// step error is recorded as failed and execution continues. The returned
// error is non-nil only when the platform rejected the credentials, in
// which case the remaining steps are not attempted.
func (r *Runner) Run(ctx context.Context, shop string, steps []models.BuildStep) (*models.BuildReport, error) {
	report := NewReport(shop)

	return report, r.Execute(ctx, report, steps)
}

// Execute runs the steps against an existing report.
func (r *Runner) Execute(ctx context.Context, report *models.BuildReport, steps []models.BuildStep) error {
	shop := report.Shop
	logger := r.logger.With("shop", shop, "run_id", report.RunID)
	logger.Info("Starting build run", "steps", len(steps))

	ctx, runSpan := otelhelper.StartSpan(ctx, r.tracer, "build.run",
		attribute.String(otelhelper.ShopKey, shop),
		attribute.String(otelhelper.RunIDKey, report.RunID))
	defer runSpan.End()

	var authErr error

	for _, step := range steps {
		if authErr != nil {
			break
		}

		result := r.runStep(ctx, logger, step)
		report.Append(result)

		if result.Status == models.StepFailed && shopify.IsUnauthorized(result.Err) {
			authErr = fmt.Errorf("build aborted at step %s: %w", step.Name, result.Err)

			otelhelper.SetError(runSpan, authErr)
		}
	}

	report.FinishedAt = time.Now().UTC()

	logger.Info("Build run finished",
		"steps", len(report.Results),
		"failed", len(report.Failed()),
		"duration", report.FinishedAt.Sub(report.StartedAt))

	return authErr
}

func (r *Runner) runStep(ctx context.Context, logger *slog.Logger, step models.BuildStep) models.BuildResult {
	logger = logger.With("step", step.Name)
	logger.Info("Executing build step")

	stepCtx, span := otelhelper.StartSpan(ctx, r.tracer, "build.step",
		attribute.String(otelhelper.StepNameKey, step.Name))
	defer span.End()

	err := step.Run(stepCtx)

	switch {
	case err == nil:
		logger.Info("Build step succeeded")
		span.SetAttributes(attribute.String(otelhelper.StepStatusKey, string(models.StepSucceeded)))

		return models.BuildResult{StepName: step.Name, Status: models.StepSucceeded}

	case shopify.IsConflict(err):
		logger.Info("Build step target already exists, skipping", "error", err)
		span.SetAttributes(attribute.String(otelhelper.StepStatusKey, string(models.StepSkippedExisting)))

		return models.BuildResult{StepName: step.Name, Status: models.StepSkippedExisting}

	default:
		logger.Error("Build step failed", "error", err)
		span.SetAttributes(attribute.String(otelhelper.StepStatusKey, string(models.StepFailed)))
		otelhelper.SetError(span, err)

		return models.BuildResult{
			StepName: step.Name,
			Status:   models.StepFailed,
			Error:    err.Error(),
			Err:      err,
		}
	}
}

// generateRunID generates a unique build run ID.
func generateRunID() string {
	return fmt.Sprintf("run-%s", uuid.New().String()[:8])
}
