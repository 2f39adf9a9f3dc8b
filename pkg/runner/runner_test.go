package runner

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/shopify"
)

func step(name string, err error) models.BuildStep {
	return models.BuildStep{
		Name: name,
		Run: func(context.Context) error {
			return err
		},
	}
}

func TestRunner_MixedOutcomes(t *testing.T) {
	runner := NewRunner(slog.Default(), nil)

	steps := []models.BuildStep{
		step("a", nil),
		step("b", &shopify.APIError{Status: http.StatusUnprocessableEntity, Path: "pages"}),
		step("c", errors.New("connection reset")),
		step("d", nil),
	}

	report, err := runner.Run(t.Context(), "test-shop.myshopify.com", steps)
	require.NoError(t, err, "non-auth step failures must not fail the run")

	require.Len(t, report.Results, 4)
	assert.Equal(t, models.StepSucceeded, report.Results[0].Status)
	assert.Equal(t, models.StepSkippedExisting, report.Results[1].Status)
	assert.Equal(t, models.StepFailed, report.Results[2].Status)
	assert.Equal(t, models.StepSucceeded, report.Results[3].Status)

	assert.Equal(t, "connection reset", report.Results[2].Error)
	assert.False(t, report.Succeeded())
}

func TestRunner_OrderRespected(t *testing.T) {
	runner := NewRunner(slog.Default(), nil)

	var executed []string

	var steps []models.BuildStep
	for _, name := range []string{"first", "second", "third"} {
		steps = append(steps, models.BuildStep{
			Name: name,
			Run: func(context.Context) error {
				executed = append(executed, name)

				return nil
			},
		})
	}

	report, err := runner.Run(t.Context(), "test-shop.myshopify.com", steps)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, executed)
	assert.True(t, report.Succeeded())
}

func TestRunner_UnauthorizedAbortsRemainingSteps(t *testing.T) {
	runner := NewRunner(slog.Default(), nil)

	var laterRan bool

	steps := []models.BuildStep{
		step("a", nil),
		step("b", &shopify.APIError{Status: http.StatusUnauthorized, Path: "shop"}),
		{
			Name: "c",
			Run: func(context.Context) error {
				laterRan = true

				return nil
			},
		},
	}

	report, err := runner.Run(t.Context(), "test-shop.myshopify.com", steps)
	require.Error(t, err)
	assert.True(t, shopify.IsUnauthorized(err))

	require.Len(t, report.Results, 2)
	assert.False(t, laterRan, "steps after an auth failure must not execute")
}

func TestRunner_ReportMetadata(t *testing.T) {
	runner := NewRunner(slog.Default(), nil)

	report, err := runner.Run(t.Context(), "test-shop.myshopify.com", []models.BuildStep{step("only", nil)})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "test-shop.myshopify.com", report.Shop)
	assert.False(t, report.StartedAt.IsZero())
	assert.False(t, report.FinishedAt.IsZero())
}
