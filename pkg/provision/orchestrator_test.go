package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailorbase/storesmith/pkg/eventbus"
	"github.com/tailorbase/storesmith/pkg/events"
	"github.com/tailorbase/storesmith/pkg/models"
	"github.com/tailorbase/storesmith/pkg/scheduler"
	"github.com/tailorbase/storesmith/pkg/shopify"
)

// fakeAPI simulates the Admin REST API in memory: resources are keyed by
// title or topic, re-creating one yields a 422, and themes process
// asynchronously for a configurable number of polls.
type fakeAPI struct {
	mu sync.Mutex

	theme           map[string]any
	processingPolls int
	pollCount       int

	resources map[string]map[string]bool

	draftOrders []map[string]any
	deleted     []string

	failures map[string]error
	putCalls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		resources: make(map[string]map[string]bool),
		failures:  make(map[string]error),
		putCalls:  make(map[string]int),
	}
}

func (f *fakeAPI) Get(_ context.Context, path string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["GET "+path]; err != nil {
		return nil, err
	}

	switch {
	case path == "themes":
		if f.theme == nil {
			return map[string]any{"themes": []any{}}, nil
		}

		return map[string]any{"themes": []any{f.themeCopy()}}, nil
	case strings.HasPrefix(path, "themes/"):
		f.pollCount++

		theme := f.themeCopy()
		if f.processingPolls > 0 {
			f.processingPolls--
			theme["processing"] = true
		} else {
			theme["processing"] = false
		}

		return map[string]any{"theme": theme}, nil
	case path == "products/count":
		return map[string]any{"count": float64(len(f.resources["products"]))}, nil
	case path == "draft_orders":
		drafts := make([]any, 0, len(f.draftOrders))
		for _, draft := range f.draftOrders {
			drafts = append(drafts, draft)
		}

		return map[string]any{"draft_orders": drafts}, nil
	}

	return map[string]any{}, nil
}

func (f *fakeAPI) Post(_ context.Context, path string, payload any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["POST "+path]; err != nil {
		return nil, err
	}

	body, _ := payload.(map[string]any)

	if path == "themes" {
		theme, _ := body["theme"].(map[string]any)
		f.theme = map[string]any{
			"id":   float64(100),
			"name": theme["name"],
			"role": "unpublished",
		}

		return map[string]any{"theme": f.themeCopy()}, nil
	}

	key := resourceKey(body)
	if key == "" {
		return map[string]any{}, nil
	}

	if f.resources[path] == nil {
		f.resources[path] = make(map[string]bool)
	}

	if f.resources[path][key] {
		return nil, &shopify.APIError{
			Status:  http.StatusUnprocessableEntity,
			Path:    path,
			Message: "has already been taken",
		}
	}

	f.resources[path][key] = true

	return map[string]any{}, nil
}

func (f *fakeAPI) Put(_ context.Context, path string, _ any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["PUT "+path]; err != nil {
		return nil, err
	}

	f.putCalls[path]++

	if strings.HasPrefix(path, "themes/") && !strings.HasSuffix(path, "/assets") {
		f.theme["role"] = "main"
	}

	return map[string]any{}, nil
}

func (f *fakeAPI) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["DELETE "+path]; err != nil {
		return err
	}

	f.deleted = append(f.deleted, path)

	return nil
}

func (f *fakeAPI) themeCopy() map[string]any {
	theme := make(map[string]any, len(f.theme))
	for k, v := range f.theme {
		theme[k] = v
	}

	return theme
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.resources[path])
}

func resourceKey(payload map[string]any) string {
	for _, wrapper := range []string{"custom_collection", "smart_collection", "page", "product", "webhook"} {
		inner, ok := payload[wrapper].(map[string]any)
		if !ok {
			continue
		}

		if title, ok := inner["title"].(string); ok {
			return wrapper + "/" + title
		}

		if topic, ok := inner["topic"].(string); ok {
			return wrapper + "/" + topic
		}
	}

	return ""
}

// recordingBus captures published events without any transport.
type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *recordingBus) Handle(events.EventType, eventbus.EventHandler) error { return nil }
func (b *recordingBus) Subscribe(context.Context) error                      { return nil }
func (b *recordingBus) Close() error                                         { return nil }
func (b *recordingBus) GenerateID() string                                   { return "test-id" }

func (b *recordingBus) types() []events.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()

	types := make([]events.EventType, 0, len(b.events))
	for _, event := range b.events {
		types = append(types, event.GetType())
	}

	return types
}

func quickThemeWait() ThemeWaitConfig {
	return ThemeWaitConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Deadline:        time.Second,
	}
}

func newTestOrchestrator(fake *fakeAPI, handle *scheduler.Handle, bus eventbus.EventBus) *Orchestrator {
	return NewOrchestrator(Config{
		Client:    fake,
		Shop:      "test-shop.myshopify.com",
		AppURL:    "https://app.example.com",
		Scheduler: handle,
		EventBus:  bus,
		Logger:    slog.Default(),
		ThemeWait: quickThemeWait(),
	})
}

func TestOrchestrator_BuildCompleteStore(t *testing.T) {
	fake := newFakeAPI()
	handle := scheduler.NewHandle(slog.Default())
	bus := &recordingBus{}

	orchestrator := newTestOrchestrator(fake, handle, bus)

	report, err := orchestrator.BuildCompleteStore(t.Context())
	require.NoError(t, err)
	require.NoError(t, handle.Stop(t.Context()))

	require.Len(t, report.Results, 9)
	assert.True(t, report.Succeeded())

	wantSteps := []string{
		"store-settings", "theme-setup", "collections", "navigation",
		"pages", "products", "shipping", "automation", "checkout",
	}
	for i, name := range wantSteps {
		assert.Equal(t, name, report.Results[i].StepName)
		assert.Equal(t, models.StepSucceeded, report.Results[i].Status)
	}

	assert.Equal(t, 1, fake.putCalls["shop"])
	assert.Equal(t, 1, fake.putCalls["themes/100/assets"])
	assert.Equal(t, 1, fake.putCalls["themes/100"], "new theme must be published")

	assert.Equal(t, 3, fake.count("custom_collections"))
	assert.Equal(t, 3, fake.count("smart_collections"))
	assert.Equal(t, 5, fake.count("pages"))
	assert.Equal(t, 5, fake.count("products"))
	assert.Equal(t, 2, fake.count("webhooks"))

	assert.Equal(t, []string{
		"test-shop.myshopify.com/draft-order-cleanup",
		"test-shop.myshopify.com/inventory-sync",
	}, handle.Tasks())

	assert.Equal(t, []events.EventType{events.BuildStartedEvent, events.BuildFinishedEvent}, bus.types())
}

func TestOrchestrator_SecondRunIsIdempotent(t *testing.T) {
	fake := newFakeAPI()
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := newTestOrchestrator(fake, handle, nil)

	_, err := orchestrator.BuildCompleteStore(t.Context())
	require.NoError(t, err)

	report, err := orchestrator.BuildCompleteStore(t.Context())
	require.NoError(t, err)

	defer func() { require.NoError(t, handle.Stop(t.Context())) }()

	require.Len(t, report.Results, 9)
	assert.Empty(t, report.Failed(), "a re-run must not fail on existing resources")

	for _, name := range []string{"collections", "pages", "products", "automation"} {
		result, found := report.Find(name)
		require.True(t, found)
		assert.Equal(t, models.StepSkippedExisting, result.Status, "step %s", name)
	}

	// Nothing was created twice and the published theme stayed published.
	assert.Equal(t, 5, fake.count("products"))
	assert.Equal(t, 2, fake.count("webhooks"))
	assert.Equal(t, 1, fake.putCalls["themes/100"])
	assert.Equal(t, 2, handle.TaskCount())
}

func TestOrchestrator_AutomationPartiallyExistingSucceeds(t *testing.T) {
	fake := newFakeAPI()
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := newTestOrchestrator(fake, handle, nil)

	_, err := orchestrator.BuildCompleteStore(t.Context())
	require.NoError(t, err)

	defer func() { require.NoError(t, handle.Stop(t.Context())) }()

	// One task dropped out of the schedule; re-running automation restores
	// it, so the step did real work and must not report a conflict.
	handle.Unschedule("test-shop.myshopify.com/inventory-sync")

	require.NoError(t, orchestrator.setupAutomation(t.Context()))
	assert.Equal(t, 2, handle.TaskCount())
}

func TestOrchestrator_ThemeProcessingWait(t *testing.T) {
	fake := newFakeAPI()
	fake.processingPolls = 2
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := newTestOrchestrator(fake, handle, nil)

	report, err := orchestrator.BuildCompleteStore(t.Context())
	require.NoError(t, err)
	require.NoError(t, handle.Stop(t.Context()))

	result, found := report.Find("theme-setup")
	require.True(t, found)
	assert.Equal(t, models.StepSucceeded, result.Status)

	assert.GreaterOrEqual(t, fake.pollCount, 3, "readiness polling must retry while processing")
}

func TestOrchestrator_ThemeNeverReady(t *testing.T) {
	fake := newFakeAPI()
	fake.processingPolls = 1000
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := NewOrchestrator(Config{
		Client:    fake,
		Shop:      "test-shop.myshopify.com",
		AppURL:    "https://app.example.com",
		Scheduler: handle,
		Logger:    slog.Default(),
		ThemeWait: ThemeWaitConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Deadline:        10 * time.Millisecond,
		},
	})

	report, err := orchestrator.BuildCompleteStore(t.Context())
	require.NoError(t, err, "a stuck theme is a step failure, not a run failure")
	require.NoError(t, handle.Stop(t.Context()))

	result, found := report.Find("theme-setup")
	require.True(t, found)
	assert.Equal(t, models.StepFailed, result.Status)
	assert.ErrorIs(t, result.Err, ErrThemeNotReady)
}

func TestOrchestrator_UnauthorizedAbortsBuild(t *testing.T) {
	fake := newFakeAPI()
	fake.failures["PUT shop"] = &shopify.APIError{Status: http.StatusUnauthorized, Path: "shop"}
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := newTestOrchestrator(fake, handle, nil)

	report, err := orchestrator.BuildCompleteStore(t.Context())
	require.Error(t, err)
	assert.True(t, shopify.IsUnauthorized(err))

	require.Len(t, report.Results, 1)
	assert.Equal(t, models.StepFailed, report.Results[0].Status)

	assert.Equal(t, 0, fake.count("products"), "no later step may run after an auth failure")
	assert.Equal(t, 0, handle.TaskCount())
}

func TestOrchestrator_FailedStepDoesNotStopBuild(t *testing.T) {
	fake := newFakeAPI()
	fake.failures["POST pages"] = errors.New("connection reset")
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := newTestOrchestrator(fake, handle, nil)

	report, err := orchestrator.BuildCompleteStore(t.Context())
	require.NoError(t, err)
	require.NoError(t, handle.Stop(t.Context()))

	require.Len(t, report.Results, 9)

	result, found := report.Find("pages")
	require.True(t, found)
	assert.Equal(t, models.StepFailed, result.Status)

	assert.Equal(t, 5, fake.count("products"), "later steps still run after a non-auth failure")
	assert.Equal(t, 2, handle.TaskCount())
}

func TestOrchestrator_CleanupDraftOrders(t *testing.T) {
	fake := newFakeAPI()
	fake.draftOrders = []map[string]any{
		{"id": float64(11), "status": "open"},
		{"id": float64(12), "status": "completed"},
		{"id": float64(13), "status": "open"},
	}
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := newTestOrchestrator(fake, handle, nil)
	orchestrator.cleanupDraftOrders()

	assert.Equal(t, []string{"draft_orders/11", "draft_orders/13"}, fake.deleted)
}

func TestOrchestrator_SyncInventoryToleratesErrors(t *testing.T) {
	fake := newFakeAPI()
	fake.failures["GET products/count"] = fmt.Errorf("upstream timeout")
	handle := scheduler.NewHandle(slog.Default())

	orchestrator := newTestOrchestrator(fake, handle, nil)

	// Must not panic; failures are logged and the next tick retries.
	orchestrator.syncInventory()
}
