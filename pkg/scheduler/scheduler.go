// Package scheduler provides the recurring-task registry for post-build
// automation. The handle is owned by whoever constructs it and passed
// explicitly; there is no package-level registry.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
)

// ErrTaskExists indicates a task with the same key is already scheduled.
// Repeated automation setup for the same shop hits this instead of
// double-registering recurring work.
var ErrTaskExists = errors.New("task already scheduled")

// Handle wraps a cron runner with keyed task registration.
type Handle struct {
	cron   *cron.Cron
	logger *slog.Logger
	tasks  map[string]cron.EntryID
	mu     sync.RWMutex
}

// NewHandle creates a stopped scheduler handle. Call Start once tasks are
// registered, or before; registration works either way.
func NewHandle(logger *slog.Logger) *Handle {
	return &Handle{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		logger: logger.With("module", "scheduler"),
		tasks:  make(map[string]cron.EntryID),
	}
}

// Schedule registers a recurring task under a unique key. The cron
// expression uses the standard five-field calendar format.
func (h *Handle) Schedule(key, cronExpr string, task func()) error {
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q for task %s: %w", cronExpr, key, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.tasks[key]; exists {
		return fmt.Errorf("task %s: %w", key, ErrTaskExists)
	}

	entryID, err := h.cron.AddFunc(cronExpr, task)
	if err != nil {
		return fmt.Errorf("failed to add cron job for task %s: %w", key, err)
	}

	h.tasks[key] = entryID
	h.logger.Info("Scheduled recurring task", "task", key, "cron", cronExpr, "entry_id", entryID)

	return nil
}

// Unschedule removes a task by key. Unknown keys are a no-op.
func (h *Handle) Unschedule(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if entryID, exists := h.tasks[key]; exists {
		h.cron.Remove(entryID)
		delete(h.tasks, key)
		h.logger.Info("Unscheduled recurring task", "task", key)
	}
}

// Start begins running scheduled tasks in their own goroutine.
func (h *Handle) Start() {
	h.cron.Start()
	h.logger.Info("Scheduler started", "tasks", h.TaskCount())
}

// Stop stops the scheduler and waits for running tasks to finish or the
// context to expire.
func (h *Handle) Stop(ctx context.Context) error {
	stopCtx := h.cron.Stop()

	select {
	case <-stopCtx.Done():
		h.logger.Info("Scheduler stopped")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TaskCount returns the number of registered tasks.
func (h *Handle) TaskCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.tasks)
}

// Tasks returns the registered task keys in sorted order.
func (h *Handle) Tasks() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.tasks))
	for key := range h.tasks {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
