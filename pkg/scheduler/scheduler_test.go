package scheduler

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_Schedule(t *testing.T) {
	handle := NewHandle(slog.Default())

	err := handle.Schedule("test-shop.myshopify.com/inventory-sync", "0 3 * * *", func() {})
	require.NoError(t, err)

	assert.Equal(t, 1, handle.TaskCount())
}

func TestHandle_ScheduleDuplicateKey(t *testing.T) {
	handle := NewHandle(slog.Default())

	require.NoError(t, handle.Schedule("test-shop.myshopify.com/inventory-sync", "0 3 * * *", func() {}))

	err := handle.Schedule("test-shop.myshopify.com/inventory-sync", "0 3 * * *", func() {})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTaskExists)

	assert.Equal(t, 1, handle.TaskCount())
}

func TestHandle_ScheduleInvalidCron(t *testing.T) {
	handle := NewHandle(slog.Default())

	err := handle.Schedule("bad-task", "not a cron expression", func() {})
	require.Error(t, err)

	assert.Equal(t, 0, handle.TaskCount())
}

func TestHandle_Unschedule(t *testing.T) {
	handle := NewHandle(slog.Default())

	require.NoError(t, handle.Schedule("a", "0 4 * * 0", func() {}))
	require.NoError(t, handle.Schedule("b", "0 3 * * *", func() {}))

	handle.Unschedule("a")
	assert.Equal(t, 1, handle.TaskCount())

	// Unknown keys are a no-op.
	handle.Unschedule("missing")
	assert.Equal(t, 1, handle.TaskCount())

	// Freed keys can be reused.
	require.NoError(t, handle.Schedule("a", "0 4 * * 0", func() {}))
	assert.Equal(t, 2, handle.TaskCount())
}

func TestHandle_TasksSorted(t *testing.T) {
	handle := NewHandle(slog.Default())

	require.NoError(t, handle.Schedule("zeta/cleanup", "0 4 * * 0", func() {}))
	require.NoError(t, handle.Schedule("alpha/sync", "0 3 * * *", func() {}))

	assert.Equal(t, []string{"alpha/sync", "zeta/cleanup"}, handle.Tasks())
}

func TestHandle_StartStop(t *testing.T) {
	handle := NewHandle(slog.Default())

	require.NoError(t, handle.Schedule("test-shop.myshopify.com/inventory-sync", "0 3 * * *", func() {}))

	handle.Start()
	require.NoError(t, handle.Stop(t.Context()))
}
