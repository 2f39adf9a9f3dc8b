package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/tailorbase/storesmith/pkg/scheduler"
	"github.com/tailorbase/storesmith/pkg/shopify"
	"github.com/tailorbase/storesmith/pkg/webhooks"
)

// Recurring maintenance schedules. Inventory sync runs nightly; draft-order
// cleanup runs Sunday mornings.
const (
	inventorySyncCron     = "0 3 * * *"
	draftOrderCleanupCron = "0 4 * * 0"
)

// setupAutomation registers the declared webhook subscriptions and the two
// recurring maintenance tasks. Task keys include the shop, so building
// multiple shops in one process keeps their schedules separate, and
// re-running automation for the same shop cannot double-register. Like the
// resource steps, the step only surfaces as a conflict when every webhook
// and task already existed.
func (o *Orchestrator) setupAutomation(ctx context.Context) error {
	registered, existingHooks, err := o.registrar.RegisterAll(ctx, webhooks.DeclaredSubscriptions(o.appURL))
	if err != nil {
		return fmt.Errorf("failed to register webhooks: %w", err)
	}

	tasks := []struct {
		key  string
		cron string
		run  func()
	}{
		{o.shop + "/inventory-sync", inventorySyncCron, o.syncInventory},
		{o.shop + "/draft-order-cleanup", draftOrderCleanupCron, o.cleanupDraftOrders},
	}

	var scheduled, existingTasks int

	for _, task := range tasks {
		err := o.scheduler.Schedule(task.key, task.cron, task.run)

		switch {
		case err == nil:
			scheduled++

			o.logger.Info("Scheduled maintenance task", "task", task.key, "cron", task.cron)
		case errors.Is(err, scheduler.ErrTaskExists):
			existingTasks++

			o.logger.Info("Maintenance task already scheduled, skipping", "task", task.key)
		default:
			return fmt.Errorf("failed to schedule task %s: %w", task.key, err)
		}
	}

	o.scheduler.Start()

	if registered+scheduled == 0 && existingHooks+existingTasks > 0 {
		return fmt.Errorf("automation: %w", shopify.ErrConflict)
	}

	return nil
}

// syncInventory is the nightly maintenance job. It reads the current
// product count so drift against the seeded catalog shows up in the logs.
func (o *Orchestrator) syncInventory() {
	ctx := context.Background()

	body, err := o.client.Get(ctx, "products/count")
	if err != nil {
		o.logger.Error("Inventory sync failed", "error", err)

		return
	}

	count, _ := body["count"].(float64)
	o.logger.Info("Inventory sync completed", "product_count", int(count))
}

// cleanupDraftOrders is the weekly maintenance job removing stale open
// draft orders.
func (o *Orchestrator) cleanupDraftOrders() {
	ctx := context.Background()

	body, err := o.client.Get(ctx, "draft_orders")
	if err != nil {
		o.logger.Error("Draft order cleanup failed", "error", err)

		return
	}

	drafts, _ := body["draft_orders"].([]any)

	var removed int

	for _, entry := range drafts {
		draft, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		if status, _ := draft["status"].(string); status != "open" {
			continue
		}

		id, ok := draft["id"].(float64)
		if !ok {
			continue
		}

		if err := o.client.Delete(ctx, fmt.Sprintf("draft_orders/%d", int64(id))); err != nil {
			o.logger.Error("Failed to delete draft order", "draft_order_id", int64(id), "error", err)

			continue
		}

		removed++
	}

	o.logger.Info("Draft order cleanup completed", "removed", removed)
}
