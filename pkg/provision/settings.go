package provision

import (
	"context"
	"fmt"
)

// configureSettings writes the shop-level locale, currency, and contact
// fields. This is an update-in-place, so re-runs succeed rather than skip.
func (o *Orchestrator) configureSettings(ctx context.Context) error {
	payload := map[string]any{
		"shop": map[string]any{
			"primary_locale":         "en",
			"currency":               "USD",
			"money_format":           "${{amount}}",
			"customer_email":         "support@" + o.shop,
			"checkout_api_supported": true,
			"timezone":               "(GMT-05:00) Eastern Time (US & Canada)",
		},
	}

	if _, err := o.client.Put(ctx, "shop", payload); err != nil {
		return fmt.Errorf("failed to update shop settings: %w", err)
	}

	o.logger.Info("Updated shop settings")

	return nil
}
