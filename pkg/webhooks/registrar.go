// Package webhooks declares the event subscriptions downstream automation
// depends on and receives their deliveries.
package webhooks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tailorbase/storesmith/pkg/shopify"
)

// DeliveryFormat is the payload format requested for all subscriptions.
const DeliveryFormat = "json"

// Subscription declares one webhook topic and where the platform should
// deliver it.
type Subscription struct {
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format"`
}

// DeclaredSubscriptions returns the topic set the orchestrator registers,
// with delivery addresses rooted at the app URL.
func DeclaredSubscriptions(appURL string) []Subscription {
	return []Subscription{
		{Topic: "orders/create", Address: appURL + "/webhooks/order-created", Format: DeliveryFormat},
		{Topic: "products/create", Address: appURL + "/webhooks/product-created", Format: DeliveryFormat},
	}
}

// Registrar creates webhook subscriptions through the Admin API.
type Registrar struct {
	client shopify.API
	logger *slog.Logger
}

func NewRegistrar(client shopify.API, logger *slog.Logger) *Registrar {
	return &Registrar{
		client: client,
		logger: logger.With("module", "webhook_registrar"),
	}
}

// Register creates one subscription. Duplicate-topic registration comes
// back from the platform as a conflict; the caller decides whether that is
// benign.
func (r *Registrar) Register(ctx context.Context, sub Subscription) error {
	payload := map[string]any{
		"webhook": map[string]any{
			"topic":   sub.Topic,
			"address": sub.Address,
			"format":  sub.Format,
		},
	}

	if _, err := r.client.Post(ctx, "webhooks", payload); err != nil {
		return fmt.Errorf("failed to register webhook %s: %w", sub.Topic, err)
	}

	r.logger.Info("Registered webhook", "topic", sub.Topic, "address", sub.Address)

	return nil
}

// RegisterAll registers every subscription, tolerating already-registered
// topics, and reports how many were new versus already present. Any other
// failure aborts and is reported to the caller.
func (r *Registrar) RegisterAll(ctx context.Context, subs []Subscription) (int, int, error) {
	var registered, existing int

	for _, sub := range subs {
		err := r.Register(ctx, sub)

		switch {
		case err == nil:
			registered++
		case shopify.IsConflict(err):
			existing++

			r.logger.Info("Webhook already registered, skipping", "topic", sub.Topic)
		default:
			return registered, existing, err
		}
	}

	return registered, existing, nil
}
