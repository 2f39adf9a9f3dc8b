package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/tailorbase/storesmith/pkg/eventbus"
	"github.com/tailorbase/storesmith/pkg/events"
)

const maxDeliveryBodySize = 1024 * 1024 // 1MB max delivery body

// deliverySchema is the minimal shape every Admin API delivery carries.
// Payloads are consumed, not processed; validation only guards the bus
// against junk posted to the public endpoints.
var deliverySchema = map[string]any{
	"type":     "object",
	"required": []any{"id"},
	"properties": map[string]any{
		"id": map[string]any{"type": "integer"},
	},
}

// Receiver handles webhook deliveries from the platform: HMAC verification,
// payload validation, then publication on the event bus.
type Receiver struct {
	apiSecret string
	eventBus  eventbus.EventBus
	logger    *slog.Logger
}

func NewReceiver(apiSecret string, eventBus eventbus.EventBus, logger *slog.Logger) *Receiver {
	return &Receiver{
		apiSecret: apiSecret,
		eventBus:  eventBus,
		logger:    logger.With("module", "webhook_receiver"),
	}
}

// OrderCreated handles POST /webhooks/order-created.
func (r *Receiver) OrderCreated(c fiber.Ctx) error {
	return r.handleDelivery(c, "orders/create", func(shop string, payload map[string]any) eventbus.Event {
		return events.NewOrderReceived(shop, payload)
	})
}

// ProductCreated handles POST /webhooks/product-created.
func (r *Receiver) ProductCreated(c fiber.Ctx) error {
	return r.handleDelivery(c, "products/create", func(shop string, payload map[string]any) eventbus.Event {
		return events.NewProductReceived(shop, payload)
	})
}

func (r *Receiver) handleDelivery(c fiber.Ctx, topic string, makeEvent func(string, map[string]any) eventbus.Event) error {
	body := c.Body()
	if len(body) > maxDeliveryBodySize {
		return writeError(c, fiber.StatusRequestEntityTooLarge, "delivery body too large")
	}

	shop := c.Get("X-Shopify-Shop-Domain")
	signature := c.Get("X-Shopify-Hmac-Sha256")

	if !r.verifySignature(body, signature) {
		r.logger.Warn("Webhook delivery failed HMAC verification", "topic", topic, "shop", shop)

		return writeError(c, fiber.StatusUnauthorized, "invalid webhook signature")
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid JSON in delivery body")
	}

	if err := validateDelivery(payload); err != nil {
		r.logger.Warn("Webhook delivery failed schema validation", "topic", topic, "error", err)

		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("schema validation failed: %v", err))
	}

	event := makeEvent(shop, payload)
	if err := r.eventBus.Publish(c.Context(), shop, event); err != nil {
		r.logger.Error("Failed to publish webhook event", "topic", topic, "error", err)

		return writeError(c, fiber.StatusInternalServerError, "error processing delivery")
	}

	r.logger.Info("Webhook delivery processed", "topic", topic, "shop", shop)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "delivery received",
	})
}

// verifySignature checks the X-Shopify-Hmac-Sha256 header against an
// HMAC-SHA256 of the raw body keyed with the app's API secret.
func (r *Receiver) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(r.apiSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func validateDelivery(payload map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(deliverySchema),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(problems, "; "))
	}

	return nil
}

func writeError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}
