// Package events defines event types for build runs and webhook deliveries.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tailorbase/storesmith/pkg/models"
)

type EventType string

const Topic = "storesmith.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Build lifecycle events.
	BuildStartedEvent  EventType = "build.started"
	BuildFinishedEvent EventType = "build.finished"

	// Webhook delivery events.
	OrderReceivedEvent   EventType = "webhook.order.received"
	ProductReceivedEvent EventType = "webhook.product.received"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Shop      string         `json:"shop"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func newBaseEvent(eventType EventType, shop string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Shop:      shop,
	}
}

// BuildStarted is published when a provisioning run begins.
type BuildStarted struct {
	BaseEvent

	RunID string `json:"run_id"`
}

func NewBuildStarted(shop, runID string) *BuildStarted {
	return &BuildStarted{BaseEvent: newBaseEvent(BuildStartedEvent, shop), RunID: runID}
}

func (b BuildStarted) GetType() EventType {
	return BuildStartedEvent
}

// BuildFinished is published when a provisioning run completes, whether or
// not individual steps failed.
type BuildFinished struct {
	BaseEvent

	RunID    string             `json:"run_id"`
	Report   models.BuildReport `json:"report"`
	Duration time.Duration      `json:"duration"`
}

func NewBuildFinished(shop string, report *models.BuildReport) *BuildFinished {
	return &BuildFinished{
		BaseEvent: newBaseEvent(BuildFinishedEvent, shop),
		RunID:     report.RunID,
		Report:    *report,
		Duration:  report.FinishedAt.Sub(report.StartedAt),
	}
}

func (b BuildFinished) GetType() EventType {
	return BuildFinishedEvent
}

// OrderReceived is published for each delivery on the order-created webhook.
type OrderReceived struct {
	BaseEvent

	Payload map[string]any `json:"payload"`
}

func NewOrderReceived(shop string, payload map[string]any) *OrderReceived {
	return &OrderReceived{BaseEvent: newBaseEvent(OrderReceivedEvent, shop), Payload: payload}
}

func (o OrderReceived) GetType() EventType {
	return OrderReceivedEvent
}

// ProductReceived is published for each delivery on the product-created webhook.
type ProductReceived struct {
	BaseEvent

	Payload map[string]any `json:"payload"`
}

func NewProductReceived(shop string, payload map[string]any) *ProductReceived {
	return &ProductReceived{BaseEvent: newBaseEvent(ProductReceivedEvent, shop), Payload: payload}
}

func (p ProductReceived) GetType() EventType {
	return ProductReceivedEvent
}
