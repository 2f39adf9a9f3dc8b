package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tailorbase/storesmith/pkg/channels/gochannel"
	"github.com/tailorbase/storesmith/pkg/eventbus"
)

// NewEventBus creates the in-process event bus.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		panic(fmt.Errorf("failed to create event channel: %w", err))
	}

	return eventbus.NewWatermillEventBus(pub, sub)
}
