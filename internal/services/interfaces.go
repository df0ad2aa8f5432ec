package services

import (
	"context"

	"vcfo/pkg/contracts/events"
)

// EventPublisher pushes record events to an owner's websocket clients.
// *websocket.Hub implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ownerID string, msgType events.MessageType, data interface{}) error
}

// noopPublisher is used when no realtime channel is configured
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, events.MessageType, interface{}) error {
	return nil
}
