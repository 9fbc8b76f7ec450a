// Package notify defines the notification sink port. Sinks are fire-and-forget
// destinations: delivery failure is logged by the dispatcher and never blocks
// or rolls back the state transition that produced the message.
package notify

import (
	"context"

	"github.com/hausmate/hausmate-core/internal/domain/model"
)

// Message is the canonical payload sent to a notification sink.
type Message struct {
	UserID      string
	Title       string
	Description string
	Kind        model.NotificationKind
}

// Sink describes a destination capable of consuming notifications.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, msg Message) error

// Send implements the Sink interface.
func (f SinkFunc) Send(ctx context.Context, msg Message) error {
	if f == nil {
		return nil
	}
	return f(ctx, msg)
}
