// AngelaMos | 2026
// notifier.go

package notify

import (
	"context"
)

// Notifier accepts a message for best-effort delivery. Implementations must
// not block the caller on delivery and never report delivery failure.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Sender performs the actual delivery of one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type discard struct{}

func (discard) Notify(context.Context, Message) {}

// Discard drops every message.
var Discard Notifier = discard{}
