package notify

import "context"

// Notifier delivers events to a downstream sink (HTTP, SQS, SNS, Pub/Sub).
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, evt Event) error
}
