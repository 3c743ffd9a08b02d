package notify

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted after a successful payment call.
const (
	KindPaymentIntentCreated = "payment_intent.created"
	KindSubscriptionCreated  = "subscription.created"
	KindPaymentCompleted     = "payment.completed"
	KindSubscriptionCanceled = "subscription.cancelled"
)

var knownKinds = map[string]struct{}{
	KindPaymentIntentCreated: {},
	KindSubscriptionCreated:  {},
	KindPaymentCompleted:     {},
	KindSubscriptionCanceled: {},
}

// Event represents the payload announced downstream.
type Event struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	ReferenceID string    `json:"reference_id"`
	Resource    any       `json:"resource,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event for the resource identified by referenceID.
func NewEvent(kind, referenceID string, resource any) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        kind,
		ReferenceID: referenceID,
		Resource:    resource,
		OccurredAt:  time.Now().UTC(),
	}
}

// attributes are the routing attributes queue and topic sinks attach to a message.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":     e.ID,
		"kind":         e.Kind,
		"reference_id": e.ReferenceID,
	}
}
