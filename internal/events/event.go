package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"winsbygroup.com/custserver/internal/customer"
	"winsbygroup.com/custserver/internal/middleware"
)

// Event is the wire form of a committed customer change.
type Event struct {
	Type       customer.ChangeKind `json:"type"`
	CustomerID int64               `json:"customer_id"`
	Customer   *customer.Customer  `json:"customer,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
	RequestID  string              `json:"request_id,omitempty"`
}

// NewEvent builds the event for a change, tagging it with the request id
// found in ctx.
func NewEvent(ctx context.Context, c customer.Change) Event {
	return Event{
		Type:       c.Kind,
		CustomerID: c.ID,
		Customer:   c.Customer,
		OccurredAt: c.At,
		RequestID:  middleware.RequestIDFromContext(ctx),
	}
}

// Key is the partition key of the event.
func (e Event) Key() string {
	return strconv.FormatInt(e.CustomerID, 10)
}

func (e Event) encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return b, nil
}
