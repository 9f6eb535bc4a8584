package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Table names carried by events.
const (
	TableContent = "website_content"
	TableBundles = "site_locales"
)

// Operations carried by events.
const (
	OpInsert  = "INSERT"
	OpUpdate  = "UPDATE"
	OpDelete  = "DELETE"
	OpUnknown = "UNKNOWN"
)

// DefaultChannel is the channel name used by PGListener and Redis.
const DefaultChannel = "localesync_changes"

// Event describes a change to one row of a watched table.
type Event struct {
	At        time.Time       `json:"at"`
	ID        string          `json:"id"`
	Table     string          `json:"table"`
	Operation string          `json:"operation"`
	Row       json.RawMessage `json:"row,omitempty"`
}

// NewEvent creates an event with a fresh ID and timestamp.
// The row is marshaled to JSON; marshal failures leave Row empty.
func NewEvent(table, operation string, row any) Event {
	ev := Event{
		ID:        uuid.NewString(),
		Table:     table,
		Operation: operation,
		At:        time.Now().UTC(),
	}
	if row != nil {
		if data, err := json.Marshal(row); err == nil {
			ev.Row = data
		}
	}
	return ev
}

// DecodeEvent parses a notification payload.
// A payload that cannot be decoded still yields a usable trigger event with
// OpUnknown, together with ErrMalformedPayload.
func DecodeEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		unknown := NewEvent("", OpUnknown, nil)
		return unknown, errors.Join(ErrMalformedPayload, err)
	}
	if ev.Operation == "" {
		ev.Operation = OpUnknown
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return ev, nil
}

// Subscriber yields change events until ctx is done.
// The returned channel is closed when the subscription ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Publisher emits change events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context) (<-chan Event, error)

// Subscribe implements Subscriber.
func (f SubscriberFunc) Subscribe(ctx context.Context) (<-chan Event, error) {
	return f(ctx)
}
