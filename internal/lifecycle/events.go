package lifecycle

import (
	"context"
	"time"
)

// Event announces a status change to live subscribers of the tenant.
type Event struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	ID     uint      `json:"id"`
	Number string    `json:"number,omitempty"`
	Status string    `json:"status"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// Notifier delivers events. Delivery is best effort and must not block.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}
