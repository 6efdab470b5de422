package concession

import (
	"context"
	"time"
)

const (
	EventCreated  = "concession.created"
	EventServiced = "concession.serviced"
)

// Event is a lifecycle notification for downstream consumers.
type Event struct {
	Type    string    `json:"type"`
	ID      string    `json:"id"`
	Status  Status    `json:"status"`
	PassNum string    `json:"passNum,omitempty"`
	At      time.Time `json:"at"`
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event Event) error
}
