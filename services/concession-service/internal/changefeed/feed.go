// Package changefeed announces writes to the concession collections so live
// views can re-run their queries.
package changefeed

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("change feed closed")

const (
	CollectionDetails  = "ConcessionDetails"
	CollectionRequests = "ConcessionRequest"
)

const (
	OpUpsert   = "upsert"
	OpServiced = "serviced"
)

// Change names one written document. It carries no document data; subscribers re-query.
type Change struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Op         string    `json:"op"`
	At         time.Time `json:"at"`
}

type Feed interface {
	Publish(ctx context.Context, change Change) error
	// Subscribe registers handler until the returned function is called.
	// Handlers must not block.
	Subscribe(handler func(Change)) (unsubscribe func(), err error)
	Close() error
}

// PairChanges returns the events for a write touching both records of id.
func PairChanges(id, op string, at time.Time) []Change {
	return []Change{
		{Collection: CollectionDetails, ID: id, Op: op, At: at},
		{Collection: CollectionRequests, ID: id, Op: op, At: at},
	}
}
