package eventstore

import (
	"context"
	"time"
)

// Store persists build events and reads them back in append order.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID retrieves all events for a specific build.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events stored within [start, end].
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Record appends e to store. A nil store discards the event, so callers can
// journal unconditionally.
func Record(ctx context.Context, store Store, e Event) error {
	if store == nil {
		return nil
	}
	return store.Append(ctx, e.BuildID(), e.Type(), e.Payload(), e.Metadata())
}
