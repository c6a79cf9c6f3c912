package repository

import (
	"context"

	"hooksink/internal/domain/event"
)

// LedgerRepository is the durable, append-only, deduplicated event store for
// one tenant.
type LedgerRepository interface {
	// Exists reports whether a delivery id is already recorded.
	Exists(ctx context.Context, deliveryID string) (bool, error)

	// Insert attempts to persist e. When delivery_id is already present the
	// insert is an atomic no-op and inserted is false; no row is modified.
	Insert(ctx context.Context, e *event.Event) (inserted bool, err error)

	// Recent returns events ordered newest first (received_at desc, ties by
	// latest insertion first).
	Recent(ctx context.Context, limit, offset int) ([]event.Event, error)

	// RecentByType is Recent filtered to one event type.
	RecentByType(ctx context.Context, eventType string, limit, offset int) ([]event.Event, error)

	// Count returns the total number of accepted deliveries.
	Count(ctx context.Context) (int64, error)

	// Last returns the most recently accepted event, or ErrNotFound on an
	// empty ledger.
	Last(ctx context.Context) (event.Event, error)
}
