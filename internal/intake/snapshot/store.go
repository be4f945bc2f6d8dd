package snapshot

import (
	"context"

	id "intake/pkg/domain"
)

// Store persists snapshots idempotently keyed by application ID.
type Store interface {
	// Get returns the stored snapshot, or nil when none exists.
	Get(ctx context.Context, appID id.ApplicationID) (*Snapshot, error)

	// Put upserts the snapshot. Writing the same snapshot twice is a no-op.
	Put(ctx context.Context, snap Snapshot) error
}
