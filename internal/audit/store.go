package audit

import (
	"context"

	id "intake/pkg/domain"
)

// Sink accepts events for persistence or forwarding.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink.
type Store interface {
	Sink
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Event, error)
}
