package audit

import (
	"context"
	"time"

	id "intake/pkg/domain"
)

// Publisher captures structured audit events. It is append-only and uses
// the store layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	return p.store.Append(ctx, event)
}

func (p *Publisher) List(ctx context.Context, appID id.ApplicationID) ([]Event, error) {
	return p.store.ListByApplication(ctx, appID)
}
