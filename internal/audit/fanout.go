package audit

import (
	"context"

	id "intake/pkg/domain"
)

// Fanout appends to the primary store and hands a copy to an inbox for
// background forwarding. A full inbox drops the forward, never the append;
// the primary store stays the source of truth.
type Fanout struct {
	primary Store
	inbox   chan Event
}

func NewFanout(primary Store, buffer int) *Fanout {
	return &Fanout{primary: primary, inbox: make(chan Event, buffer)}
}

func (f *Fanout) Append(ctx context.Context, event Event) error {
	if err := f.primary.Append(ctx, event); err != nil {
		return err
	}
	select {
	case f.inbox <- event:
	default:
	}
	return nil
}

func (f *Fanout) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Event, error) {
	return f.primary.ListByApplication(ctx, appID)
}

// Inbox exposes the forwarding channel for the worker.
func (f *Fanout) Inbox() <-chan Event {
	return f.inbox
}
