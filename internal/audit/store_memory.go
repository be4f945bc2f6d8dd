package audit

import (
	"context"
	"sync"

	id "intake/pkg/domain"
)

// InMemoryStore keeps the audit trail in process memory, append-only.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, e := range s.events {
		if e.ApplicationID == appID {
			out = append(out, e)
		}
	}
	return out, nil
}
