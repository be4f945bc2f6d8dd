package snapshot

import (
	"context"
	"sync"

	id "intake/pkg/domain"
)

// InMemoryStore keeps snapshots in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	snaps map[id.ApplicationID]Snapshot
}

func NewMemoryStore() *InMemoryStore {
	return &InMemoryStore{snaps: make(map[id.ApplicationID]Snapshot)}
}

func (s *InMemoryStore) Get(_ context.Context, appID id.ApplicationID) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if snap, ok := s.snaps[appID]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *InMemoryStore) Put(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ApplicationID] = snap
	return nil
}
