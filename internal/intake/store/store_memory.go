package store

import (
	"context"
	"fmt"
	"sync"

	"intake/internal/intake/models"
	id "intake/pkg/domain"
	"intake/pkg/platform/sentinel"
)

// InMemoryApplicationStore keeps aggregates in process memory.
type InMemoryApplicationStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewInMemoryApplicationStore() *InMemoryApplicationStore {
	return &InMemoryApplicationStore{apps: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemoryApplicationStore) Get(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", appID, sentinel.ErrNotFound)
	}
	return app, nil
}

func (s *InMemoryApplicationStore) Put(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[app.ID] = app
	return nil
}
