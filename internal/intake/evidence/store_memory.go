package evidence

import (
	"context"
	"sync"

	"intake/internal/intake/models"
	id "intake/pkg/domain"
)

type slotKey struct {
	app  id.ApplicationID
	inc  id.IncidentID
	slot string
}

// InMemoryVersionStore keeps version history in process memory. It is the
// default store when Postgres is not configured and the workhorse of unit
// tests.
type InMemoryVersionStore struct {
	mu    sync.RWMutex
	files map[slotKey][]models.UploadedFile
}

func NewMemoryStore() *InMemoryVersionStore {
	return &InMemoryVersionStore{files: make(map[slotKey][]models.UploadedFile)}
}

func (s *InMemoryVersionStore) Record(_ context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string, nf NewFile) (models.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{appID, incidentID, slotCode}
	history := s.files[key]

	version := 0
	for n := range history {
		if history[n].Version > version {
			version = history[n].Version
		}
		history[n].Active = false
	}
	version++

	file := models.UploadedFile{
		ID:             id.NewFileID(),
		IncidentID:     incidentID,
		SlotCode:       slotCode,
		Version:        version,
		SystemFilename: models.SystemFilename(appID, incidentID, slotCode, version, nf.Extension),
		OriginalName:   nf.OriginalName,
		Size:           nf.Size,
		UploadedAt:     nf.UploadedAt,
		Active:         true,
	}
	s.files[key] = append(history, file)
	return file, nil
}

func (s *InMemoryVersionStore) List(_ context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string) ([]models.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.files[slotKey{appID, incidentID, slotCode}]
	out := make([]models.UploadedFile, len(history))
	copy(out, history)
	return out, nil
}
