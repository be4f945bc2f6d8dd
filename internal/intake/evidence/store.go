package evidence

import (
	"context"
	"time"

	"intake/internal/intake/models"
	id "intake/pkg/domain"
)

// NewFile carries the caller-supplied attributes of an upload. Version,
// system filename, and the active flag are assigned by the store.
type NewFile struct {
	OriginalName string
	Extension    string
	Size         int64
	UploadedAt   time.Time
}

// VersionStore persists per-slot append-only file version history. Record
// enforces the single-active invariant: it deactivates the slot's current
// active version (if any) and appends the new file as version max+1, active.
type VersionStore interface {
	// Record appends a new version for the slot and returns it.
	Record(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string, nf NewFile) (models.UploadedFile, error)

	// List returns all versions for a slot in ascending version order.
	List(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string) ([]models.UploadedFile, error)
}
