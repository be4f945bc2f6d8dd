package models

import (
	"fmt"
	"time"

	id "intake/pkg/domain"
)

// UploadedFile is one version of evidence for a document slot. Version
// history is append-only; a replace deactivates the prior version instead of
// deleting it.
type UploadedFile struct {
	ID             id.FileID     `json:"id"`
	IncidentID     id.IncidentID `json:"incident_id"`
	SlotCode       string        `json:"slot_code"`
	Version        int           `json:"version"`
	SystemFilename string        `json:"system_filename"`
	OriginalName   string        `json:"original_name"`
	Size           int64         `json:"size"`
	UploadedAt     time.Time     `json:"uploaded_at"`
	Active         bool          `json:"is_active"`
}

// SystemFilename derives the audit-trail filename for a file version:
// <app-short-id>_<incident-id>_<slot-code>_v<NN>.<ext>. The format is fixed;
// downstream audit tooling parses it.
func SystemFilename(appID id.ApplicationID, incidentID id.IncidentID, slotCode string, version int, ext string) string {
	return fmt.Sprintf("%s_%s_%s_v%02d.%s", appID.Short(), incidentID.String(), slotCode, version, ext)
}
