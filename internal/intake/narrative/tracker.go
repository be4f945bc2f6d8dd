// Package narrative tracks per-incident explanation text. Writes are always
// accepted; the length floor is a completion criterion judged by the
// completion package, never a write constraint.
package narrative

import (
	"time"

	"intake/internal/intake/models"
	dErrors "intake/pkg/domain-errors"
)

// SetContent replaces the incident's narrative content, bumping the local
// revision counter and the last-saved timestamp for UI feedback.
func SetContent(inc *models.Incident, content string, now time.Time) error {
	if inc == nil {
		return dErrors.New(dErrors.CodeNotFound, "incident not found")
	}
	if inc.Narrative == nil {
		inc.Narrative = &models.Narrative{}
	}
	inc.Narrative.Content = content
	inc.Narrative.Revision++
	inc.Narrative.UpdatedAt = now
	return nil
}
