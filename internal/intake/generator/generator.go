// Package generator reconciles the incident list against screening answers.
// It is safe to call on every state change: running it twice with unchanged
// inputs is a no-op, and it never deletes. An incident, once disclosed,
// persists for audit continuity until the applicant explicitly removes it.
package generator

import (
	"time"

	"intake/internal/intake/catalog"
	"intake/internal/intake/models"
	id "intake/pkg/domain"
)

// Reconcile appends a new incident for each affirmative screening answer
// whose (category, subtype) pairing has no existing incident. New incidents
// are prepended so the newest disclosure surfaces first. Returns the updated
// list and the IDs of incidents created in this pass so callers can default
// them to an expanded state.
func Reconcile(answers models.ScreeningAnswers, incidents []*models.Incident, now time.Time) ([]*models.Incident, []id.IncidentID) {
	var created []id.IncidentID
	for _, t := range models.Triggers {
		if t.Answer(answers) != models.AnswerYes {
			continue
		}
		if hasPairing(incidents, t.Category, t.Subtype) {
			continue
		}
		inc := NewIncident(t.Category, t.Subtype, now)
		if inc == nil {
			continue
		}
		incidents = append([]*models.Incident{inc}, incidents...)
		created = append(created, inc.ID)
	}
	return incidents, created
}

// NewIncident constructs an incident with its catalog slot set in the
// initial missing state. Returns nil for pairings outside the catalog.
func NewIncident(cat models.Category, sub models.Subtype, now time.Time) *models.Incident {
	slots, ok := catalog.InstantiateSlots(cat, sub)
	if !ok {
		return nil
	}
	return &models.Incident{
		ID:        id.NewIncidentID(),
		Category:  cat,
		Subtype:   sub,
		Slots:     slots,
		CreatedAt: now,
	}
}

func hasPairing(incidents []*models.Incident, cat models.Category, sub models.Subtype) bool {
	for _, inc := range incidents {
		if inc.Category == cat && inc.Subtype == sub {
			return true
		}
	}
	return false
}
