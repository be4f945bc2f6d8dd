// Package completion is the pure aggregation layer of the disclosure
// engine: slot status rolls up to incident completion, incidents roll up to
// category completion, and categories roll up to the overall disclosure
// gate. Nothing here mutates or caches; callers re-evaluate after every
// mutation so the phase machine always sees fresh results.
package completion

import (
	"intake/internal/intake/catalog"
	"intake/internal/intake/models"
)

// SlotSatisfied reports whether a slot no longer blocks its incident.
func SlotSatisfied(s models.DocumentSlot) bool {
	return s.Satisfied()
}

// IncidentComplete reports whether every required slot is satisfied and, for
// narrative-required categories, the narrative meets the length threshold.
func IncidentComplete(inc *models.Incident) bool {
	for _, s := range inc.Slots {
		if s.Required && !SlotSatisfied(s) {
			return false
		}
	}
	if catalog.NarrativeRequired(inc.Category) && inc.NarrativeLength() < catalog.NarrativeMinLength {
		return false
	}
	return true
}

// CategoryComplete judges one category against the screening answers. A
// screening-triggered category needs at least one incident, all complete; a
// category with zero incidents is vacuously complete only when no screening
// answer for it was affirmative. A deleted required incident therefore makes
// its category incomplete rather than trivially complete.
func CategoryComplete(cat models.Category, app *models.Application) bool {
	incidents := app.IncidentsByCategory(cat)
	for _, inc := range incidents {
		if !IncidentComplete(inc) {
			return false
		}
	}
	if app.Screening.TriggeredCategories()[cat] && len(incidents) == 0 {
		return false
	}
	return true
}

// AllDisclosuresComplete reports whether every category, triggered or
// user-added, is complete. This result gates the disclosure-detail phase
// and, transitively, every phase after it.
func AllDisclosuresComplete(app *models.Application) bool {
	for _, cat := range []models.Category{
		models.CategoryBackground,
		models.CategoryDiscipline,
		models.CategoryFinancial,
		models.CategoryBankruptcy,
	} {
		if !CategoryComplete(cat, app) {
			return false
		}
	}
	return true
}
