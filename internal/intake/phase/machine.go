package phase

import (
	"intake/internal/intake/models"
	dErrors "intake/pkg/domain-errors"
)

// Get returns the catalog entry for a phase.
func Get(phaseID models.PhaseID) (Spec, bool) {
	for _, s := range Catalog {
		if s.ID == phaseID {
			return s, true
		}
	}
	return Spec{}, false
}

// index returns the catalog position of a phase, -1 if unknown.
func index(phaseID models.PhaseID) int {
	for n, s := range Catalog {
		if s.ID == phaseID {
			return n
		}
	}
	return -1
}

// Exists reports whether a phase is present for this application. A
// conditional phase whose condition is false is skipped in both directions:
// never reachable, never required.
func Exists(app *models.Application, s Spec) bool {
	return s.Exists == nil || s.Exists(app)
}

// First returns the opening phase of the catalog.
func First() models.PhaseID {
	return Catalog[0].ID
}

// CanComplete evaluates the completion predicate of a phase against current
// application state.
func CanComplete(app *models.Application, phaseID models.PhaseID) bool {
	s, ok := Get(phaseID)
	if !ok || !Exists(app, s) {
		return false
	}
	return s.Complete(app)
}

// Complete marks the application's active phase as completed and advances to
// the next phase. Invoked only by explicit user action. Rejected with a
// validation error when the predicate is false; rejection never mutates
// state.
func Complete(app *models.Application) error {
	s, ok := Get(app.ActivePhase)
	if !ok {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown active phase %q", app.ActivePhase)
	}
	if !Exists(app, s) {
		return dErrors.Newf(dErrors.CodeValidation, "phase %q is not part of this application", s.ID)
	}
	if !s.Complete(app) {
		return dErrors.Newf(dErrors.CodeValidation, "phase %q requirements are not met", s.ID)
	}

	app.CompletedPhases[s.ID] = true
	if s.ID == Submission {
		app.Status = models.StatusSubmitted
	}
	if s.Terminal() {
		app.Status = models.StatusTracking
		return nil
	}
	app.ActivePhase = next(app, s)
	return nil
}

// next computes the successor phase: the entry's declared Next rule when
// present, otherwise the next existing phase in catalog order.
func next(app *models.Application, s Spec) models.PhaseID {
	if s.Next != nil {
		return s.Next(app)
	}
	for n := index(s.ID) + 1; n < len(Catalog); n++ {
		if Exists(app, Catalog[n]) {
			return Catalog[n].ID
		}
	}
	return s.ID
}

// Frontier returns the earliest existing phase that is not yet completed.
// Navigation may reach anything at or before the frontier.
func Frontier(app *models.Application) models.PhaseID {
	for _, s := range Catalog {
		if !Exists(app, s) {
			continue
		}
		if !app.CompletedPhases[s.ID] {
			return s.ID
		}
	}
	return Catalog[len(Catalog)-1].ID
}

// Reachable reports whether re-entrant navigation to the phase is allowed:
// the phase exists and is at or before the completion frontier.
func Reachable(app *models.Application, phaseID models.PhaseID) bool {
	s, ok := Get(phaseID)
	if !ok || !Exists(app, s) {
		return false
	}
	return index(phaseID) <= index(Frontier(app))
}

// Navigate moves the active phase for review without touching the completed
// set. Only already-reachable phases are valid targets.
func Navigate(app *models.Application, target models.PhaseID) error {
	if _, ok := Get(target); !ok {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown phase %q", target)
	}
	if !Reachable(app, target) {
		return dErrors.Newf(dErrors.CodeValidation, "phase %q is not reachable yet", target)
	}
	app.ActivePhase = target
	return nil
}

// Progress returns percent completion across the phases that exist for this
// application.
func Progress(app *models.Application) int {
	var existing, done int
	for _, s := range Catalog {
		if !Exists(app, s) {
			continue
		}
		existing++
		if app.CompletedPhases[s.ID] {
			done++
		}
	}
	if existing == 0 {
		return 0
	}
	return done * 100 / existing
}
