// Package snapshot owns the persistence shape of an application: the flat
// form snapshot plus a denormalized per-phase projection. The per-phase
// sub-objects (phase1..phase17) are a readability convenience for reviewers
// and reporting, never a second source of truth.
package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"

	"intake/internal/intake/models"
	"intake/internal/intake/phase"
	id "intake/pkg/domain"
)

// Snapshot is the unit of persistence, keyed idempotently by application ID.
type Snapshot struct {
	ApplicationID id.ApplicationID `json:"applicationId"`
	Data          Data             `json:"data"`
}

// PhaseView is one denormalized per-phase projection.
type PhaseView struct {
	Title     string            `json:"title"`
	Completed bool              `json:"completed"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Data carries the snapshot payload. Phases marshals as phase1..phase17
// keys alongside the fixed fields.
type Data struct {
	FormData        models.FormData      `json:"formData"`
	CompletedPhases []models.PhaseID     `json:"completedPhases"`
	ActivePhase     models.PhaseID       `json:"activePhase"`
	Progress        int                  `json:"progress"`
	Phases          map[string]PhaseView `json:"-"`
}

type dataAlias Data

// MarshalJSON flattens the per-phase views into phaseN keys.
func (d Data) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(dataAlias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Phases) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for key, view := range d.Phases {
		raw, err := json.Marshal(view)
		if err != nil {
			return nil, err
		}
		merged[key] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON collects phaseN keys back into the Phases map.
func (d *Data) UnmarshalJSON(b []byte) error {
	var alias dataAlias
	if err := json.Unmarshal(b, &alias); err != nil {
		return err
	}
	*d = Data(alias)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		if !strings.HasPrefix(key, "phase") {
			continue
		}
		var view PhaseView
		if err := json.Unmarshal(val, &view); err != nil {
			return err
		}
		if d.Phases == nil {
			d.Phases = make(map[string]PhaseView)
		}
		d.Phases[key] = view
	}
	return nil
}

// FromApplication projects the aggregate into its persistence shape. The
// assistance half-step folds into the phase4 view alongside screening.
func FromApplication(app *models.Application) Snapshot {
	data := Data{
		FormData:    app.Form,
		ActivePhase: app.ActivePhase,
		Progress:    phase.Progress(app),
		Phases:      make(map[string]PhaseView),
	}
	for _, s := range phase.Catalog {
		if !phase.Exists(app, s) {
			continue
		}
		if app.CompletedPhases[s.ID] {
			data.CompletedPhases = append(data.CompletedPhases, s.ID)
		}

		key := fmt.Sprintf("phase%d", int(s.Number))
		view, ok := data.Phases[key]
		if !ok {
			view = PhaseView{Title: s.Title, Completed: true}
		}
		// A folded view (the 4.5 half-step shares phase4) counts as
		// completed only when every folded phase is.
		view.Completed = view.Completed && app.CompletedPhases[s.ID]
		for _, field := range s.Fields {
			if v := app.Form.Field(field); v != "" {
				if view.Fields == nil {
					view.Fields = make(map[string]string)
				}
				view.Fields[field] = v
			}
		}
		data.Phases[key] = view
	}
	return Snapshot{ApplicationID: app.ID, Data: data}
}
