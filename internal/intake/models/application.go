package models

import (
	"time"

	id "intake/pkg/domain"
)

// PhaseID names a wizard phase symbolically. The ordered catalog and the
// numeric projection used by the persistence shape live in the phase package.
type PhaseID string

// ApplicationStatus tracks the lifecycle of the aggregate. Applications are
// never deleted, only status-transitioned.
type ApplicationStatus string

const (
	StatusDraft     ApplicationStatus = "draft"
	StatusSubmitted ApplicationStatus = "submitted"
	StatusTracking  ApplicationStatus = "tracking"
)

// Owner is one business owner with an ownership percentage. Percentages
// across all owners must sum to 100 before business setup can complete.
type Owner struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	Percentage float64 `json:"percentage"`
}

// FormData is the full flat form-field snapshot collected across phases.
// The typed fields are the ones engine logic branches on; everything else
// rides in Fields.
type FormData struct {
	Classification string            `json:"classification,omitempty"`
	Owners         []Owner           `json:"owners,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// Field returns a flat form field value, empty when unset.
func (f FormData) Field(key string) string {
	return f.Fields[key]
}

// SetField sets a flat form field value, allocating the map on first write.
func (f *FormData) SetField(key, value string) {
	if f.Fields == nil {
		f.Fields = make(map[string]string)
	}
	f.Fields[key] = value
}

// OwnershipTotal sums all owner percentages.
func (f FormData) OwnershipTotal() float64 {
	var total float64
	for _, o := range f.Owners {
		total += o.Percentage
	}
	return total
}

// Application is the aggregate root: one applicant's licensing application,
// owned by a single session, created on first load and mutated throughout.
type Application struct {
	ID               id.ApplicationID  `json:"id"`
	Status           ApplicationStatus `json:"status"`
	ActivePhase      PhaseID           `json:"active_phase"`
	CompletedPhases  map[PhaseID]bool  `json:"completed_phases"`
	Screening        ScreeningAnswers  `json:"screening"`
	Incidents        []*Incident       `json:"incidents"`
	Form             FormData          `json:"form"`
	PaymentConfirmed bool              `json:"payment_confirmed"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewApplication creates a draft application positioned at the given first
// phase.
func NewApplication(first PhaseID, now time.Time) *Application {
	return &Application{
		ID:              id.NewApplicationID(),
		Status:          StatusDraft,
		ActivePhase:     first,
		CompletedPhases: make(map[PhaseID]bool),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Incident returns the incident with the given ID, or nil.
func (a *Application) Incident(incidentID id.IncidentID) *Incident {
	for _, inc := range a.Incidents {
		if inc.ID == incidentID {
			return inc
		}
	}
	return nil
}

// HasIncident reports whether an incident of the given pairing exists.
func (a *Application) HasIncident(cat Category, sub Subtype) bool {
	for _, inc := range a.Incidents {
		if inc.Category == cat && inc.Subtype == sub {
			return true
		}
	}
	return false
}

// RemoveIncident deletes an incident from the aggregate. This is the only
// path that removes incidents; the generator never deletes. Returns false if
// the incident does not exist.
func (a *Application) RemoveIncident(incidentID id.IncidentID) bool {
	for n, inc := range a.Incidents {
		if inc.ID == incidentID {
			a.Incidents = append(a.Incidents[:n], a.Incidents[n+1:]...)
			return true
		}
	}
	return false
}

// IncidentsByCategory returns all incidents in the given category.
func (a *Application) IncidentsByCategory(cat Category) []*Incident {
	var out []*Incident
	for _, inc := range a.Incidents {
		if inc.Category == cat {
			out = append(out, inc)
		}
	}
	return out
}
