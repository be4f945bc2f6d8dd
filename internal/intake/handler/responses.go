package handler

import (
	"time"

	"intake/internal/intake/completion"
	"intake/internal/intake/models"
	"intake/internal/intake/phase"
	"intake/internal/intake/service"
)

// ApplicationResponse is the full aggregate view returned by state-mutating
// endpoints and GET /applications/{applicationID}.
type ApplicationResponse struct {
	ID              string                  `json:"id"`
	Status          string                  `json:"status"`
	ActivePhase     string                  `json:"active_phase"`
	CompletedPhases []string                `json:"completed_phases"`
	Progress        int                     `json:"progress"`
	Screening       models.ScreeningAnswers `json:"screening"`
	Incidents       []IncidentResponse      `json:"incidents"`
	Form            models.FormData         `json:"form"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// IncidentResponse is one disclosed incident with its evidence state.
type IncidentResponse struct {
	ID        string                 `json:"id"`
	Category  string                 `json:"category"`
	Subtype   string                 `json:"subtype"`
	UserAdded bool                   `json:"user_added"`
	Context   models.IncidentContext `json:"context"`
	Slots     []SlotResponse         `json:"slots"`
	Narrative *NarrativeResponse     `json:"narrative,omitempty"`
	Complete  bool                   `json:"complete"`
	CreatedAt time.Time              `json:"created_at"`
}

// SlotResponse is one document slot with its current status.
type SlotResponse struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Required    bool   `json:"required"`
	Waivable    bool   `json:"waivable"`
	Status      string `json:"status"`
	WaiveReason string `json:"waive_reason,omitempty"`
}

// NarrativeResponse is the narrative state with save feedback fields.
type NarrativeResponse struct {
	Content   string    `json:"content"`
	Length    int       `json:"length"`
	Revision  int       `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileResponse is one version in a slot's evidence history.
type FileResponse struct {
	ID             string    `json:"id"`
	Version        int       `json:"version"`
	SystemFilename string    `json:"system_filename"`
	OriginalName   string    `json:"original_name"`
	Size           int64     `json:"size"`
	UploadedAt     time.Time `json:"uploaded_at"`
	Active         bool      `json:"is_active"`
}

// ScreeningResponse reports the reconciliation outcome alongside the
// refreshed aggregate.
type ScreeningResponse struct {
	CreatedIncidents []string            `json:"created_incidents"`
	Application      ApplicationResponse `json:"application"`
}

// CompletionResponse is the recomputed multi-level completion state.
type CompletionResponse struct {
	Incidents   map[string]bool `json:"incidents"`
	Categories  map[string]bool `json:"categories"`
	AllComplete bool            `json:"all_complete"`
}

// FromApplication converts the aggregate to its HTTP view. Completed phases
// surface in catalog order.
func FromApplication(app *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:              app.ID.String(),
		Status:          string(app.Status),
		ActivePhase:     string(app.ActivePhase),
		CompletedPhases: make([]string, 0, len(app.CompletedPhases)),
		Progress:        phase.Progress(app),
		Screening:       app.Screening,
		Incidents:       make([]IncidentResponse, 0, len(app.Incidents)),
		Form:            app.Form,
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
	for _, s := range phase.Catalog {
		if app.CompletedPhases[s.ID] {
			resp.CompletedPhases = append(resp.CompletedPhases, string(s.ID))
		}
	}
	for _, inc := range app.Incidents {
		resp.Incidents = append(resp.Incidents, FromIncident(inc))
	}
	return resp
}

// FromIncident converts one incident to its HTTP view.
func FromIncident(inc *models.Incident) IncidentResponse {
	resp := IncidentResponse{
		ID:        inc.ID.String(),
		Category:  string(inc.Category),
		Subtype:   string(inc.Subtype),
		UserAdded: inc.UserAdded,
		Context:   inc.Context,
		Slots:     fromSlots(inc.Slots),
		Complete:  completion.IncidentComplete(inc),
		CreatedAt: inc.CreatedAt,
	}
	if inc.Narrative != nil {
		resp.Narrative = &NarrativeResponse{
			Content:   inc.Narrative.Content,
			Length:    inc.NarrativeLength(),
			Revision:  inc.Narrative.Revision,
			UpdatedAt: inc.Narrative.UpdatedAt,
		}
	}
	return resp
}

func fromSlots(slots []models.DocumentSlot) []SlotResponse {
	out := make([]SlotResponse, len(slots))
	for n, s := range slots {
		out[n] = SlotResponse{
			Code:        s.Code,
			Label:       s.Label,
			Required:    s.Required,
			Waivable:    s.Waivable,
			Status:      string(s.Status),
			WaiveReason: s.WaiveReason,
		}
	}
	return out
}

// FromFiles converts a slot's version history to its HTTP view.
func FromFiles(files []models.UploadedFile) []FileResponse {
	out := make([]FileResponse, len(files))
	for n, f := range files {
		out[n] = FromFile(f)
	}
	return out
}

// FromFile converts one file version to its HTTP view.
func FromFile(f models.UploadedFile) FileResponse {
	return FileResponse{
		ID:             f.ID.String(),
		Version:        f.Version,
		SystemFilename: f.SystemFilename,
		OriginalName:   f.OriginalName,
		Size:           f.Size,
		UploadedAt:     f.UploadedAt,
		Active:         f.Active,
	}
}

// FromCompletion converts the service summary to its HTTP view.
func FromCompletion(summary *service.CompletionSummary) CompletionResponse {
	resp := CompletionResponse{
		Incidents:   make(map[string]bool, len(summary.Incidents)),
		Categories:  make(map[string]bool, len(summary.Categories)),
		AllComplete: summary.AllComplete,
	}
	for incID, done := range summary.Incidents {
		resp.Incidents[incID.String()] = done
	}
	for cat, done := range summary.Categories {
		resp.Categories[string(cat)] = done
	}
	return resp
}
