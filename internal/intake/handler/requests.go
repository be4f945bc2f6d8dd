package handler

import (
	"path/filepath"
	"strings"
	"time"

	"intake/internal/intake/models"
	"intake/internal/intake/service"
	"intake/internal/intake/snapshot"
	dErrors "intake/pkg/domain-errors"
)

const (
	maxUploadBytes    = 20 << 20
	maxNarrativeRunes = 20000
)

// ScreeningRequest is the HTTP request body for PUT /screening. All six
// questions ride in one body; unanswered questions stay empty.
type ScreeningRequest struct {
	Misdemeanors string `json:"misdemeanors"`
	Felonies     string `json:"felonies"`
	Discipline   string `json:"discipline"`
	Liens        string `json:"liens"`
	Judgments    string `json:"judgments"`
	Bankruptcy   string `json:"bankruptcy"`
}

// Validate checks every answer against the tri-state domain.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ScreeningRequest) Validate() error {
	for name, raw := range map[string]*string{
		"misdemeanors": &r.Misdemeanors,
		"felonies":     &r.Felonies,
		"discipline":   &r.Discipline,
		"liens":        &r.Liens,
		"judgments":    &r.Judgments,
		"bankruptcy":   &r.Bankruptcy,
	} {
		*raw = strings.TrimSpace(strings.ToLower(*raw))
		switch models.ScreeningAnswer(*raw) {
		case models.AnswerUnset, models.AnswerYes, models.AnswerNo:
		default:
			return dErrors.Newf(dErrors.CodeValidation, "%s must be yes, no, or empty", name)
		}
	}
	return nil
}

// Answers returns the validated screening answers.
func (r *ScreeningRequest) Answers() models.ScreeningAnswers {
	return models.ScreeningAnswers{
		Misdemeanors: models.ScreeningAnswer(r.Misdemeanors),
		Felonies:     models.ScreeningAnswer(r.Felonies),
		Discipline:   models.ScreeningAnswer(r.Discipline),
		Liens:        models.ScreeningAnswer(r.Liens),
		Judgments:    models.ScreeningAnswer(r.Judgments),
		Bankruptcy:   models.ScreeningAnswer(r.Bankruptcy),
	}
}

// FormRequest is the HTTP request body for PATCH /form. Absent fields are
// left untouched.
type FormRequest struct {
	Classification *string           `json:"classification,omitempty"`
	Owners         []OwnerRequest    `json:"owners,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// OwnerRequest is one business owner entry.
type OwnerRequest struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	Percentage float64 `json:"percentage"`
}

// Validate checks owner entries; ownership totals are a phase-completion
// concern, not a write constraint.
func (r *FormRequest) Validate() error {
	for n, o := range r.Owners {
		if strings.TrimSpace(o.Name) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "owners[%d].name is required", n)
		}
		if o.Percentage < 0 || o.Percentage > 100 {
			return dErrors.Newf(dErrors.CodeValidation, "owners[%d].percentage must be between 0 and 100", n)
		}
	}
	return nil
}

// Patch converts the request to the service form patch.
func (r *FormRequest) Patch() service.FormPatch {
	patch := service.FormPatch{
		Classification: r.Classification,
		Fields:         r.Fields,
	}
	if r.Owners != nil {
		patch.Owners = make([]models.Owner, len(r.Owners))
		for n, o := range r.Owners {
			patch.Owners[n] = models.Owner{
				Name:       strings.TrimSpace(o.Name),
				Title:      strings.TrimSpace(o.Title),
				Percentage: o.Percentage,
			}
		}
	}
	return patch
}

// AddIncidentRequest is the HTTP request body for POST /incidents.
type AddIncidentRequest struct {
	Category string `json:"category"`
	Subtype  string `json:"subtype"`
}

// Validate checks the category against the closed set. The catalog rejects
// unknown (category, subtype) pairings downstream.
func (r *AddIncidentRequest) Validate() error {
	r.Category = strings.TrimSpace(strings.ToUpper(r.Category))
	r.Subtype = strings.TrimSpace(strings.ToUpper(r.Subtype))
	if r.Category == "" {
		return dErrors.New(dErrors.CodeValidation, "category is required")
	}
	if !models.Category(r.Category).IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "category %q is not recognized", r.Category)
	}
	if r.Subtype == "" {
		return dErrors.New(dErrors.CodeValidation, "subtype is required")
	}
	return nil
}

// ContextRequest is the HTTP request body for PATCH /incidents/{incidentID}.
// Absent fields are left untouched.
type ContextRequest struct {
	Jurisdiction   *string `json:"jurisdiction,omitempty"`
	Agency         *string `json:"agency,omitempty"`
	Court          *string `json:"court,omitempty"`
	CaseNumber     *string `json:"case_number,omitempty"`
	IncidentDate   *string `json:"incident_date,omitempty"`
	ResolutionDate *string `json:"resolution_date,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// Validate checks that provided dates parse as YYYY-MM-DD. Empty strings are
// allowed; they clear the field.
func (r *ContextRequest) Validate() error {
	for name, val := range map[string]*string{
		"incident_date":   r.IncidentDate,
		"resolution_date": r.ResolutionDate,
	} {
		if val == nil || *val == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", *val); err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be formatted YYYY-MM-DD", name)
		}
	}
	return nil
}

// Patch converts the request to the service context patch.
func (r *ContextRequest) Patch() service.ContextPatch {
	return service.ContextPatch{
		Jurisdiction:   r.Jurisdiction,
		Agency:         r.Agency,
		Court:          r.Court,
		CaseNumber:     r.CaseNumber,
		IncidentDate:   r.IncidentDate,
		ResolutionDate: r.ResolutionDate,
		Notes:          r.Notes,
	}
}

// UploadRequest is the HTTP request body for POST /files: the metadata of a
// file already staged by the upload front-end.
type UploadRequest struct {
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`

	parsedExtension string
}

// Validate requires a named file with an extension and a plausible size.
func (r *UploadRequest) Validate() error {
	r.OriginalName = strings.TrimSpace(r.OriginalName)
	if r.OriginalName == "" {
		return dErrors.New(dErrors.CodeValidation, "original_name is required")
	}
	ext := strings.TrimPrefix(filepath.Ext(r.OriginalName), ".")
	if ext == "" {
		return dErrors.New(dErrors.CodeValidation, "original_name must have a file extension")
	}
	if r.Size <= 0 {
		return dErrors.New(dErrors.CodeValidation, "size must be positive")
	}
	if r.Size > maxUploadBytes {
		return dErrors.Newf(dErrors.CodeValidation, "size exceeds the %d byte limit", maxUploadBytes)
	}
	r.parsedExtension = strings.ToLower(ext)
	return nil
}

// Extension returns the validated lowercase file extension without the dot.
func (r *UploadRequest) Extension() string {
	return r.parsedExtension
}

// WaiveRequest is the HTTP request body for POST /waive.
type WaiveRequest struct {
	Reason string `json:"reason"`
}

// Validate trims the reason; membership in the allowed reason set is checked
// against the catalog downstream.
func (r *WaiveRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// NarrativeRequest is the HTTP request body for PUT /narrative. Short
// content is accepted; the length floor only gates completion.
type NarrativeRequest struct {
	Content string `json:"content"`
}

// Validate bounds the content size.
func (r *NarrativeRequest) Validate() error {
	if len([]rune(r.Content)) > maxNarrativeRunes {
		return dErrors.Newf(dErrors.CodeValidation, "content must be at most %d characters", maxNarrativeRunes)
	}
	return nil
}

// NavigateRequest is the HTTP request body for POST /phases/navigate.
type NavigateRequest struct {
	Phase string `json:"phase"`
}

// Validate requires a target phase; reachability is judged downstream.
func (r *NavigateRequest) Validate() error {
	r.Phase = strings.TrimSpace(r.Phase)
	if r.Phase == "" {
		return dErrors.New(dErrors.CodeValidation, "phase is required")
	}
	return nil
}

// SaveSnapshotRequest is the HTTP request body for POST /snapshot: a full
// client-side snapshot to persist immediately.
type SaveSnapshotRequest struct {
	Data snapshot.Data `json:"data"`
}

// Validate accepts any well-formed snapshot payload; saves are idempotent
// and never rejected on content.
func (r *SaveSnapshotRequest) Validate() error {
	return nil
}
