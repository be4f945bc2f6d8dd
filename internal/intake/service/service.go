// Package service orchestrates the intake engine: screening answers feed
// the incident generator, evidence and narrative actions mutate incidents,
// the completion evaluator recomputes aggregates after every mutation, and
// the phase machine gates wizard progression. Every mutation queues a
// debounced snapshot save.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"intake/internal/audit"
	"intake/internal/intake/autosave"
	"intake/internal/intake/completion"
	"intake/internal/intake/evidence"
	"intake/internal/intake/generator"
	"intake/internal/intake/metrics"
	"intake/internal/intake/models"
	"intake/internal/intake/narrative"
	"intake/internal/intake/phase"
	"intake/internal/intake/ports"
	"intake/internal/intake/snapshot"
	"intake/internal/intake/store"
	id "intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/sentinel"
	"intake/pkg/requestcontext"
)

type Service struct {
	apps           store.ApplicationStore
	evidence       *evidence.Service
	snapshots      snapshot.Store
	pipeline       *autosave.Pipeline
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAutosave(p *autosave.Pipeline) Option {
	return func(s *Service) {
		s.pipeline = p
	}
}

func WithSnapshotStore(snaps snapshot.Store) Option {
	return func(s *Service) {
		s.snapshots = snaps
	}
}

func New(apps store.ApplicationStore, ev *evidence.Service, opts ...Option) (*Service, error) {
	if apps == nil {
		return nil, fmt.Errorf("application store is required")
	}
	if ev == nil {
		return nil, fmt.Errorf("evidence service is required")
	}

	svc := &Service{apps: apps, evidence: ev}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Open creates a new draft application positioned at the first phase.
func (s *Service) Open(ctx context.Context) (*models.Application, error) {
	app := models.NewApplication(phase.First(), requestcontext.Now(ctx))
	if err := s.apps.Put(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	if s.metrics != nil {
		s.metrics.ApplicationsCreated.Inc()
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventApplicationOpen),
		"application_id", app.ID,
	)
	return app, nil
}

// Get loads an application aggregate.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.apps.Get(ctx, appID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "application %s not found", appID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

// UpdateScreening stores the answers and reconciles incidents. Returns the
// IDs of incidents created in this pass so the caller can expand them.
func (s *Service) UpdateScreening(ctx context.Context, appID id.ApplicationID, answers models.ScreeningAnswers) ([]id.IncidentID, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}

	app.Screening = answers
	var created []id.IncidentID
	app.Incidents, created = generator.Reconcile(answers, app.Incidents, requestcontext.Now(ctx))

	if err := s.persist(ctx, app); err != nil {
		return nil, err
	}

	for _, incID := range created {
		if s.metrics != nil {
			s.metrics.IncidentsGenerated.Inc()
		}
		ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventIncidentGenerated),
			"application_id", app.ID,
			"incident_id", incID,
		)
	}
	return created, nil
}

// AddIncident appends an explicit user-added incident, allowing deliberate
// duplicates of a (category, subtype) pairing.
func (s *Service) AddIncident(ctx context.Context, appID id.ApplicationID, cat models.Category, sub models.Subtype) (*models.Incident, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}

	inc := generator.NewIncident(cat, sub, requestcontext.Now(ctx))
	if inc == nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "no slot catalog for %s/%s", cat, sub)
	}
	inc.UserAdded = true
	app.Incidents = append([]*models.Incident{inc}, app.Incidents...)

	if err := s.persist(ctx, app); err != nil {
		return nil, err
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventIncidentAdded),
		"application_id", app.ID,
		"incident_id", inc.ID,
		"category", cat,
		"subtype", sub,
	)
	return inc, nil
}

// RemoveIncident deletes an incident by explicit user action. The audit
// trail retains the removal; the generator never resurrects silently.
func (s *Service) RemoveIncident(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID) error {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return err
	}
	if !app.RemoveIncident(incidentID) {
		return dErrors.Newf(dErrors.CodeNotFound, "incident %s not found", incidentID)
	}

	if err := s.persist(ctx, app); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncidentsRemoved.Inc()
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventIncidentRemoved),
		"application_id", app.ID,
		"incident_id", incidentID,
	)
	return nil
}

// FormPatch is a partial update of the flat form snapshot. Nil fields are
// left untouched; Fields entries merge key-by-key.
type FormPatch struct {
	Classification *string           `json:"classification,omitempty"`
	Owners         []models.Owner    `json:"owners,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// UpdateForm merges a partial form update into the aggregate. This is the
// write path behind per-phase field saves.
func (s *Service) UpdateForm(ctx context.Context, appID id.ApplicationID, patch FormPatch) (*models.Application, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}

	if patch.Classification != nil {
		app.Form.Classification = *patch.Classification
	}
	if patch.Owners != nil {
		app.Form.Owners = patch.Owners
	}
	for key, value := range patch.Fields {
		app.Form.SetField(key, value)
	}

	if err := s.persist(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ContextPatch is a partial update of an incident's contextual fields. Nil
// fields are left untouched.
type ContextPatch struct {
	Jurisdiction   *string `json:"jurisdiction,omitempty"`
	Agency         *string `json:"agency,omitempty"`
	Court          *string `json:"court,omitempty"`
	CaseNumber     *string `json:"caseNumber,omitempty"`
	IncidentDate   *string `json:"incidentDate,omitempty"`
	ResolutionDate *string `json:"resolutionDate,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// UpdateIncidentContext applies a partial update to an incident's
// contextual fields.
func (s *Service) UpdateIncidentContext(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, patch ContextPatch) (*models.Incident, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	inc := app.Incident(incidentID)
	if inc == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "incident %s not found", incidentID)
	}

	applyPatch(&inc.Context, patch)

	if err := s.persist(ctx, app); err != nil {
		return nil, err
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventIncidentUpdated),
		"application_id", app.ID,
		"incident_id", incidentID,
	)
	return inc, nil
}

func applyPatch(c *models.IncidentContext, patch ContextPatch) {
	if patch.Jurisdiction != nil {
		c.Jurisdiction = *patch.Jurisdiction
	}
	if patch.Agency != nil {
		c.Agency = *patch.Agency
	}
	if patch.Court != nil {
		c.Court = *patch.Court
	}
	if patch.CaseNumber != nil {
		c.CaseNumber = *patch.CaseNumber
	}
	if patch.IncidentDate != nil {
		c.IncidentDate = *patch.IncidentDate
	}
	if patch.ResolutionDate != nil {
		c.ResolutionDate = *patch.ResolutionDate
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
}

// Upload records a new evidence file version for a slot.
func (s *Service) Upload(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string, nf evidence.NewFile) (models.UploadedFile, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return models.UploadedFile{}, err
	}

	file, err := s.evidence.Upload(ctx, app, incidentID, slotCode, nf)
	if err != nil {
		return models.UploadedFile{}, err
	}
	if err := s.persist(ctx, app); err != nil {
		return models.UploadedFile{}, err
	}

	if s.metrics != nil {
		s.metrics.FilesUploaded.Inc()
	}
	return file, nil
}

// Waive waives a slot with a reason from the allowed set.
func (s *Service) Waive(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode, reason string) error {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return err
	}
	if err := s.evidence.Waive(ctx, app, incidentID, slotCode, reason); err != nil {
		return err
	}
	if err := s.persist(ctx, app); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.SlotsWaived.Inc()
	}
	return nil
}

// Unwaive reverts a waived slot to missing.
func (s *Service) Unwaive(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string) error {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return err
	}
	if err := s.evidence.Unwaive(ctx, app, incidentID, slotCode); err != nil {
		return err
	}
	return s.persist(ctx, app)
}

// ListSlots enumerates the slots of an incident.
func (s *Service) ListSlots(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID) ([]models.DocumentSlot, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	inc := app.Incident(incidentID)
	if inc == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "incident %s not found", incidentID)
	}
	out := make([]models.DocumentSlot, len(inc.Slots))
	copy(out, inc.Slots)
	return out, nil
}

// ListFiles returns the version history of a slot.
func (s *Service) ListFiles(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string) ([]models.UploadedFile, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	return s.evidence.ListFiles(ctx, app, incidentID, slotCode)
}

// SetNarrative replaces an incident's narrative text. Always accepted; the
// length floor only matters at completion time.
func (s *Service) SetNarrative(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, content string) (*models.Narrative, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	inc := app.Incident(incidentID)
	if err := narrative.SetContent(inc, content, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, app); err != nil {
		return nil, err
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventNarrativeSet),
		"application_id", app.ID,
		"incident_id", incidentID,
		"length", inc.NarrativeLength(),
	)
	return inc.Narrative, nil
}

// CompletionSummary is the recomputed multi-level completion state.
type CompletionSummary struct {
	Incidents   map[id.IncidentID]bool   `json:"incidents"`
	Categories  map[models.Category]bool `json:"categories"`
	AllComplete bool                     `json:"all_complete"`
}

// Completion re-evaluates disclosure completion from scratch. Results are
// never cached across mutations.
func (s *Service) Completion(ctx context.Context, appID id.ApplicationID) (*CompletionSummary, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}

	summary := &CompletionSummary{
		Incidents:  make(map[id.IncidentID]bool),
		Categories: make(map[models.Category]bool),
	}
	for _, inc := range app.Incidents {
		summary.Incidents[inc.ID] = completion.IncidentComplete(inc)
	}
	for _, cat := range []models.Category{
		models.CategoryBackground,
		models.CategoryDiscipline,
		models.CategoryFinancial,
		models.CategoryBankruptcy,
	} {
		summary.Categories[cat] = completion.CategoryComplete(cat, app)
	}
	summary.AllComplete = completion.AllDisclosuresComplete(app)
	return summary, nil
}

// CompletePhase marks the active phase done and advances the wizard.
// Rejected without mutation when the phase's predicate is false.
func (s *Service) CompletePhase(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}

	completed := app.ActivePhase
	if err := phase.Complete(app); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, app); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PhasesCompleted.WithLabelValues(string(completed)).Inc()
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventPhaseCompleted),
		"application_id", app.ID,
		"phase", completed,
		"next_phase", app.ActivePhase,
	)
	return app, nil
}

// Navigate moves the active phase for re-entrant review. The completed set
// is never altered.
func (s *Service) Navigate(ctx context.Context, appID id.ApplicationID, target models.PhaseID) (*models.Application, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := phase.Navigate(app, target); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, app); err != nil {
		return nil, err
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventPhaseNavigated),
		"application_id", app.ID,
		"phase", target,
	)
	return app, nil
}

// Snapshot returns the persisted snapshot for resume, falling back to a
// fresh projection of live state when nothing has been saved yet.
func (s *Service) Snapshot(ctx context.Context, appID id.ApplicationID) (*snapshot.Snapshot, error) {
	if s.snapshots != nil {
		snap, err := s.snapshots.Get(ctx, appID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshot")
		}
		if snap != nil {
			return snap, nil
		}
	}

	app, err := s.Get(ctx, appID)
	if err != nil {
		return nil, err
	}
	snap := snapshot.FromApplication(app)
	return &snap, nil
}

// SaveSnapshot persists a snapshot immediately and idempotently, bypassing
// the debounce. Used by the explicit save endpoint.
func (s *Service) SaveSnapshot(ctx context.Context, snap snapshot.Snapshot) error {
	if s.snapshots == nil {
		return dErrors.New(dErrors.CodeInternal, "snapshot store is not configured")
	}
	if err := s.snapshots.Put(ctx, snap); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist snapshot")
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventSnapshotSaved),
		"application_id", snap.ApplicationID,
	)
	return nil
}

// ApplyExternal folds an out-of-band event into live state via a narrow
// field-level merge, then re-persists. Conflicts with local edits are
// resolved by field ownership, never surfaced to the user.
func (s *Service) ApplyExternal(ctx context.Context, event autosave.ExternalEvent) {
	app, err := s.Get(ctx, event.ApplicationID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "external event for unknown application",
				"application_id", event.ApplicationID,
				"kind", event.Kind,
			)
		}
		return
	}

	if !autosave.Merge(app, event) {
		return
	}
	if err := s.persist(ctx, app); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to persist external event",
			"application_id", app.ID,
			"kind", event.Kind,
			"error", err,
		)
	}

	if s.metrics != nil {
		s.metrics.ExternalEvents.WithLabelValues(string(event.Kind)).Inc()
	}
	if event.Kind == autosave.EventPaymentConfirmed {
		ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventPaymentApplied),
			"application_id", app.ID,
			"payment_reference", event.PaymentReference,
		)
	}
}

// persist writes the aggregate and queues a debounced snapshot save.
func (s *Service) persist(ctx context.Context, app *models.Application) error {
	app.UpdatedAt = requestcontext.Now(ctx)
	if err := s.apps.Put(ctx, app); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
	}
	if s.pipeline != nil {
		s.pipeline.QueueEdit(snapshot.FromApplication(app))
	}
	return nil
}
