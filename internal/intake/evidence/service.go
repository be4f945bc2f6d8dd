// Package evidence implements the file version store and the slot mutation
// rules: uploads append versions with exactly one active per slot, waives
// need an allowed reason on a waivable slot, and every failure leaves the
// slot in its prior state.
package evidence

import (
	"context"
	"fmt"
	"log/slog"

	"intake/internal/audit"
	"intake/internal/intake/catalog"
	"intake/internal/intake/models"
	"intake/internal/intake/ports"
	id "intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
)

// Store aliases the shared interface for constructor readability.
type Store = VersionStore

type Service struct {
	store          Store
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
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

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("version store is required")
	}

	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Upload records a new file version for the slot and marks it uploaded.
// A store failure leaves the slot in its prior status.
func (s *Service) Upload(ctx context.Context, app *models.Application, incidentID id.IncidentID, slotCode string, nf NewFile) (models.UploadedFile, error) {
	slot, err := findSlot(app, incidentID, slotCode)
	if err != nil {
		return models.UploadedFile{}, err
	}

	file, err := s.store.Record(ctx, app.ID, incidentID, slotCode, nf)
	if err != nil {
		return models.UploadedFile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record file version")
	}

	slot.Status = models.SlotUploaded
	slot.WaiveReason = ""

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventFileUploaded),
		"application_id", app.ID,
		"incident_id", incidentID,
		"slot_code", slotCode,
		"version", file.Version,
		"system_filename", file.SystemFilename,
	)
	return file, nil
}

// Waive marks a slot as waived with a reason from the allowed set. Only
// catalog-flagged waivable slots accept a waive; file history is untouched.
func (s *Service) Waive(ctx context.Context, app *models.Application, incidentID id.IncidentID, slotCode, reason string) error {
	slot, err := findSlot(app, incidentID, slotCode)
	if err != nil {
		return err
	}
	if !slot.Waivable {
		return dErrors.Newf(dErrors.CodeValidation, "slot %q cannot be waived", slotCode)
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "waive reason is required")
	}
	if !catalog.ValidWaiveReason(reason) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "waive reason %q is not recognized", reason)
	}

	slot.Status = models.SlotWaived
	slot.WaiveReason = reason

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventSlotWaived),
		"application_id", app.ID,
		"incident_id", incidentID,
		"slot_code", slotCode,
		"reason", reason,
	)
	return nil
}

// Unwaive reverts a slot to missing, clearing the waive reason. File
// history is untouched; re-uploading later resumes version numbering.
func (s *Service) Unwaive(ctx context.Context, app *models.Application, incidentID id.IncidentID, slotCode string) error {
	slot, err := findSlot(app, incidentID, slotCode)
	if err != nil {
		return err
	}

	slot.Status = models.SlotMissing
	slot.WaiveReason = ""

	ports.LogAudit(ctx, s.logger, s.auditPublisher, string(audit.EventSlotUnwaived),
		"application_id", app.ID,
		"incident_id", incidentID,
		"slot_code", slotCode,
	)
	return nil
}

// ListFiles returns the full version history for a slot.
func (s *Service) ListFiles(ctx context.Context, app *models.Application, incidentID id.IncidentID, slotCode string) ([]models.UploadedFile, error) {
	if _, err := findSlot(app, incidentID, slotCode); err != nil {
		return nil, err
	}
	files, err := s.store.List(ctx, app.ID, incidentID, slotCode)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list file versions")
	}
	return files, nil
}

func findSlot(app *models.Application, incidentID id.IncidentID, slotCode string) (*models.DocumentSlot, error) {
	inc := app.Incident(incidentID)
	if inc == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "incident %s not found", incidentID)
	}
	slot := inc.Slot(slotCode)
	if slot == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "slot %q not found on incident %s", slotCode, incidentID)
	}
	return slot, nil
}
