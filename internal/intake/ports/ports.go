// Package ports defines shared interfaces for the intake module.
// Interfaces live here when consumed by multiple services to avoid
// duplication.
package ports

import (
	"context"
	"log/slog"

	"intake/internal/audit"
	"intake/pkg/attrs"
	id "intake/pkg/domain"
	"intake/pkg/requestcontext"
)

// AuditPublisher emits audit events for compliance-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit is a shared helper for recording audit events across intake
// services. It logs to the structured logger and, when configured, emits to
// the audit publisher. The incident_id, slot_code, and detail attributes are
// lifted out of attrList onto the emitted event.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, action string, attrList ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}
	args := append(attrList, "event", action, "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, action, args...)
	}

	if publisher == nil {
		return
	}
	event := audit.Event{
		Action:        audit.Action(action),
		ApplicationID: requestcontext.ApplicationID(ctx),
		RequestID:     requestcontext.RequestID(ctx),
		SlotCode:      attrs.ExtractString(attrList, "slot_code"),
		Detail:        attrs.ExtractString(attrList, "detail"),
	}
	if incidentID, ok := attrs.Extract[id.IncidentID](attrList, "incident_id"); ok {
		event.IncidentID = incidentID
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", action, "error", err)
	}
}
