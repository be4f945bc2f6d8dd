package autosave

import (
	"intake/internal/intake/models"
	id "intake/pkg/domain"
)

// EventKind names the external events the engine reconciles.
type EventKind string

const (
	// EventPaymentConfirmed arrives out of band from the commerce
	// collaborator once checkout settles.
	EventPaymentConfirmed EventKind = "payment_confirmed"

	// EventStatusChanged arrives from the licensing authority once the
	// submitted application moves through review.
	EventStatusChanged EventKind = "status_changed"
)

// ExternalEvent is an inbound asynchronous update. Each kind owns a fixed
// set of fields; everything else on the aggregate belongs to local edits.
type ExternalEvent struct {
	ApplicationID    id.ApplicationID         `json:"application_id"`
	Kind             EventKind                `json:"kind"`
	PaymentReference string                   `json:"payment_reference,omitempty"`
	Status           models.ApplicationStatus `json:"status,omitempty"`
}

// Merge applies an external event to the aggregate, touching only the
// fields the event legitimately owns. Concurrent local edits to form
// fields, incidents, and evidence are never clobbered, and an unknown kind
// is ignored rather than surfaced as a user-facing error.
func Merge(app *models.Application, event ExternalEvent) bool {
	switch event.Kind {
	case EventPaymentConfirmed:
		app.PaymentConfirmed = true
		if event.PaymentReference != "" {
			app.PaymentReference = event.PaymentReference
		}
		return true
	case EventStatusChanged:
		if event.Status != "" {
			app.Status = event.Status
		}
		return true
	}
	return false
}
