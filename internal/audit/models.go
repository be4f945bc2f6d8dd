// Package audit captures the compliance trail of an application: who
// disclosed what, which evidence changed, and how the wizard advanced.
// Events are transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	id "intake/pkg/domain"
)

// Action names an auditable operation.
type Action string

const (
	// Disclosure events
	EventIncidentGenerated Action = "incident_generated"
	EventIncidentAdded     Action = "incident_added"
	EventIncidentRemoved   Action = "incident_removed"
	EventIncidentUpdated   Action = "incident_updated"

	// Evidence events
	EventFileUploaded Action = "file_uploaded"
	EventSlotWaived   Action = "slot_waived"
	EventSlotUnwaived Action = "slot_unwaived"
	EventNarrativeSet Action = "narrative_set"

	// Wizard events
	EventPhaseCompleted  Action = "phase_completed"
	EventPhaseNavigated  Action = "phase_navigated"
	EventSnapshotSaved   Action = "snapshot_saved"
	EventPaymentApplied  Action = "payment_applied"
	EventApplicationOpen Action = "application_opened"
)

// Category classifies events by retention policy.
type Category string

const (
	// CategoryCompliance covers events with regulatory significance; these
	// need tamper-proof storage and long retention.
	CategoryCompliance Category = "compliance"

	// CategoryOperations covers routine activity useful for debugging; it
	// can be sampled and aged out quickly.
	CategoryOperations Category = "operations"
)

// eventCategories maps each action to its retention category.
var eventCategories = map[Action]Category{
	EventIncidentGenerated: CategoryCompliance,
	EventIncidentAdded:     CategoryCompliance,
	EventIncidentRemoved:   CategoryCompliance,
	EventFileUploaded:      CategoryCompliance,
	EventSlotWaived:        CategoryCompliance,
	EventPaymentApplied:    CategoryCompliance,

	EventIncidentUpdated: CategoryOperations,
	EventSlotUnwaived:    CategoryOperations,
	EventNarrativeSet:    CategoryOperations,
	EventPhaseCompleted:  CategoryOperations,
	EventPhaseNavigated:  CategoryOperations,
	EventSnapshotSaved:   CategoryOperations,
	EventApplicationOpen: CategoryOperations,
}

// Category returns the retention category for the action. Unknown actions
// default to operations.
func (a Action) Category() Category {
	if cat, ok := eventCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Timestamp     time.Time        `json:"timestamp"`
	Action        Action           `json:"action"`
	Category      Category         `json:"category"`
	ApplicationID id.ApplicationID `json:"application_id"`
	IncidentID    id.IncidentID    `json:"incident_id,omitempty"`
	SlotCode      string           `json:"slot_code,omitempty"`
	Detail        string           `json:"detail,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
}
