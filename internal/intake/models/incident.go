package models

import (
	"time"

	id "intake/pkg/domain"
)

// Category classifies a disclosed incident. The set is closed; every
// category maps to a fixed slot catalog and narrative policy.
type Category string

const (
	CategoryBackground Category = "BACKGROUND"
	CategoryDiscipline Category = "DISCIPLINE"
	CategoryFinancial  Category = "FINANCIAL"
	CategoryBankruptcy Category = "BANKRUPTCY"
)

// IsValid reports whether the category is a member of the closed set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBackground, CategoryDiscipline, CategoryFinancial, CategoryBankruptcy:
		return true
	}
	return false
}

// Subtype narrows a category to its concrete variant. Subtypes are
// category-scoped; the catalog validates the pairing.
type Subtype string

const (
	SubtypeMisdemeanor        Subtype = "MISDEMEANOR"
	SubtypeFelony             Subtype = "FELONY"
	SubtypeLicenseDiscipline  Subtype = "LICENSE_DISCIPLINE"
	SubtypeLien               Subtype = "LIEN"
	SubtypeJudgment           Subtype = "JUDGMENT"
	SubtypeChildSupport       Subtype = "CHILD_SUPPORT"
	SubtypePersonalBankruptcy Subtype = "PERSONAL_BANKRUPTCY"
)

// SlotStatus tracks the evidence state of a document slot.
type SlotStatus string

const (
	SlotMissing  SlotStatus = "missing"
	SlotUploaded SlotStatus = "uploaded"
	SlotWaived   SlotStatus = "waived"
)

// DocumentSlot is a single required-or-optional document requirement scoped
// to one incident. Slots are created from the catalog at incident creation
// and never removed while the incident exists; only status mutates.
type DocumentSlot struct {
	Code        string     `json:"code"`
	Label       string     `json:"label"`
	Required    bool       `json:"required"`
	Waivable    bool       `json:"waivable"`
	Status      SlotStatus `json:"status"`
	WaiveReason string     `json:"waive_reason,omitempty"`
}

// Satisfied reports whether the slot no longer blocks completion.
func (s DocumentSlot) Satisfied() bool {
	return s.Status == SlotUploaded || s.Status == SlotWaived
}

// Narrative is the free-text explanation attached to an incident. Length
// requirements are a completion criterion, never a write constraint.
type Narrative struct {
	Content   string    `json:"content"`
	Revision  int       `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IncidentContext carries the free-form contextual fields an applicant fills
// in about a disclosed item.
type IncidentContext struct {
	Jurisdiction   string `json:"jurisdiction,omitempty"`
	Agency         string `json:"agency,omitempty"`
	Court          string `json:"court,omitempty"`
	CaseNumber     string `json:"case_number,omitempty"`
	IncidentDate   string `json:"incident_date,omitempty"`
	ResolutionDate string `json:"resolution_date,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Incident is a single disclosed background/financial/legal item requiring
// documentary evidence. Incidents are generated from screening answers and
// persist until the applicant explicitly removes them.
type Incident struct {
	ID        id.IncidentID   `json:"id"`
	Category  Category        `json:"category"`
	Subtype   Subtype         `json:"subtype"`
	Context   IncidentContext `json:"context"`
	Slots     []DocumentSlot  `json:"slots"`
	Narrative *Narrative      `json:"narrative,omitempty"`
	UserAdded bool            `json:"user_added"`
	CreatedAt time.Time       `json:"created_at"`
}

// Slot returns the slot with the given code, or nil.
func (i *Incident) Slot(code string) *DocumentSlot {
	for n := range i.Slots {
		if i.Slots[n].Code == code {
			return &i.Slots[n]
		}
	}
	return nil
}

// NarrativeLength returns the rune length of the narrative content, zero
// when no narrative has been written.
func (i *Incident) NarrativeLength() int {
	if i.Narrative == nil {
		return 0
	}
	return len([]rune(i.Narrative.Content))
}
