// Package phase implements the wizard state machine: a fixed ordered
// catalog of phases, per-phase completion predicates, and the next-phase
// rules. Conditional phases are declared as data (an Exists predicate on the
// catalog entry), not encoded as magic step numbers.
package phase

import (
	"math"

	"intake/internal/intake/completion"
	"intake/internal/intake/models"
)

// Phase identifiers, in catalog order.
const (
	Start            models.PhaseID = "start"
	Qualifications   models.PhaseID = "qualifications"
	Classification   models.PhaseID = "classification"
	Screening        models.PhaseID = "screening"
	Assistance       models.PhaseID = "assistance-selection"
	DisclosureDetail models.PhaseID = "disclosure-detail"
	BusinessSetup    models.PhaseID = "business-setup"
	BusinessAddress  models.PhaseID = "business-address"
	Personnel        models.PhaseID = "personnel"
	Insurance        models.PhaseID = "insurance"
	Bond             models.PhaseID = "bond"
	Exam             models.PhaseID = "exam"
	Education        models.PhaseID = "education"
	DocumentReview   models.PhaseID = "document-review"
	Attestations     models.PhaseID = "attestations"
	Payment          models.PhaseID = "payment"
	Submission       models.PhaseID = "submission"
	Tracking         models.PhaseID = "tracking"
)

// OwnershipTolerance is how far the owner percentage sum may drift from 100
// before business setup is blocked. Guards against float accumulation noise,
// not against missing owners.
const OwnershipTolerance = 0.01

// Spec is one catalog entry. Number is the legacy numeric projection used by
// the persistence shape (the assistance step is the 4.5 half-step). A nil
// Exists means the phase is unconditional; a nil Next means the successor is
// the next existing phase in catalog order.
type Spec struct {
	ID       models.PhaseID
	Number   float64
	Title    string
	Fields   []string
	Exists   func(*models.Application) bool
	Complete func(*models.Application) bool
	Next     func(*models.Application) models.PhaseID
}

// Terminal reports whether completing this phase ends forward progression.
func (s Spec) Terminal() bool { return s.ID == Tracking }

// Catalog is the ordered phase table. Exactly two branch points exist: the
// assistance step branches to disclosure detail or business setup depending
// on the screening answers, and the exam step exists only for
// classifications that require an exam.
var Catalog = []Spec{
	{
		ID: Start, Number: 1, Title: "Getting started",
		Fields:   []string{"applicant_name", "email"},
		Complete: fieldsPresent("applicant_name", "email"),
	},
	{
		ID: Qualifications, Number: 2, Title: "Qualifying individual",
		Fields:   []string{"qualifier_name", "qualifier_relationship", "experience_years"},
		Complete: fieldsPresent("qualifier_name", "qualifier_relationship", "experience_years"),
	},
	{
		ID: Classification, Number: 3, Title: "License classification",
		Fields: []string{"classification"},
		Complete: func(app *models.Application) bool {
			return app.Form.Classification != ""
		},
	},
	{
		ID: Screening, Number: 4, Title: "Background screening",
		Complete: func(app *models.Application) bool {
			return app.Screening.AllAnswered()
		},
	},
	{
		ID: Assistance, Number: 4.5, Title: "Application assistance",
		Fields:   []string{"assistance_plan"},
		Complete: fieldsPresent("assistance_plan"),
		Next: func(app *models.Application) models.PhaseID {
			if app.Screening.AnyAffirmative() {
				return DisclosureDetail
			}
			return BusinessSetup
		},
	},
	{
		ID: DisclosureDetail, Number: 5, Title: "Disclosure details",
		Exists: func(app *models.Application) bool {
			return app.Screening.AnyAffirmative()
		},
		Complete: completion.AllDisclosuresComplete,
	},
	{
		ID: BusinessSetup, Number: 6, Title: "Business setup",
		Fields: []string{"business_name", "entity_type"},
		Complete: func(app *models.Application) bool {
			if !fieldsPresent("business_name", "entity_type")(app) {
				return false
			}
			if len(app.Form.Owners) == 0 {
				return false
			}
			return math.Abs(app.Form.OwnershipTotal()-100) < OwnershipTolerance
		},
	},
	{
		ID: BusinessAddress, Number: 7, Title: "Business address",
		Fields:   []string{"address_line1", "city", "state", "zip"},
		Complete: fieldsPresent("address_line1", "city", "state", "zip"),
	},
	{
		ID: Personnel, Number: 8, Title: "Personnel",
		Fields:   []string{"personnel_listed"},
		Complete: fieldsPresent("personnel_listed"),
	},
	{
		ID: Insurance, Number: 9, Title: "Workers' compensation",
		Fields:   []string{"workers_comp_carrier", "policy_number"},
		Complete: fieldsPresent("workers_comp_carrier", "policy_number"),
	},
	{
		ID: Bond, Number: 10, Title: "Contractor bond",
		Fields:   []string{"bond_number", "bond_company"},
		Complete: fieldsPresent("bond_number", "bond_company"),
	},
	{
		ID: Exam, Number: 11, Title: "Examination",
		Fields: []string{"exam_scheduled_date"},
		Exists: func(app *models.Application) bool {
			return ExamRequired(app.Form.Classification)
		},
		Complete: fieldsPresent("exam_scheduled_date"),
	},
	{
		ID: Education, Number: 12, Title: "Education and experience",
		Fields:   []string{"experience_certifier"},
		Complete: fieldsPresent("experience_certifier"),
	},
	{
		ID: DocumentReview, Number: 13, Title: "Document review",
		Fields:   []string{"documents_reviewed"},
		Complete: fieldsPresent("documents_reviewed"),
	},
	{
		ID: Attestations, Number: 14, Title: "Attestations",
		Fields:   []string{"attested_truthful"},
		Complete: fieldsPresent("attested_truthful"),
	},
	{
		ID: Payment, Number: 15, Title: "Fees and payment",
		Complete: func(app *models.Application) bool {
			return app.PaymentConfirmed
		},
	},
	{
		ID: Submission, Number: 16, Title: "Review and submit",
		Fields:   []string{"signature"},
		Complete: fieldsPresent("signature"),
	},
	{
		ID: Tracking, Number: 17, Title: "Application tracking",
		Complete: func(*models.Application) bool { return true },
	},
}

// examWaivedClassifications lists classification codes that do not sit an
// exam. Business data, not engine logic.
var examWaivedClassifications = map[string]bool{
	"C-61":          true,
	"JOINT-VENTURE": true,
}

// ExamRequired reports whether the chosen classification requires the exam
// step. Unset classifications do not insert the phase; choosing one later
// makes it appear in sequence.
func ExamRequired(classification string) bool {
	if classification == "" {
		return false
	}
	return !examWaivedClassifications[classification]
}

// fieldsPresent builds a predicate requiring each flat form field to be
// non-empty.
func fieldsPresent(keys ...string) func(*models.Application) bool {
	return func(app *models.Application) bool {
		for _, k := range keys {
			if app.Form.Field(k) == "" {
				return false
			}
		}
		return true
	}
}
