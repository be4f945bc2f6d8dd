// Package catalog is the fixed business data behind the disclosure engine:
// which document slots each (category, subtype) pairing demands, which waive
// reasons are acceptable, and which categories require a narrative. All
// functions are pure; the tables are package data so jurisdictions can
// regenerate them without touching engine logic.
package catalog

import (
	"intake/internal/intake/models"
)

// SlotDef describes one slot requirement in the catalog.
type SlotDef struct {
	Code     string
	Label    string
	Required bool
	Waivable bool
}

type pairing struct {
	category models.Category
	subtype  models.Subtype
}

// slotTable maps every valid (category, subtype) pairing to its ordered slot
// definitions. Order is stable and observable; tests assert exact equality.
var slotTable = map[pairing][]SlotDef{
	{models.CategoryBackground, models.SubtypeMisdemeanor}: {
		{Code: "court-records", Label: "Certified court records", Required: true},
		{Code: "police-report", Label: "Arresting agency report", Required: true, Waivable: true},
		{Code: "probation-completion", Label: "Proof of probation completion", Required: true, Waivable: true},
		{Code: "character-references", Label: "Character reference letters", Required: false},
		{Code: "expungement-order", Label: "Expungement order", Required: false},
	},
	{models.CategoryBackground, models.SubtypeFelony}: {
		{Code: "court-records", Label: "Certified court records", Required: true},
		{Code: "police-report", Label: "Arresting agency report", Required: true, Waivable: true},
		{Code: "probation-completion", Label: "Proof of probation or parole completion", Required: true, Waivable: true},
		{Code: "character-references", Label: "Character reference letters", Required: false},
		{Code: "expungement-order", Label: "Expungement or dismissal order", Required: false},
	},
	{models.CategoryDiscipline, models.SubtypeLicenseDiscipline}: {
		{Code: "accusation-document", Label: "Accusation or citation document", Required: true},
		{Code: "settlement-agreement", Label: "Settlement or stipulated agreement", Required: true, Waivable: true},
		{Code: "license-history", Label: "Certified license history", Required: false},
	},
	{models.CategoryFinancial, models.SubtypeLien}: {
		{Code: "lien-notice", Label: "Recorded lien notice", Required: true},
		{Code: "payoff-plan", Label: "Payoff or payment plan", Required: true, Waivable: true},
		{Code: "release-of-lien", Label: "Release of lien", Required: false},
	},
	{models.CategoryFinancial, models.SubtypeJudgment}: {
		{Code: "judgment-entry", Label: "Entry of judgment", Required: true},
		{Code: "satisfaction-of-judgment", Label: "Satisfaction of judgment", Required: true, Waivable: true},
		{Code: "payment-agreement", Label: "Payment agreement", Required: false},
	},
	{models.CategoryFinancial, models.SubtypeChildSupport}: {
		{Code: "support-order", Label: "Child support order", Required: true},
		{Code: "payment-history", Label: "Payment history statement", Required: true, Waivable: true},
	},
	{models.CategoryBankruptcy, models.SubtypePersonalBankruptcy}: {
		{Code: "petition", Label: "Bankruptcy petition", Required: true},
		{Code: "discharge-order", Label: "Discharge order", Required: true, Waivable: true},
		{Code: "schedule-of-creditors", Label: "Schedule of creditors", Required: true},
		{Code: "trustee-report", Label: "Trustee final report", Required: false},
	},
}

// SlotsFor returns the ordered slot definitions for a pairing. The second
// return is false for pairings outside the catalog.
func SlotsFor(cat models.Category, sub models.Subtype) ([]SlotDef, bool) {
	defs, ok := slotTable[pairing{cat, sub}]
	return defs, ok
}

// InstantiateSlots materializes catalog definitions into document slots in
// their initial missing state.
func InstantiateSlots(cat models.Category, sub models.Subtype) ([]models.DocumentSlot, bool) {
	defs, ok := SlotsFor(cat, sub)
	if !ok {
		return nil, false
	}
	slots := make([]models.DocumentSlot, len(defs))
	for n, d := range defs {
		slots[n] = models.DocumentSlot{
			Code:     d.Code,
			Label:    d.Label,
			Required: d.Required,
			Waivable: d.Waivable,
			Status:   models.SlotMissing,
		}
	}
	return slots, true
}

// WaiveReasons is the constrained set of acceptable waive justifications.
var WaiveReasons = map[string]string{
	"records_destroyed": "Records destroyed by the issuing agency",
	"agency_closed":     "Issuing agency no longer exists",
	"sealed_by_court":   "Record sealed or unavailable by court order",
	"other_documented":  "Other reason, documentation attached elsewhere",
}

// ValidWaiveReason reports whether the reason code is acceptable.
func ValidWaiveReason(reason string) bool {
	_, ok := WaiveReasons[reason]
	return ok
}

// narrativeRequired lists the categories whose incidents need a written
// explanation before they count as complete.
var narrativeRequired = map[models.Category]bool{
	models.CategoryBackground: true,
	models.CategoryBankruptcy: true,
}

// NarrativeRequired reports whether incidents of the category need a
// narrative to complete.
func NarrativeRequired(cat models.Category) bool {
	return narrativeRequired[cat]
}

// NarrativeMinLength is the completion threshold for required narratives,
// in characters. A threshold, not a write constraint.
const NarrativeMinLength = 100
