package models

// ScreeningAnswer is a tri-state yes/no answer. The zero value means the
// question has not been answered yet, which blocks screening completion.
type ScreeningAnswer string

const (
	AnswerUnset ScreeningAnswer = ""
	AnswerYes   ScreeningAnswer = "yes"
	AnswerNo    ScreeningAnswer = "no"
)

// ScreeningAnswers holds the six independent disclosure questions asked
// during the screening phase. Each affirmative answer triggers generation of
// an incident with the mapped (category, subtype).
type ScreeningAnswers struct {
	Misdemeanors ScreeningAnswer `json:"misdemeanors"`
	Felonies     ScreeningAnswer `json:"felonies"`
	Discipline   ScreeningAnswer `json:"discipline"`
	Liens        ScreeningAnswer `json:"liens"`
	Judgments    ScreeningAnswer `json:"judgments"`
	Bankruptcy   ScreeningAnswer `json:"bankruptcy"`
}

// AllAnswered reports whether every question has been answered.
func (a ScreeningAnswers) AllAnswered() bool {
	for _, ans := range a.list() {
		if ans == AnswerUnset {
			return false
		}
	}
	return true
}

// AnyAffirmative reports whether at least one answer is "yes". This is the
// disclosure trigger that inserts the disclosure-detail phase.
func (a ScreeningAnswers) AnyAffirmative() bool {
	for _, ans := range a.list() {
		if ans == AnswerYes {
			return true
		}
	}
	return false
}

func (a ScreeningAnswers) list() []ScreeningAnswer {
	return []ScreeningAnswer{a.Misdemeanors, a.Felonies, a.Discipline, a.Liens, a.Judgments, a.Bankruptcy}
}

// Trigger pairs a screening answer with the incident it materializes.
type Trigger struct {
	Answer   func(ScreeningAnswers) ScreeningAnswer
	Category Category
	Subtype  Subtype
}

// Triggers is the ordered mapping from screening questions to incident
// (category, subtype) pairs. Order determines generation order.
var Triggers = []Trigger{
	{func(a ScreeningAnswers) ScreeningAnswer { return a.Misdemeanors }, CategoryBackground, SubtypeMisdemeanor},
	{func(a ScreeningAnswers) ScreeningAnswer { return a.Felonies }, CategoryBackground, SubtypeFelony},
	{func(a ScreeningAnswers) ScreeningAnswer { return a.Discipline }, CategoryDiscipline, SubtypeLicenseDiscipline},
	{func(a ScreeningAnswers) ScreeningAnswer { return a.Liens }, CategoryFinancial, SubtypeLien},
	{func(a ScreeningAnswers) ScreeningAnswer { return a.Judgments }, CategoryFinancial, SubtypeJudgment},
	{func(a ScreeningAnswers) ScreeningAnswer { return a.Bankruptcy }, CategoryBankruptcy, SubtypePersonalBankruptcy},
}

// TriggeredCategories returns the set of categories with at least one
// affirmative screening answer. Category completion is judged against this
// set, not against incident counts, so a deleted required incident can never
// make its category vacuously complete.
func (a ScreeningAnswers) TriggeredCategories() map[Category]bool {
	out := make(map[Category]bool)
	for _, t := range Triggers {
		if t.Answer(a) == AnswerYes {
			out[t.Category] = true
		}
	}
	return out
}
