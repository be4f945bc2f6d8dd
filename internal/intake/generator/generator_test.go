package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/intake/models"
)

func TestReconcile(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("all negative answers generate nothing", func(t *testing.T) {
		answers := allNo()
		incidents, created := Reconcile(answers, nil, now)
		assert.Empty(t, incidents)
		assert.Empty(t, created)
	})

	t.Run("affirmative answer materializes its pairing", func(t *testing.T) {
		answers := allNo()
		answers.Felonies = models.AnswerYes

		incidents, created := Reconcile(answers, nil, now)
		require.Len(t, incidents, 1)
		require.Len(t, created, 1)

		inc := incidents[0]
		assert.Equal(t, models.CategoryBackground, inc.Category)
		assert.Equal(t, models.SubtypeFelony, inc.Subtype)
		assert.Equal(t, inc.ID, created[0])
		assert.Len(t, inc.Slots, 5)
		assert.False(t, inc.ID.IsNil())
	})

	t.Run("reconcile is idempotent", func(t *testing.T) {
		answers := allNo()
		answers.Bankruptcy = models.AnswerYes

		incidents, created := Reconcile(answers, nil, now)
		require.Len(t, created, 1)

		again, createdAgain := Reconcile(answers, incidents, now)
		assert.Len(t, again, 1)
		assert.Empty(t, createdAgain)
		assert.Same(t, incidents[0], again[0])
	})

	t.Run("flipping an answer to no never deletes", func(t *testing.T) {
		answers := allNo()
		answers.Liens = models.AnswerYes
		incidents, _ := Reconcile(answers, nil, now)
		require.Len(t, incidents, 1)

		answers.Liens = models.AnswerNo
		incidents, created := Reconcile(answers, incidents, now)
		assert.Len(t, incidents, 1)
		assert.Empty(t, created)
	})

	t.Run("re-affirming after explicit removal creates a fresh incident", func(t *testing.T) {
		answers := allNo()
		answers.Discipline = models.AnswerYes
		incidents, _ := Reconcile(answers, nil, now)
		require.Len(t, incidents, 1)
		removed := incidents[0].ID

		// The applicant deleted the incident; the answer stayed yes.
		incidents, created := Reconcile(answers, nil, now)
		require.Len(t, created, 1)
		assert.NotEqual(t, removed, incidents[0].ID)
	})

	t.Run("new incidents are prepended", func(t *testing.T) {
		answers := allNo()
		answers.Misdemeanors = models.AnswerYes
		incidents, _ := Reconcile(answers, nil, now)

		answers.Judgments = models.AnswerYes
		incidents, _ = Reconcile(answers, incidents, now)
		require.Len(t, incidents, 2)
		assert.Equal(t, models.SubtypeJudgment, incidents[0].Subtype)
		assert.Equal(t, models.SubtypeMisdemeanor, incidents[1].Subtype)
	})

	t.Run("every trigger maps to its catalog pairing", func(t *testing.T) {
		answers := models.ScreeningAnswers{
			Misdemeanors: models.AnswerYes,
			Felonies:     models.AnswerYes,
			Discipline:   models.AnswerYes,
			Liens:        models.AnswerYes,
			Judgments:    models.AnswerYes,
			Bankruptcy:   models.AnswerYes,
		}
		incidents, created := Reconcile(answers, nil, now)
		require.Len(t, incidents, 6)
		require.Len(t, created, 6)

		for _, inc := range incidents {
			assert.NotEmpty(t, inc.Slots, "pairing %s/%s has no slots", inc.Category, inc.Subtype)
		}
	})
}

func TestNewIncident(t *testing.T) {
	now := time.Now()

	t.Run("rejects pairings outside the catalog", func(t *testing.T) {
		assert.Nil(t, NewIncident(models.CategoryDiscipline, models.SubtypeLien, now))
	})

	t.Run("child support can be created directly", func(t *testing.T) {
		inc := NewIncident(models.CategoryFinancial, models.SubtypeChildSupport, now)
		require.NotNil(t, inc)
		assert.Len(t, inc.Slots, 2)
		assert.Equal(t, now, inc.CreatedAt)
	})
}

func allNo() models.ScreeningAnswers {
	return models.ScreeningAnswers{
		Misdemeanors: models.AnswerNo,
		Felonies:     models.AnswerNo,
		Discipline:   models.AnswerNo,
		Liens:        models.AnswerNo,
		Judgments:    models.AnswerNo,
		Bankruptcy:   models.AnswerNo,
	}
}
