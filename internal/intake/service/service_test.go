package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/audit"
	"intake/internal/intake/autosave"
	"intake/internal/intake/evidence"
	"intake/internal/intake/models"
	"intake/internal/intake/phase"
	"intake/internal/intake/snapshot"
	"intake/internal/intake/store"
	id "intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *audit.Publisher) {
	t.Helper()
	ev, err := evidence.New(evidence.NewMemoryStore())
	require.NoError(t, err)

	auditStore := audit.NewMemoryStore()
	publisher := audit.NewPublisher(auditStore)

	svc, err := New(store.NewInMemoryApplicationStore(), ev,
		WithAuditPublisher(publisher),
		WithSnapshotStore(snapshot.NewMemoryStore()),
	)
	require.NoError(t, err)
	return svc, publisher
}

func yes(fields ...string) models.ScreeningAnswers {
	answers := models.ScreeningAnswers{
		Misdemeanors: models.AnswerNo,
		Felonies:     models.AnswerNo,
		Discipline:   models.AnswerNo,
		Liens:        models.AnswerNo,
		Judgments:    models.AnswerNo,
		Bankruptcy:   models.AnswerNo,
	}
	for _, f := range fields {
		switch f {
		case "misdemeanors":
			answers.Misdemeanors = models.AnswerYes
		case "felonies":
			answers.Felonies = models.AnswerYes
		case "discipline":
			answers.Discipline = models.AnswerYes
		case "liens":
			answers.Liens = models.AnswerYes
		case "judgments":
			answers.Judgments = models.AnswerYes
		case "bankruptcy":
			answers.Bankruptcy = models.AnswerYes
		}
	}
	return answers
}

func TestOpenAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	app, err := svc.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, phase.First(), app.ActivePhase)
	assert.Equal(t, models.StatusDraft, app.Status)

	got, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)

	_, err = svc.Get(ctx, id.NewApplicationID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateScreening(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)

	created, err := svc.UpdateScreening(ctx, app.ID, yes("felonies", "liens"))
	require.NoError(t, err)
	assert.Len(t, created, 2)

	// Saving again with the same answers creates nothing new.
	createdAgain, err := svc.UpdateScreening(ctx, app.ID, yes("felonies", "liens"))
	require.NoError(t, err)
	assert.Empty(t, createdAgain)

	got, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, got.Incidents, 2)
}

func TestAddAndRemoveIncident(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)

	inc, err := svc.AddIncident(ctx, app.ID, models.CategoryFinancial, models.SubtypeChildSupport)
	require.NoError(t, err)
	assert.True(t, inc.UserAdded)

	// A second deliberate duplicate of the same pairing is allowed.
	dup, err := svc.AddIncident(ctx, app.ID, models.CategoryFinancial, models.SubtypeChildSupport)
	require.NoError(t, err)
	assert.NotEqual(t, inc.ID, dup.ID)

	_, err = svc.AddIncident(ctx, app.ID, models.CategoryDiscipline, models.SubtypeLien)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	require.NoError(t, svc.RemoveIncident(ctx, app.ID, inc.ID))
	err = svc.RemoveIncident(ctx, app.ID, inc.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateIncidentContext(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)
	created, err := svc.UpdateScreening(ctx, app.ID, yes("judgments"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	court := "Sacramento Superior Court"
	caseNo := "34-2024-001"
	inc, err := svc.UpdateIncidentContext(ctx, app.ID, created[0], ContextPatch{
		Court:      &court,
		CaseNumber: &caseNo,
	})
	require.NoError(t, err)
	assert.Equal(t, court, inc.Context.Court)
	assert.Equal(t, caseNo, inc.Context.CaseNumber)

	// A later patch with other fields leaves the first ones alone.
	notes := "settled in full"
	inc, err = svc.UpdateIncidentContext(ctx, app.ID, created[0], ContextPatch{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, court, inc.Context.Court)
	assert.Equal(t, notes, inc.Context.Notes)
}

func TestSetNarrative(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)
	created, err := svc.UpdateScreening(ctx, app.ID, yes("bankruptcy"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	n, err := svc.SetNarrative(ctx, app.ID, created[0], "short")
	require.NoError(t, err, "short narratives are accepted; length only gates completion")
	assert.Equal(t, 1, n.Revision)

	n, err = svc.SetNarrative(ctx, app.ID, created[0], "longer text")
	require.NoError(t, err)
	assert.Equal(t, 2, n.Revision)

	_, err = svc.SetNarrative(ctx, app.ID, id.NewIncidentID(), "x")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCompletion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)
	created, err := svc.UpdateScreening(ctx, app.ID, yes("discipline"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	summary, err := svc.Completion(ctx, app.ID)
	require.NoError(t, err)
	assert.False(t, summary.AllComplete)
	assert.False(t, summary.Categories[models.CategoryDiscipline])
	assert.True(t, summary.Categories[models.CategoryBankruptcy], "untriggered categories are vacuously complete")
	assert.False(t, summary.Incidents[created[0]])
}

func TestCompletePhaseAndNavigate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)

	_, err = svc.CompletePhase(ctx, app.ID)
	require.Error(t, err, "start phase fields are missing")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.UpdateForm(ctx, app.ID, FormPatch{Fields: map[string]string{
		"applicant_name": "Dana Reyes",
		"email":          "dana@example.com",
	}})
	require.NoError(t, err)

	updated, err := svc.CompletePhase(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, phase.Qualifications, updated.ActivePhase)

	// Back to review, forward again.
	updated, err = svc.Navigate(ctx, app.ID, phase.Start)
	require.NoError(t, err)
	assert.Equal(t, phase.Start, updated.ActivePhase)

	_, err = svc.Navigate(ctx, app.ID, phase.Payment)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUpdateForm(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)

	classification := "C-10"
	updated, err := svc.UpdateForm(ctx, app.ID, FormPatch{
		Classification: &classification,
		Owners:         []models.Owner{{Name: "Dana Reyes", Percentage: 100}},
		Fields:         map[string]string{"business_name": "Reyes Electric"},
	})
	require.NoError(t, err)
	assert.Equal(t, "C-10", updated.Form.Classification)
	assert.Len(t, updated.Form.Owners, 1)

	// A patch without classification leaves it untouched.
	updated, err = svc.UpdateForm(ctx, app.ID, FormPatch{Fields: map[string]string{"entity_type": "sole"}})
	require.NoError(t, err)
	assert.Equal(t, "C-10", updated.Form.Classification)
	assert.Equal(t, "Reyes Electric", updated.Form.Field("business_name"))
}

func TestApplyExternal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)

	svc.ApplyExternal(ctx, autosave.ExternalEvent{
		ApplicationID:    app.ID,
		Kind:             autosave.EventPaymentConfirmed,
		PaymentReference: "PAY-77",
	})

	got, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.True(t, got.PaymentConfirmed)
	assert.Equal(t, "PAY-77", got.PaymentReference)

	// Unknown application is swallowed; reconciliation is asynchronous and
	// has no user to report to.
	svc.ApplyExternal(ctx, autosave.ExternalEvent{
		ApplicationID: id.NewApplicationID(),
		Kind:          autosave.EventPaymentConfirmed,
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)

	// Nothing saved yet: projection of live state.
	snap, err := svc.Snapshot(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, snap.ApplicationID)

	snap.Data.Progress = 42
	require.NoError(t, svc.SaveSnapshot(ctx, *snap))

	got, err := svc.Snapshot(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Data.Progress, "persisted snapshot wins over projection")
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newTestService(t)
	app, err := svc.Open(ctx)
	require.NoError(t, err)
	created, err := svc.UpdateScreening(ctx, app.ID, yes("misdemeanors"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	events, err := publisher.List(ctx, id.ApplicationID{})
	require.NoError(t, err)
	// Events carry the request-scoped application ID, which unit tests do
	// not set; actions and lifted attributes are what matters here.
	var actions []audit.Action
	for _, e := range events {
		actions = append(actions, e.Action)
		if e.Action == audit.EventIncidentGenerated {
			assert.Equal(t, created[0], e.IncidentID)
		}
	}
	assert.Contains(t, actions, audit.EventApplicationOpen)
	assert.Contains(t, actions, audit.EventIncidentGenerated)
}
