package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/intake/catalog"
	"intake/internal/intake/evidence"
	"intake/internal/intake/models"
	id "intake/pkg/domain"
	"intake/pkg/requestcontext"
	"intake/pkg/testutil"
)

// TestDisclosureFlow walks one incident from screening trigger to complete:
// answer yes, upload or waive every required slot, write the narrative, and
// watch the completion summary flip.
func TestDisclosureFlow(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t)

	var appID id.ApplicationID
	var incidentID id.IncidentID

	testutil.Given(t, "an application that disclosed a misdemeanor", func(t *testing.T) {
		app, err := svc.Open(ctx)
		require.NoError(t, err)
		appID = app.ID

		created, err := svc.UpdateScreening(ctx, appID, yes("misdemeanors"))
		require.NoError(t, err)
		require.Len(t, created, 1)
		incidentID = created[0]

		summary, err := svc.Completion(ctx, appID)
		require.NoError(t, err)
		assert.False(t, summary.AllComplete)
	})

	testutil.When(t, "every required slot is satisfied", func(t *testing.T) {
		app, err := svc.Get(ctx, appID)
		require.NoError(t, err)

		for _, slot := range app.Incidents[0].Slots {
			if !slot.Required {
				continue
			}
			if slot.Waivable {
				require.NoError(t, svc.Waive(ctx, appID, incidentID, slot.Code, "records_destroyed"))
				continue
			}
			_, err := svc.Upload(ctx, appID, incidentID, slot.Code, evidence.NewFile{
				OriginalName: slot.Code + ".pdf",
				Extension:    "pdf",
				Size:         128,
				UploadedAt:   requestcontext.Now(ctx),
			})
			require.NoError(t, err)
		}
	})

	testutil.When(t, "the narrative reaches the minimum length", func(t *testing.T) {
		content := make([]byte, 0, catalog.NarrativeMinLength)
		for len(content) < catalog.NarrativeMinLength {
			content = append(content, "In 2019 I was cited and completed all court requirements. "...)
		}
		_, err := svc.SetNarrative(ctx, appID, incidentID, string(content))
		require.NoError(t, err)
	})

	testutil.Then(t, "the incident and its category read complete", func(t *testing.T) {
		summary, err := svc.Completion(ctx, appID)
		require.NoError(t, err)
		assert.True(t, summary.Incidents[incidentID])
		assert.True(t, summary.Categories[models.CategoryBackground])
		assert.True(t, summary.AllComplete)
	})
}
