package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/intake/autosave"
	"intake/internal/intake/evidence"
	"intake/internal/intake/service"
	"intake/internal/intake/snapshot"
	"intake/internal/intake/store"
	"intake/internal/platform/logger"
	"intake/pkg/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ev, err := evidence.New(evidence.NewMemoryStore())
	require.NoError(t, err)
	svc, err := service.New(store.NewInMemoryApplicationStore(), ev,
		service.WithSnapshotStore(snapshot.NewMemoryStore()),
	)
	require.NoError(t, err)

	log := logger.New()
	r := chi.NewRouter()
	New(svc, log).Register(r)
	NewExternalEventHandler(autosave.New(snapshot.NewMemoryStore(), nil), log).Register(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(router, testutil.NewJSONRequest(t, method, path, body))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	return *testutil.UnmarshalResponse[T](t, w)
}

func openApplication(t *testing.T, router http.Handler) ApplicationResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/applications/", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return decode[ApplicationResponse](t, w)
}

func TestOpenApplication(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	assert.Equal(t, "draft", app.Status)
	assert.Equal(t, "start", app.ActivePhase)
	assert.Empty(t, app.CompletedPhases)
}

func TestGetApplication(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	w := doJSON(t, router, http.MethodGet, "/applications/"+app.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("malformed id rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/applications/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id not found", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/applications/550e8400-e29b-41d4-a716-446655440000", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestScreeningEndpoint(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	w := doJSON(t, router, http.MethodPut, "/applications/"+app.ID+"/screening", ScreeningRequest{
		Misdemeanors: "no", Felonies: "yes", Discipline: "no",
		Liens: "no", Judgments: "no", Bankruptcy: "yes",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[ScreeningResponse](t, w)
	assert.Len(t, resp.CreatedIncidents, 2)
	assert.Len(t, resp.Application.Incidents, 2)

	t.Run("invalid answer rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/applications/"+app.ID+"/screening", ScreeningRequest{
			Misdemeanors: "maybe",
		})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
		testutil.AssertErrorCode(t, w, "validation_failed")
	})
}

func TestIncidentLifecycle(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	w := doJSON(t, router, http.MethodPost, "/applications/"+app.ID+"/incidents/", AddIncidentRequest{
		Category: "financial", Subtype: "child_support",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	inc := decode[IncidentResponse](t, w)
	assert.True(t, inc.UserAdded)
	assert.Len(t, inc.Slots, 2)

	base := fmt.Sprintf("/applications/%s/incidents/%s", app.ID, inc.ID)

	t.Run("context patch", func(t *testing.T) {
		court := "Fresno Superior Court"
		w := doJSON(t, router, http.MethodPatch, base+"/", ContextRequest{Court: &court})
		require.Equal(t, http.StatusOK, w.Code)
		patched := decode[IncidentResponse](t, w)
		assert.Equal(t, court, patched.Context.Court)
	})

	t.Run("bad date format rejected", func(t *testing.T) {
		date := "01/02/2024"
		w := doJSON(t, router, http.MethodPatch, base+"/", ContextRequest{IncidentDate: &date})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("narrative", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, base+"/narrative", NarrativeRequest{Content: "brief note"})
		require.Equal(t, http.StatusOK, w.Code)
		n := decode[NarrativeResponse](t, w)
		assert.Equal(t, 1, n.Revision)
		assert.Equal(t, len("brief note"), n.Length)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, router, http.MethodDelete, base+"/", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, router, http.MethodDelete, base+"/", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestEvidenceEndpoints(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	w := doJSON(t, router, http.MethodPut, "/applications/"+app.ID+"/screening", ScreeningRequest{
		Misdemeanors: "yes", Felonies: "no", Discipline: "no",
		Liens: "no", Judgments: "no", Bankruptcy: "no",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ScreeningResponse](t, w)
	require.Len(t, resp.CreatedIncidents, 1)
	incID := resp.CreatedIncidents[0]

	slotBase := fmt.Sprintf("/applications/%s/incidents/%s/slots", app.ID, incID)

	t.Run("upload assigns versions", func(t *testing.T) {
		uploadedAt := time.Date(2026, 4, 12, 10, 30, 0, 0, time.UTC)
		req := testutil.WithRequestTime(
			testutil.NewJSONRequest(t, http.MethodPost, slotBase+"/court-records/files", UploadRequest{
				OriginalName: "records.pdf", Size: 2048,
			}),
			uploadedAt,
		)
		w := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusCreated, w.Code)
		file := decode[FileResponse](t, w)
		assert.Equal(t, 1, file.Version)
		assert.True(t, file.Active)
		assert.True(t, file.UploadedAt.Equal(uploadedAt), "upload stamped with the request-scoped clock")

		w = doJSON(t, router, http.MethodPost, slotBase+"/court-records/files", UploadRequest{
			OriginalName: "records-fixed.pdf", Size: 4096,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 2, decode[FileResponse](t, w).Version)

		w = doJSON(t, router, http.MethodGet, slotBase+"/court-records/files", nil)
		require.Equal(t, http.StatusOK, w.Code)
		files := decode[[]FileResponse](t, w)
		require.Len(t, files, 2)
		assert.False(t, files[0].Active)
		assert.True(t, files[1].Active)
	})

	t.Run("upload without extension rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, slotBase+"/court-records/files", UploadRequest{
			OriginalName: "records", Size: 10,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("waive and unwaive", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, slotBase+"/police-report/waive", WaiveRequest{Reason: "agency_closed"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodDelete, slotBase+"/police-report/waive", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-waivable slot rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, slotBase+"/court-records/waive", WaiveRequest{Reason: "agency_closed"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPhaseEndpoints(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	t.Run("complete with unmet predicate rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/applications/"+app.ID+"/phases/complete", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("form save then complete", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPatch, "/applications/"+app.ID+"/form", FormRequest{
			Fields: map[string]string{"applicant_name": "Dana Reyes", "email": "dana@example.com"},
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodPost, "/applications/"+app.ID+"/phases/complete", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[ApplicationResponse](t, w)
		assert.Equal(t, "qualifications", resp.ActivePhase)
		assert.Contains(t, resp.CompletedPhases, "start")
	})

	t.Run("navigate back", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/applications/"+app.ID+"/phases/navigate", NavigateRequest{Phase: "start"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "start", decode[ApplicationResponse](t, w).ActivePhase)
	})

	t.Run("navigate past frontier rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/applications/"+app.ID+"/phases/navigate", NavigateRequest{Phase: "payment"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSnapshotEndpoints(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	w := doJSON(t, router, http.MethodGet, "/applications/"+app.ID+"/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[snapshot.Snapshot](t, w)
	assert.Equal(t, app.ID, snap.ApplicationID.String())

	w = doJSON(t, router, http.MethodPost, "/applications/"+app.ID+"/snapshot", SaveSnapshotRequest{Data: snap.Data})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExternalEventEndpoint(t *testing.T) {
	router := newTestRouter(t)
	app := openApplication(t, router)

	t.Run("accepted", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/internal/events", ExternalEventRequest{
			ApplicationID:    app.ID,
			Kind:             "payment_confirmed",
			PaymentReference: "PAY-1",
		})
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/internal/events", ExternalEventRequest{
			ApplicationID: app.ID,
			Kind:          "mystery",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
