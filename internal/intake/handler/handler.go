// Package handler exposes the intake engine over HTTP. Handlers stay thin:
// decode and validate, call the service, translate domain errors, log.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"intake/internal/intake/autosave"
	"intake/internal/intake/evidence"
	"intake/internal/intake/models"
	"intake/internal/intake/service"
	"intake/internal/intake/snapshot"
	id "intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
	"intake/pkg/requestcontext"
)

// Service defines the intake operations the handler depends on.
type Service interface {
	Open(ctx context.Context) (*models.Application, error)
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	UpdateForm(ctx context.Context, appID id.ApplicationID, patch service.FormPatch) (*models.Application, error)
	UpdateScreening(ctx context.Context, appID id.ApplicationID, answers models.ScreeningAnswers) ([]id.IncidentID, error)
	AddIncident(ctx context.Context, appID id.ApplicationID, cat models.Category, sub models.Subtype) (*models.Incident, error)
	RemoveIncident(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID) error
	UpdateIncidentContext(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, patch service.ContextPatch) (*models.Incident, error)
	Upload(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string, nf evidence.NewFile) (models.UploadedFile, error)
	Waive(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode, reason string) error
	Unwaive(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string) error
	ListFiles(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, slotCode string) ([]models.UploadedFile, error)
	SetNarrative(ctx context.Context, appID id.ApplicationID, incidentID id.IncidentID, content string) (*models.Narrative, error)
	Completion(ctx context.Context, appID id.ApplicationID) (*service.CompletionSummary, error)
	CompletePhase(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	Navigate(ctx context.Context, appID id.ApplicationID, target models.PhaseID) (*models.Application, error)
	Snapshot(ctx context.Context, appID id.ApplicationID) (*snapshot.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap snapshot.Snapshot) error
}

// Handler wires intake endpoints to the intake service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an intake handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts intake endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/applications", func(r chi.Router) {
		r.Post("/", h.HandleOpen)

		r.Route("/{applicationID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Get("/snapshot", h.HandleGetSnapshot)
			r.Post("/snapshot", h.HandleSaveSnapshot)
			r.Patch("/form", h.HandleUpdateForm)
			r.Put("/screening", h.HandleUpdateScreening)
			r.Get("/completion", h.HandleCompletion)
			r.Post("/phases/complete", h.HandleCompletePhase)
			r.Post("/phases/navigate", h.HandleNavigate)

			r.Route("/incidents", func(r chi.Router) {
				r.Post("/", h.HandleAddIncident)

				r.Route("/{incidentID}", func(r chi.Router) {
					r.Patch("/", h.HandleUpdateContext)
					r.Delete("/", h.HandleRemoveIncident)
					r.Put("/narrative", h.HandleSetNarrative)

					r.Route("/slots/{slotCode}", func(r chi.Router) {
						r.Get("/files", h.HandleListFiles)
						r.Post("/files", h.HandleUpload)
						r.Post("/waive", h.HandleWaive)
						r.Delete("/waive", h.HandleUnwaive)
					})
				})
			})
		})
	})
}

// HandleOpen handles POST /applications requests.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	app, err := h.service.Open(ctx)
	if err != nil {
		h.logError(ctx, "failed to open application", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromApplication(app))
}

// HandleGet handles GET /applications/{applicationID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	app, err := h.service.Get(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleGetSnapshot handles GET /applications/{applicationID}/snapshot
// requests, the resume path.
func (h *Handler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

// HandleSaveSnapshot handles POST /applications/{applicationID}/snapshot
// requests: an immediate, idempotent save that bypasses the debounce.
func (h *Handler) HandleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveSnapshotRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snap := snapshot.Snapshot{ApplicationID: appID, Data: req.Data}
	if err := h.service.SaveSnapshot(ctx, snap); err != nil {
		h.logError(ctx, "failed to save snapshot", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// HandleUpdateForm handles PATCH /applications/{applicationID}/form requests.
func (h *Handler) HandleUpdateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[FormRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.UpdateForm(ctx, appID, req.Patch())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleUpdateScreening handles PUT /applications/{applicationID}/screening
// requests. The response reports which incidents the reconciliation created.
func (h *Handler) HandleUpdateScreening(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ScreeningRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.UpdateScreening(ctx, appID, req.Answers())
	if err != nil {
		h.logError(ctx, "failed to update screening", err)
		httputil.WriteError(w, err)
		return
	}
	app, err := h.service.Get(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ScreeningResponse{
		CreatedIncidents: make([]string, len(created)),
		Application:      FromApplication(app),
	}
	for n, incID := range created {
		resp.CreatedIncidents[n] = incID.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleAddIncident handles POST /applications/{applicationID}/incidents
// requests.
func (h *Handler) HandleAddIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddIncidentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inc, err := h.service.AddIncident(ctx, appID, models.Category(req.Category), models.Subtype(req.Subtype))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromIncident(inc))
}

// HandleUpdateContext handles PATCH
// /applications/{applicationID}/incidents/{incidentID} requests.
func (h *Handler) HandleUpdateContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, incidentID, ok := h.incidentIDs(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ContextRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inc, err := h.service.UpdateIncidentContext(ctx, appID, incidentID, req.Patch())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromIncident(inc))
}

// HandleRemoveIncident handles DELETE
// /applications/{applicationID}/incidents/{incidentID} requests.
func (h *Handler) HandleRemoveIncident(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, incidentID, ok := h.incidentIDs(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveIncident(ctx, appID, incidentID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetNarrative handles PUT
// /applications/{applicationID}/incidents/{incidentID}/narrative requests.
func (h *Handler) HandleSetNarrative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, incidentID, ok := h.incidentIDs(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[NarrativeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	n, err := h.service.SetNarrative(ctx, appID, incidentID, req.Content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NarrativeResponse{
		Content:   n.Content,
		Length:    len([]rune(n.Content)),
		Revision:  n.Revision,
		UpdatedAt: n.UpdatedAt,
	})
}

// HandleListFiles handles GET .../slots/{slotCode}/files requests.
func (h *Handler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, incidentID, ok := h.incidentIDs(w, r)
	if !ok {
		return
	}
	slotCode := chi.URLParam(r, "slotCode")

	files, err := h.service.ListFiles(ctx, appID, incidentID, slotCode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFiles(files))
}

// HandleUpload handles POST .../slots/{slotCode}/files requests.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, incidentID, ok := h.incidentIDs(w, r)
	if !ok {
		return
	}
	slotCode := chi.URLParam(r, "slotCode")

	req, ok := httputil.DecodeAndPrepare[UploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	file, err := h.service.Upload(ctx, appID, incidentID, slotCode, evidence.NewFile{
		OriginalName: req.OriginalName,
		Extension:    req.Extension(),
		Size:         req.Size,
		UploadedAt:   requestcontext.Now(ctx),
	})
	if err != nil {
		h.logError(ctx, "failed to record upload", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromFile(file))
}

// HandleWaive handles POST .../slots/{slotCode}/waive requests.
func (h *Handler) HandleWaive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, incidentID, ok := h.incidentIDs(w, r)
	if !ok {
		return
	}
	slotCode := chi.URLParam(r, "slotCode")

	req, ok := httputil.DecodeAndPrepare[WaiveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Waive(ctx, appID, incidentID, slotCode, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "waived"})
}

// HandleUnwaive handles DELETE .../slots/{slotCode}/waive requests.
func (h *Handler) HandleUnwaive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, incidentID, ok := h.incidentIDs(w, r)
	if !ok {
		return
	}
	slotCode := chi.URLParam(r, "slotCode")

	if err := h.service.Unwaive(ctx, appID, incidentID, slotCode); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "missing"})
}

// HandleCompletion handles GET /applications/{applicationID}/completion
// requests.
func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Completion(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCompletion(summary))
}

// HandleCompletePhase handles POST
// /applications/{applicationID}/phases/complete requests.
func (h *Handler) HandleCompletePhase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	app, err := h.service.CompletePhase(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

// HandleNavigate handles POST /applications/{applicationID}/phases/navigate
// requests.
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	appID, ok := h.applicationID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[NavigateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	app, err := h.service.Navigate(ctx, appID, models.PhaseID(req.Phase))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplication(app))
}

func (h *Handler) applicationID(w http.ResponseWriter, r *http.Request) (id.ApplicationID, bool) {
	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, false
	}
	return appID, true
}

func (h *Handler) incidentIDs(w http.ResponseWriter, r *http.Request) (id.ApplicationID, id.IncidentID, bool) {
	appID, ok := h.applicationID(w, r)
	if !ok {
		return id.ApplicationID{}, id.IncidentID{}, false
	}
	incidentID, err := id.ParseIncidentID(chi.URLParam(r, "incidentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ApplicationID{}, id.IncidentID{}, false
	}
	return appID, incidentID, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

var _ Service = (*service.Service)(nil)

// ExternalEventHandler accepts out-of-band events (payment confirmations,
// status changes) from internal systems and queues them for reconciliation.
type ExternalEventHandler struct {
	pipeline *autosave.Pipeline
	logger   *slog.Logger
}

// NewExternalEventHandler constructs the internal events handler.
func NewExternalEventHandler(pipeline *autosave.Pipeline, logger *slog.Logger) *ExternalEventHandler {
	return &ExternalEventHandler{pipeline: pipeline, logger: logger}
}

// Register mounts the internal events endpoint on the router.
func (h *ExternalEventHandler) Register(r chi.Router) {
	r.Post("/internal/events", h.HandleEvent)
}

// ExternalEventRequest is the HTTP request body for POST /internal/events.
type ExternalEventRequest struct {
	ApplicationID    string `json:"application_id"`
	Kind             string `json:"kind"`
	PaymentReference string `json:"payment_reference,omitempty"`
	Status           string `json:"status,omitempty"`

	parsedAppID id.ApplicationID
}

// Validate checks the event kind and parses the application ID.
func (r *ExternalEventRequest) Validate() error {
	appID, err := id.ParseApplicationID(r.ApplicationID)
	if err != nil {
		return err
	}
	r.parsedAppID = appID

	switch autosave.EventKind(r.Kind) {
	case autosave.EventPaymentConfirmed, autosave.EventStatusChanged:
		return nil
	}
	return dErrors.Newf(dErrors.CodeValidation, "event kind %q is not recognized", r.Kind)
}

// HandleEvent handles POST /internal/events requests. Accepted events are
// queued; reconciliation is asynchronous.
func (h *ExternalEventHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ExternalEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	h.pipeline.QueueExternal(autosave.ExternalEvent{
		ApplicationID:    req.parsedAppID,
		Kind:             autosave.EventKind(req.Kind),
		PaymentReference: req.PaymentReference,
		Status:           models.ApplicationStatus(req.Status),
	})
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
