package checkout

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"intake/internal/intake/models"
	id "intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/httputil"
	"intake/pkg/requestcontext"
)

// ApplicationReader loads live application state for prefill.
type ApplicationReader interface {
	Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
}

// Handler builds the signed checkout redirect for the payment phase.
type Handler struct {
	apps    ApplicationReader
	tokens  *TokenService
	baseURL string
	logger  *slog.Logger
}

// NewHandler constructs a checkout handler with its dependencies.
func NewHandler(apps ApplicationReader, tokens *TokenService, baseURL string, logger *slog.Logger) *Handler {
	return &Handler{
		apps:    apps,
		tokens:  tokens,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Register mounts the checkout endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/applications/{applicationID}/checkout", h.HandleCheckout)
}

// HandleCheckout handles GET /applications/{applicationID}/checkout requests:
// mints a prefill token and redirects to the commerce URL for the requested
// product.
func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	appID, err := id.ParseApplicationID(chi.URLParam(r, "applicationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	product := r.URL.Query().Get("product")
	if product == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "product is required"))
		return
	}

	app, err := h.apps.Get(ctx, appID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if app.PaymentConfirmed {
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "payment is already confirmed"))
		return
	}

	prefill := map[string]string{}
	if v := app.Form.Field("business_name"); v != "" {
		prefill["business_name"] = v
	}
	token, err := h.tokens.Mint(app.ID, app.Form.Classification, prefill, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint checkout token",
			"request_id", requestID,
			"application_id", app.ID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint checkout token"))
		return
	}

	redirect, err := url.Parse(h.baseURL)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "checkout base URL is invalid"))
		return
	}
	q := redirect.Query()
	q.Set("product", product)
	q.Set("token", token)
	redirect.RawQuery = q.Encode()

	h.logger.InfoContext(ctx, "checkout redirect issued",
		"request_id", requestID,
		"application_id", app.ID,
		"product", product,
	)
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}
