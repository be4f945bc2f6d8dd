package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake/internal/intake/models"
	"intake/internal/platform/logger"
	id "intake/pkg/domain"
	dErrors "intake/pkg/domain-errors"
)

type stubReader struct {
	app *models.Application
}

func (s *stubReader) Get(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	if s.app == nil || s.app.ID != appID {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return s.app, nil
}

func newCheckoutRouter(t *testing.T, app *models.Application) (http.Handler, *TokenService) {
	t.Helper()
	tokens := NewTokenService("test-signing-key", 15*time.Minute)
	r := chi.NewRouter()
	NewHandler(&stubReader{app: app}, tokens, "https://pay.example.com/checkout", logger.New()).Register(r)
	return r, tokens
}

func TestHandleCheckout(t *testing.T) {
	app := models.NewApplication("start", time.Now())
	app.Form.Classification = "C-10"
	app.Form.SetField("business_name", "Reyes Electric")
	router, tokens := newCheckoutRouter(t, app)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/applications/"+app.ID.String()+"/checkout?product=license-application", nil))
	require.Equal(t, http.StatusFound, w.Code)

	redirect, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "pay.example.com", redirect.Host)
	assert.Equal(t, "license-application", redirect.Query().Get("product"))

	// The token in the redirect round-trips through our own validator.
	claims, err := tokens.Validate(redirect.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, app.ID.String(), claims.ApplicationID)
	assert.Equal(t, "C-10", claims.Classification)
	assert.Equal(t, "Reyes Electric", claims.Prefill["business_name"])
}

func TestHandleCheckoutMissingProduct(t *testing.T) {
	app := models.NewApplication("start", time.Now())
	router, _ := newCheckoutRouter(t, app)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/applications/"+app.ID.String()+"/checkout", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCheckoutAlreadyPaid(t *testing.T) {
	app := models.NewApplication("start", time.Now())
	app.PaymentConfirmed = true
	router, _ := newCheckoutRouter(t, app)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/applications/"+app.ID.String()+"/checkout?product=license-application", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleCheckoutUnknownApplication(t *testing.T) {
	router, _ := newCheckoutRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/applications/"+id.NewApplicationID().String()+"/checkout?product=license-application", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCheckoutMalformedID(t *testing.T) {
	router, _ := newCheckoutRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/applications/nope/checkout?product=license-application", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
