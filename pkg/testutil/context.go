package testutil

import (
	"net/http"
	"time"

	id "intake/pkg/domain"
	"intake/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock. Handlers stamp uploads and
// saves with requestcontext.Now, so tests use this to make timestamps
// deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID injects a request ID, simulating the request ID middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithApplicationID scopes the request to an application so emitted audit
// events carry it. Invalid IDs are silently ignored.
func WithApplicationID(req *http.Request, appID string) *http.Request {
	parsed, err := id.ParseApplicationID(appID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithApplicationID(req.Context(), parsed))
}
