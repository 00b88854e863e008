package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldservice/jobvisit/pkg/requestid"
)

// RequestID takes the request ID from the x-request-id header, falls back
// to the one chi generated, or creates a new one, and stores it in the
// request context. The ID is echoed back on the response so clients can
// correlate autosave failures with server logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestid.Header)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = requestid.Generate()
		}

		w.Header().Set(requestid.Header, requestID)
		next.ServeHTTP(w, r.WithContext(requestid.ToContext(r.Context(), requestID)))
	})
}
