package gateway

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HeaderAdminKey carries the shared secret required on admin routes.
const HeaderAdminKey = "X-Admin-Key"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags every request with a correlation id, logs the outcome
// and feeds the duration histogram.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		elapsed := time.Since(start)
		// The route pattern keeps the metric label set bounded; raw paths
		// would mint a series per address.
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		s.metrics.ObserveRequest(route, r.Method, elapsed.Seconds())
		s.log.Info("request",
			"requestId", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"durationMs", elapsed.Milliseconds(),
		)
	})
}

// requireAdminKey gates admin routes behind the configured shared secret. An
// empty configured key disables the admin surface entirely.
func (s *Server) requireAdminKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.writeError(w, http.StatusForbidden, errors.New("admin surface disabled"))
			return
		}
		supplied := r.Header.Get(HeaderAdminKey)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.adminKey)) != 1 {
			s.writeError(w, http.StatusUnauthorized, errors.New("invalid admin key"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
