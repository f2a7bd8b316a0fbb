package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the standard {"message": ...} error body and counts
// the failure.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.errors.WithLabelValues(routeTemplate(r), strconv.Itoa(status)).Inc()
	writeJSON(w, status, map[string]string{"message": message})
}

// serverError logs the underlying cause and responds with a generic
// message; internals never reach the caller.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	s.writeError(w, r, http.StatusInternalServerError, "server error")
}

// routeTemplate returns the matched route pattern (not the raw path, to
// keep metric cardinality bounded).
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unknown"
}

// metricsMiddleware counts requests by method and route.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.WithLabelValues(r.Method, routeTemplate(r)).Inc()
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects requests over the configured budget.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.writeError(w, r, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
