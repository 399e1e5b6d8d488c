package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-dictation-service/internal/app"
	"voice-dictation-service/internal/dictation"
)

// sessionStatus is the JSON body of the session status endpoint.
type sessionStatus struct {
	State     string `json:"state"`
	SessionID string `json:"sessionId,omitempty"`
	Uptime    string `json:"uptime"`
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application, ctrl *dictation.Controller) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", func(w http.ResponseWriter, _ *http.Request) {
			status := sessionStatus{
				State:     ctrl.State().String(),
				SessionID: ctrl.SessionID(),
				Uptime:    time.Since(application.StartupTime).Round(time.Second).String(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(status)
		})
	})

	return r
}
