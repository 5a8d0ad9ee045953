// Package server exposes a single liveness endpoint over net/http. It
// deliberately does not reach for the teacher's or pack's networking
// libraries: a health check has no protocol, payload, or routing
// complexity to justify anything beyond the standard library's http.Server
// and ServeMux.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iamNilotpal/ignitedb/internal/engine"
	"go.uber.org/zap"
)

// StatusProvider reports the engine's current status, or an error when the
// engine is not open.
type StatusProvider interface {
	Status() (engine.Status, error)
}

// Server hosts the GET /healthz liveness endpoint.
type Server struct {
	http *http.Server
	log  *zap.SugaredLogger
}

// New builds a Server bound to addr, backed by provider for its health
// reporting.
func New(addr string, provider StatusProvider, log *zap.SugaredLogger) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler(provider))

	return &Server{
		http: &http.Server{Addr: addr, Handler: mux},
		log:  log,
	}
}

func healthzHandler(provider StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := provider.Status()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

// ListenAndServe starts serving until the server is shut down. Intended to
// run in its own goroutine.
func (s *Server) ListenAndServe() error {
	s.log.Infow("liveness endpoint listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
