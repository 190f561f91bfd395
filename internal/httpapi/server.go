package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"trading-journal-go/internal/journal"
)

// APIServer provides an HTTP interface to the journal.
type APIServer struct {
	server    *http.Server
	handler   *Handler
	logger    *zap.Logger
	startTime time.Time
}

// NewAPIServer creates a new APIServer listening on port.
func NewAPIServer(port int, svc *journal.Service, logger *zap.Logger) *APIServer {
	s := &APIServer{
		handler:   NewHandler(svc, logger),
		logger:    logger.Named("api-server"),
		startTime: time.Now(),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *APIServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Get("/status", s.statusHandler)

	r.Route("/api/accounts", func(r chi.Router) {
		r.Get("/", s.handler.ListAccounts)
		r.Post("/", s.handler.CreateAccount)

		r.Route("/{accountID}", func(r chi.Router) {
			r.Get("/", s.handler.GetAccount)
			r.Patch("/", s.handler.UpdateAccount)
			r.Delete("/", s.handler.DeleteAccount)
			r.Get("/statistics", s.handler.Statistics)

			r.Get("/entries", s.handler.ListEntries)
			r.Post("/entries", s.handler.CreateEntry)
			r.Patch("/entries/{entryID}", s.handler.UpdateEntry)
			r.Delete("/entries/{entryID}", s.handler.DeleteEntry)
		})
	})
	return r
}

// Start runs the HTTP server in a new goroutine.
func (s *APIServer) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Backend   string `json:"backend"`
		StartTime string `json:"start_time"`
		Uptime    string `json:"uptime"`
	}{
		Backend:   string(s.handler.svc.Kind()),
		StartTime: s.startTime.Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("Failed to write status response", zap.Error(err))
		http.Error(w, "Failed to encode status", http.StatusInternalServerError)
	}
}

func (s *APIServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}
