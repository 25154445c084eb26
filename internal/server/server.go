// Package server exposes the task analyzer over HTTP. Stateless analysis
// endpoints mirror the offline CLI path; stored-task endpoints run the same
// scoring pipeline against the SQLite store.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/rs/cors"

	"github.com/triagekit/triage/internal/calendar"
	"github.com/triagekit/triage/internal/scoring"
	"github.com/triagekit/triage/internal/store"
	"github.com/triagekit/triage/internal/telemetry"
)

// Config holds the server's runtime configuration.
type Config struct {
	// Port to listen on. Zero asks the OS for a free port.
	Port int
	// DefaultStrategy is used when a request names none.
	DefaultStrategy string
	// ConsiderWeekends toggles working-day urgency unless a request
	// overrides it.
	ConsiderWeekends bool
	// Calendar supplies the holiday set for working-day counting.
	// Nil uses the default US holidays.
	Calendar *calendar.Calendar
	// TopN caps the suggest endpoint's list. Zero means 3.
	TopN int
}

// Server serves the triage HTTP API.
type Server struct {
	cfg     Config
	store   *store.Store
	emitter *telemetry.Emitter
	srv     *http.Server
	ln      net.Listener
}

// New creates a Server. The store may be nil, in which case the stored-task
// and feedback endpoints respond 503. A nil emitter disables telemetry.
func New(cfg Config, st *store.Store, emitter *telemetry.Emitter) *Server {
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = scoring.StrategySmartBalance
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	return &Server{cfg: cfg, store: st, emitter: emitter}
}

// Handler builds the routed, CORS-wrapped handler. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/tasks/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/tasks/suggest", s.handleSuggest)
	mux.HandleFunc("POST /api/tasks/suggest", s.handleSuggest)
	mux.HandleFunc("POST /api/tasks/graph", s.handleGraph)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/ranked", s.handleRanked)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)

	mux.HandleFunc("POST /api/feedback", s.handleAddFeedback)
	mux.HandleFunc("GET /api/feedback/stats", s.handleFeedbackStats)

	mux.HandleFunc("GET /health", s.handleHealth)

	return cors.Default().Handler(mux)
}

// Start begins serving on the configured port. It blocks until the listener
// is ready to accept connections.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("server: listen on port %d: %w", s.cfg.Port, err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.Handler()}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server: serve error: %v\n", err)
		}
	}()

	s.emitter.Emit(telemetry.Event{ //nolint:errcheck // telemetry is best effort
		Kind: telemetry.KindServerStart,
		Data: map[string]string{"addr": ln.Addr().String()},
	})
	return nil
}

// Addr returns the listener address, useful for tests with port 0.
func (s *Server) Addr() net.Addr {
	if s.ln != nil {
		return s.ln.Addr()
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.emitter.Emit(telemetry.Event{Kind: telemetry.KindServerStop}) //nolint:errcheck // telemetry is best effort
	return s.srv.Shutdown(ctx)
}

// options builds scoring options for one request, honoring a per-request
// weekend override.
func (s *Server) options(weekends *bool) scoring.Options {
	opts := scoring.Options{
		ConsiderWeekends: s.cfg.ConsiderWeekends,
		Calendar:         s.cfg.Calendar,
	}
	if weekends != nil {
		opts.ConsiderWeekends = *weekends
	}
	return opts
}
