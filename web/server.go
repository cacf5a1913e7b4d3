package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
	"github.com/shaurya-ahuja/autoswing-trading-suite/strategy"
)

// Server exposes the strategy registry over JSON HTTP: run status, ledger
// snapshots, recent fills, and start/stop control.
type Server struct {
	router   *http.ServeMux
	server   *http.Server
	registry *strategy.Registry
	ticks    market.TickSource
	log      *logger.Logger
}

func NewServer(addr string, registry *strategy.Registry, ticks market.TickSource, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{
		router:   http.NewServeMux(),
		registry: registry,
		ticks:    ticks,
		log:      log,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Runs
	s.router.HandleFunc("GET /runs", s.handleListRuns)
	s.router.HandleFunc("POST /runs/grid", s.handleStartGrid)
	s.router.HandleFunc("POST /runs/dca", s.handleStartDCA)
	s.router.HandleFunc("POST /runs/{symbol}/{mode}/stop", s.handleStopRun)

	// Per-run views
	s.router.HandleFunc("GET /runs/{symbol}/{mode}/status", s.handleRunStatus)
	s.router.HandleFunc("GET /runs/{symbol}/{mode}/snapshot", s.handleRunSnapshot)
	s.router.HandleFunc("GET /runs/{symbol}/{mode}/fills", s.handleRunFills)
	s.router.HandleFunc("GET /runs/{symbol}/{mode}/levels", s.handleRunLevels)
	s.router.HandleFunc("GET /runs/{symbol}/{mode}/checkpoints", s.handleRunCheckpoints)

	// Market data
	s.router.HandleFunc("GET /ticks/{symbol}", s.handleLastTick)

	// Health
	s.router.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ListenAndServe fails. Call from its own goroutine.
func (s *Server) Start() error {
	s.log.WithComponent("web").Info("status server listening on " + s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
