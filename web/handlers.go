package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shaurya-ahuja/autoswing-trading-suite/grid"
	"github.com/shaurya-ahuja/autoswing-trading-suite/sim"
	"github.com/shaurya-ahuja/autoswing-trading-suite/strategy"
)

func parseMode(raw string) (sim.Mode, error) {
	switch strings.ToUpper(raw) {
	case string(sim.ModeGrid):
		return sim.ModeGrid, nil
	case string(sim.ModeDCA):
		return sim.ModeDCA, nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// lookup resolves the {symbol}/{mode} path segments to a controller.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*strategy.Controller, bool) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	mode, err := parseMode(r.PathValue("mode"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	ctrl, ok := s.registry.Get(symbol, mode)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no %s %s run", symbol, mode))
		return nil, false
	}
	return ctrl, true
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleStartGrid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol           string  `json:"symbol"`
		Levels           int     `json:"levels"`
		LowerBound       float64 `json:"lower_bound"`
		UpperBound       float64 `json:"upper_bound"`
		Spacing          string  `json:"spacing"`
		PerLevelNotional float64 `json:"per_level_notional"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := strategy.Config{
		Symbol: strings.ToUpper(req.Symbol),
		Mode:   sim.ModeGrid,
		Grid: &strategy.GridParams{
			LowerBound:       req.LowerBound,
			UpperBound:       req.UpperBound,
			Levels:           req.Levels,
			Spacing:          grid.Spacing(req.Spacing),
			PerLevelNotional: req.PerLevelNotional,
		},
	}
	s.startRun(w, r, cfg)
}

func (s *Server) handleStartDCA(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol      string  `json:"symbol"`
		Intervals   int     `json:"intervals"`
		TotalAmount float64 `json:"total_amount"`
		Period      string  `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := strategy.Config{
		Symbol: strings.ToUpper(req.Symbol),
		Mode:   sim.ModeDCA,
		DCA: &strategy.DCAParams{
			Intervals:   req.Intervals,
			TotalAmount: req.TotalAmount,
		},
	}
	if req.Period != "" {
		period, err := time.ParseDuration(req.Period)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("period: %w", err))
			return
		}
		cfg.DCA.Period = period
	}
	s.startRun(w, r, cfg)
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request, cfg strategy.Config) {
	// Runs outlive the request; they stop via the registry, not the
	// request context.
	ctrl, err := s.registry.Start(context.Background(), cfg)
	if err != nil {
		var running *strategy.AlreadyRunningError
		if errors.As(err, &running) {
			s.writeError(w, http.StatusConflict, err)
			return
		}
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"run":    ctrl.RunID(),
		"symbol": cfg.Symbol,
		"mode":   cfg.Mode,
	}).Info("run started via api")
	s.writeJSON(w, http.StatusCreated, ctrl.Status())
}

func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := ctrl.Stop(); err != nil {
		var timeout *strategy.ShutdownTimeoutError
		if errors.As(err, &timeout) {
			s.writeError(w, http.StatusGatewayTimeout, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ctrl.Status())
}

func (s *Server) handleRunSnapshot(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleRunFills(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("limit %q: must be a positive integer", raw))
			return
		}
		limit = n
	}
	fills := ctrl.RecentFills(limit)
	if fills == nil {
		fills = []sim.Fill{}
	}
	s.writeJSON(w, http.StatusOK, fills)
}

func (s *Server) handleRunLevels(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ctrl.Levels())
}

func (s *Server) handleRunCheckpoints(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ctrl.Checkpoints())
}

func (s *Server) handleLastTick(w http.ResponseWriter, r *http.Request) {
	if s.ticks == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no tick source configured"))
		return
	}
	symbol := strings.ToUpper(r.PathValue("symbol"))
	tick, err := s.ticks.GetTick(r.Context(), symbol)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tick)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
