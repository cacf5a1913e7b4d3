package strategy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shaurya-ahuja/autoswing-trading-suite/journal"
	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
	"github.com/shaurya-ahuja/autoswing-trading-suite/sim"
)

// AlreadyRunningError rejects a second concurrent run for the same
// symbol and mode.
type AlreadyRunningError struct {
	Symbol string
	Mode   sim.Mode
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("%s %s run already active", e.Symbol, e.Mode)
}

type runKey struct {
	symbol string
	mode   sim.Mode
}

// Registry hands out controllers and enforces at most one RUNNING strategy
// per (symbol, mode) pair. Grid and DCA on the same symbol may coexist; each
// run keeps its own ledger.
type Registry struct {
	mu      sync.Mutex
	runs    map[runKey]*Controller
	feed    market.Feed
	journal journal.Journal
	log     *logger.Logger
	opts    Options
}

func NewRegistry(feed market.Feed, j journal.Journal, log *logger.Logger, opts Options) *Registry {
	return &Registry{
		runs:    make(map[runKey]*Controller),
		feed:    feed,
		journal: j,
		log:     log,
		opts:    opts,
	}
}

// Start launches a run for cfg's (symbol, mode) slot, reusing a stopped
// controller if one exists.
func (r *Registry) Start(ctx context.Context, cfg Config) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := runKey{symbol: cfg.Symbol, mode: cfg.Mode}
	ctrl, ok := r.runs[key]
	if ok && ctrl.State() == StateRunning {
		return nil, &AlreadyRunningError{Symbol: cfg.Symbol, Mode: cfg.Mode}
	}
	if !ok {
		ctrl = NewController(r.feed, r.journal, r.log, r.opts)
	}
	if err := ctrl.Start(ctx, cfg); err != nil {
		return nil, err
	}
	r.runs[key] = ctrl
	return ctrl, nil
}

// Get looks up the controller for a (symbol, mode) slot.
func (r *Registry) Get(symbol string, mode sim.Mode) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctrl, ok := r.runs[runKey{symbol: symbol, mode: mode}]
	return ctrl, ok
}

// Stop drains the run in the given slot. Missing slots are a no-op.
func (r *Registry) Stop(symbol string, mode sim.Mode) error {
	ctrl, ok := r.Get(symbol, mode)
	if !ok {
		return nil
	}
	return ctrl.Stop()
}

// StopAll stops every controller, collecting the first error but attempting
// all of them.
func (r *Registry) StopAll() error {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.runs))
	for _, c := range r.runs {
		ctrls = append(ctrls, c)
	}
	r.mu.Unlock()

	var first error
	for _, c := range ctrls {
		if err := c.Stop(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// List returns the status of every known run, ordered by symbol then mode
// so output is stable.
func (r *Registry) List() []RunStatus {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.runs))
	for _, c := range r.runs {
		ctrls = append(ctrls, c)
	}
	r.mu.Unlock()

	out := make([]RunStatus, 0, len(ctrls))
	for _, c := range ctrls {
		out = append(out, c.Status())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Config.Symbol != out[j].Config.Symbol {
			return out[i].Config.Symbol < out[j].Config.Symbol
		}
		return out[i].Config.Mode < out[j].Config.Mode
	})
	return out
}
