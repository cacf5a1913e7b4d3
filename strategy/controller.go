package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shaurya-ahuja/autoswing-trading-suite/dca"
	"github.com/shaurya-ahuja/autoswing-trading-suite/grid"
	"github.com/shaurya-ahuja/autoswing-trading-suite/journal"
	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
	"github.com/shaurya-ahuja/autoswing-trading-suite/sim"
)

// State is the lifecycle phase of a Controller.
type State string

const (
	StateCreated State = "CREATED"
	StateRunning State = "RUNNING"
	StateStopped State = "STOPPED"
)

// ShutdownTimeoutError reports a stop request that could not drain the run
// loop within the bounded wait. The run loop may still be mid-flight; the
// controller stays RUNNING so the condition is never papered over.
type ShutdownTimeoutError struct {
	RunID  string
	Waited time.Duration
}

func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("run %s did not drain within %s", e.RunID, e.Waited)
}

// RunStatus is a point-in-time view of a controller and its engine.
type RunStatus struct {
	RunID       string       `json:"run_id"`
	State       State        `json:"state"`
	Config      Config       `json:"config"`
	Engine      sim.Status   `json:"engine"`
	Snapshot    sim.Snapshot `json:"snapshot"`
	RecentFills []sim.Fill   `json:"recent_fills"`
}

// Options tune the run loop. Zero values pick sane defaults.
type Options struct {
	PollEvery time.Duration // DCA/staleness checkpoint cadence
	StopWait  time.Duration // bounded drain when stopping
}

// Controller drives one strategy run: it owns the engine, subscribes to the
// feed and pumps ticks and timer events into the engine from a single
// goroutine. All state transitions are serialized through its mutex.
type Controller struct {
	mu      sync.Mutex
	state   State
	cfg     Config
	runID   string
	engine  *sim.Engine
	cancel  context.CancelFunc
	done    chan struct{}
	feed    market.Feed
	journal journal.Journal
	log     *logger.Logger
	opts    Options
}

// NewController wires a controller to its feed, journal and logger. The run
// itself begins on Start.
func NewController(feed market.Feed, j journal.Journal, log *logger.Logger, opts Options) *Controller {
	if opts.PollEvery <= 0 {
		opts.PollEvery = time.Second
	}
	if opts.StopWait <= 0 {
		opts.StopWait = 5 * time.Second
	}
	if j == nil {
		j = journal.Nop{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Controller{
		state:   StateCreated,
		feed:    feed,
		journal: j,
		log:     log,
		opts:    opts,
	}
}

// Start validates cfg, builds a fresh engine and ledger and launches the run
// loop. Allowed from CREATED or STOPPED; a RUNNING controller rejects it.
func (c *Controller) Start(ctx context.Context, cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return fmt.Errorf("run %s already running", c.runID)
	}

	cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}

	runID := uuid.NewString()

	var ladder *grid.Ladder
	var sched *dca.Schedule
	var err error
	var notional float64

	switch cfg.Mode {
	case sim.ModeGrid:
		ladder, err = grid.Build(cfg.Grid.LowerBound, cfg.Grid.UpperBound, cfg.Grid.Levels, cfg.Grid.Spacing)
		if err != nil {
			return err
		}
		notional = cfg.Grid.PerLevelNotional
	case sim.ModeDCA:
		sched, err = dca.Build(cfg.DCA.Intervals, cfg.DCA.TotalAmount, cfg.DCA.Period, cfg.CreatedAt)
		if err != nil {
			return err
		}
	}

	ledger := sim.NewLedger(cfg.Symbol, cfg.StartingCash)
	engine, err := sim.NewEngine(sim.EngineConfig{
		RunID:            runID,
		Symbol:           cfg.Symbol,
		Mode:             cfg.Mode,
		PerLevelNotional: notional,
		StaleAfter:       cfg.StaleAfter,
		Grace:            cfg.Grace,
	}, ladder, sched, ledger, c.journal, c.log)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	ticks, err := c.feed.Subscribe(runCtx, cfg.Symbol)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", cfg.Symbol, err)
	}

	c.cfg = cfg
	c.runID = runID
	c.engine = engine
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = StateRunning

	c.log.WithFields(logrus.Fields{
		"run":    runID,
		"symbol": cfg.Symbol,
		"mode":   cfg.Mode,
	}).Info("strategy run started")

	go c.loop(runCtx, ticks, engine, c.done)
	return nil
}

// loop is the single goroutine that touches the engine for the life of the
// run. Ticks and timer checkpoints are therefore naturally serialized.
func (c *Controller) loop(ctx context.Context, ticks <-chan market.Tick, e *sim.Engine, done chan struct{}) {
	defer close(done)

	poll := time.NewTicker(c.opts.PollEvery)
	defer poll.Stop()

	log := c.log.WithRun(c.runID)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-ticks:
			if !ok {
				log.Warn("tick feed closed, run loop exiting")
				return
			}
			if err := e.OnTick(t); err != nil {
				log.WithError(err).Error("tick processing failed")
			}
		case now := <-poll.C:
			if err := e.CheckStale(now); err != nil {
				log.WithError(err).Warn("feed is stale")
			}
			if err := e.PollDCA(now); err != nil {
				log.WithError(err).Error("dca checkpoint failed")
			}
		}
	}
}

// Stop cancels the run loop and waits for it to drain. A tick being applied
// when Stop is called finishes in full; partially applied fills cannot be
// observed because fills commit atomically under the ledger lock. If the
// loop does not exit within the bounded wait, Stop reports
// ShutdownTimeoutError and leaves the controller RUNNING.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return nil
	}

	c.cancel()
	select {
	case <-c.done:
	case <-time.After(c.opts.StopWait):
		return &ShutdownTimeoutError{RunID: c.runID, Waited: c.opts.StopWait}
	}

	c.state = StateStopped
	c.log.WithRun(c.runID).Info("strategy run stopped")
	return nil
}

// Reconfigure stops the current run if needed and starts a fresh one with
// the new parameters. Ledger and schedule state reset; the journal keeps the
// old run's records under its old run id.
func (c *Controller) Reconfigure(ctx context.Context, cfg Config) error {
	if err := c.Stop(); err != nil {
		return err
	}
	return c.Start(ctx, cfg)
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RunID returns the identifier of the current (or last) run.
func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Status assembles the full view: lifecycle state, engine status, portfolio
// snapshot and the most recent fills. Safe to call at any phase; before the
// first Start the engine fields are zero.
func (c *Controller) Status() RunStatus {
	c.mu.Lock()
	state, cfg, runID, engine := c.state, c.cfg, c.runID, c.engine
	c.mu.Unlock()

	st := RunStatus{RunID: runID, State: state, Config: cfg}
	if engine != nil {
		st.Engine = engine.Status()
		st.Snapshot = engine.Snapshot()
		st.RecentFills = engine.RecentFills(20)
	}
	return st
}

// Snapshot returns the current portfolio snapshot, or a zero snapshot before
// the first run starts.
func (c *Controller) Snapshot() sim.Snapshot {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return sim.Snapshot{}
	}
	return engine.Snapshot()
}

// RecentFills returns up to limit fills, newest first.
func (c *Controller) RecentFills(limit int) []sim.Fill {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return nil
	}
	return engine.RecentFills(limit)
}

// Levels exposes the grid ladder for status reporting. Nil outside grid mode.
func (c *Controller) Levels() []grid.Level {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return nil
	}
	return engine.Levels()
}

// Checkpoints exposes the DCA schedule for status reporting. Nil outside DCA
// mode.
func (c *Controller) Checkpoints() []dca.Checkpoint {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return nil
	}
	return engine.Checkpoints()
}
