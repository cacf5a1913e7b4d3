package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shaurya-ahuja/autoswing-trading-suite/dca"
	"github.com/shaurya-ahuja/autoswing-trading-suite/grid"
	"github.com/shaurya-ahuja/autoswing-trading-suite/id"
	"github.com/shaurya-ahuja/autoswing-trading-suite/journal"
	"github.com/shaurya-ahuja/autoswing-trading-suite/logger"
	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
	"github.com/sirupsen/logrus"
)

// Mode selects which ladder drives the engine.
type Mode string

const (
	ModeGrid Mode = "GRID"
	ModeDCA  Mode = "DCA"
)

type EngineConfig struct {
	RunID            string
	Symbol           string
	Mode             Mode
	PerLevelNotional float64       // quote spent per grid level fill
	StaleAfter       time.Duration // feed silence before evaluation pauses
	Grace            time.Duration // window a due checkpoint may wait for a price
}

// Status is a read-only view of the engine's runtime condition.
type Status struct {
	Symbol    string    `json:"symbol"`
	Mode      Mode      `json:"mode"`
	Stalled   bool      `json:"stalled"`
	LastTick  time.Time `json:"last_tick"`
	LastPrice float64   `json:"last_price"`
	Skipped   int       `json:"skipped"`
}

// Engine is the simulated matching core. It consumes ticks, decides which
// grid levels or DCA checkpoints fire, synthesizes fills and hands them to
// the ledger. All evaluation for a run happens in tick-arrival order under
// one mutex; snapshot reads copy state and never hold the lock across I/O.
//
// Nothing here talks to an exchange. That absence is a contract: the engine
// has no order-submission dependency to call.
type Engine struct {
	mu      sync.Mutex
	cfg     EngineConfig
	ladder  *grid.Ladder
	sched   *dca.Schedule
	ledger  *Ledger
	journal journal.Journal
	log     *logrus.Entry

	prev     float64
	havePrev bool
	lastTick time.Time
	stalled  bool
	skipped  int
}

func NewEngine(cfg EngineConfig, ladder *grid.Ladder, sched *dca.Schedule, ledger *Ledger, j journal.Journal, log *logger.Logger) (*Engine, error) {
	switch cfg.Mode {
	case ModeGrid:
		if ladder == nil {
			return nil, fmt.Errorf("grid mode requires a ladder")
		}
	case ModeDCA:
		if sched == nil {
			return nil, fmt.Errorf("dca mode requires a schedule")
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if j == nil {
		j = journal.Nop{}
	}

	return &Engine{
		cfg:     cfg,
		ladder:  ladder,
		sched:   sched,
		ledger:  ledger,
		journal: j,
		log:     log.WithComponent("engine").WithFields(logrus.Fields{"symbol": cfg.Symbol, "run_id": cfg.RunID}),
	}, nil
}

// OnTick advances the engine by one price observation. The first tick arms
// the ladder around the observed price and produces no fills. Grid levels
// fire when the interval between the previous and current price contains an
// armed level; a gap spanning several levels fires them all, nearest the
// previous price first, so the ladder never skips a level silently.
func (e *Engine) OnTick(t market.Tick) error {
	e.mu.Lock()
	if t.Symbol != e.cfg.Symbol {
		e.mu.Unlock()
		return nil
	}

	if e.stalled {
		e.stalled = false
		e.log.WithField("gap", t.Time.Sub(e.lastTick).String()).Info("feed resumed")
	}
	e.lastTick = t.Time

	if !e.havePrev {
		e.havePrev = true
		e.prev = t.Price
		if e.cfg.Mode == ModeGrid {
			e.ladder.Arm(t.Price)
		}
		err := e.recordEquityLocked(t.Time, t.Price)
		e.mu.Unlock()
		return err
	}

	prev := e.prev
	e.prev = t.Price

	if e.cfg.Mode == ModeGrid && t.Price != prev {
		if err := e.evaluateLocked(prev, t.Price, t.Time); err != nil {
			e.mu.Unlock()
			return err
		}
	}

	err := e.recordEquityLocked(t.Time, t.Price)
	e.mu.Unlock()
	return err
}

// evaluateLocked fires every armed level whose price lies in the closed
// interval swept by the move. Upward moves use (prev, curr], downward moves
// use [curr, prev), so a tick that lands exactly on a level fires it once
// and boundary jitter cannot fire it again.
func (e *Engine) evaluateLocked(prev, curr float64, ts time.Time) error {
	if curr > prev {
		for i := 0; i < e.ladder.Len(); i++ {
			lv := e.ladder.Level(i)
			if lv.Price <= prev || lv.Price > curr {
				continue
			}
			if lv.Side == grid.SideSell && lv.Status == grid.StatusArmed {
				if err := e.fireSellLocked(lv, ts); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for i := e.ladder.Len() - 1; i >= 0; i-- {
		lv := e.ladder.Level(i)
		if lv.Price >= prev || lv.Price < curr {
			continue
		}
		if lv.Side == grid.SideBuy && lv.Status == grid.StatusArmed {
			if err := e.fireBuyLocked(lv, ts); err != nil {
				return err
			}
		}
	}
	return nil
}

// fireBuyLocked buys the per-level notional at the level price. On success
// the level is spent and the sell trigger arms one level up carrying the
// bought quantity; the grid cycles when that sell releases it.
func (e *Engine) fireBuyLocked(lv *grid.Level, ts time.Time) error {
	qty := e.cfg.PerLevelNotional / lv.Price
	fill := Fill{
		ID:       id.New(),
		Symbol:   e.cfg.Symbol,
		Side:     SideBuy,
		Price:    lv.Price,
		Quantity: qty,
		Time:     ts,
		Source:   Source{Kind: SourceLevel, Index: lv.Index},
	}

	if err := e.ledger.Apply(fill); err != nil {
		var insufficient *InsufficientBalanceError
		if errors.As(err, &insufficient) {
			// Non-fatal: leave the level armed and move on.
			e.skipped++
			e.log.WithError(err).WithField("level", lv.Index).Warn("buy skipped")
			return e.journal.RecordFill(e.fillRecord(fill, journal.StatusSkipped, err.Error()))
		}
		return err
	}

	lv.Status = grid.StatusFilled
	if lv.Index+1 < e.ladder.Len() {
		up := e.ladder.Level(lv.Index + 1)
		up.Side = grid.SideSell
		up.Status = grid.StatusArmed
		up.HeldQty += qty
	}

	e.log.WithFields(logrus.Fields{"level": lv.Index, "price": lv.Price, "qty": qty}).Info("grid buy filled")
	return e.journal.RecordFill(e.fillRecord(fill, journal.StatusFilled, ""))
}

// fireSellLocked releases the quantity held by an armed sell at its level
// price and re-arms the buy one level down.
func (e *Engine) fireSellLocked(lv *grid.Level, ts time.Time) error {
	if lv.HeldQty <= 0 {
		return nil
	}
	fill := Fill{
		ID:       id.New(),
		Symbol:   e.cfg.Symbol,
		Side:     SideSell,
		Price:    lv.Price,
		Quantity: lv.HeldQty,
		Time:     ts,
		Source:   Source{Kind: SourceLevel, Index: lv.Index},
	}

	if err := e.ledger.Apply(fill); err != nil {
		var overdraft *OverdraftError
		if errors.As(err, &overdraft) {
			e.skipped++
			e.log.WithError(err).WithField("level", lv.Index).Warn("sell skipped")
			return e.journal.RecordFill(e.fillRecord(fill, journal.StatusSkipped, err.Error()))
		}
		return err
	}

	lv.HeldQty = 0
	lv.Side = grid.SideNeutral
	lv.Status = grid.StatusFilled
	if lv.Index > 0 {
		down := e.ladder.Level(lv.Index - 1)
		down.Side = grid.SideBuy
		down.Status = grid.StatusArmed
	}

	e.log.WithFields(logrus.Fields{"level": lv.Index, "price": lv.Price, "qty": fill.Quantity}).Info("grid sell filled")
	return e.journal.RecordFill(e.fillRecord(fill, journal.StatusFilled, ""))
}

// PollDCA executes every due checkpoint at the latest known price. A
// checkpoint overdue by more than the grace window with no usable price is
// skipped and reported, never retried.
func (e *Engine) PollDCA(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.Mode != ModeDCA {
		return nil
	}

	for _, i := range e.sched.Due(now) {
		cp := e.sched.Checkpoint(i)

		if !e.havePrev || e.stalled {
			if now.Sub(cp.DueAt) > e.cfg.Grace {
				cp.Status = dca.StatusSkipped
				e.skipped++
				e.log.WithField("checkpoint", i).Warn("checkpoint skipped: no fresh price within grace window")
				rec := journal.FillRecord{
					FillID: id.New(),
					RunID:  e.cfg.RunID,
					Symbol: e.cfg.Symbol,
					Side:   string(SideBuy),
					Source: Source{Kind: SourceCheckpoint, Index: i}.String(),
					Time:   now,
					Status: journal.StatusSkipped,
					Reason: "no fresh price within grace window",
				}
				if err := e.journal.RecordFill(rec); err != nil {
					return err
				}
			}
			continue
		}

		price := e.prev
		fill := Fill{
			ID:       id.New(),
			Symbol:   e.cfg.Symbol,
			Side:     SideBuy,
			Price:    price,
			Quantity: cp.Amount / price,
			Time:     now,
			Source:   Source{Kind: SourceCheckpoint, Index: i},
		}

		if err := e.ledger.Apply(fill); err != nil {
			var insufficient *InsufficientBalanceError
			if errors.As(err, &insufficient) {
				cp.Status = dca.StatusSkipped
				e.skipped++
				e.log.WithError(err).WithField("checkpoint", i).Warn("checkpoint skipped")
				if jerr := e.journal.RecordFill(e.fillRecord(fill, journal.StatusSkipped, err.Error())); jerr != nil {
					return jerr
				}
				continue
			}
			return err
		}

		cp.Status = dca.StatusExecuted
		e.log.WithFields(logrus.Fields{"checkpoint": i, "price": price, "amount": cp.Amount}).Info("dca buy filled")
		if err := e.journal.RecordFill(e.fillRecord(fill, journal.StatusFilled, "")); err != nil {
			return err
		}
	}
	return nil
}

// CheckStale pauses evaluation when no tick has arrived within the timeout.
// The returned StaleFeedError is a status signal, not a run-stopper; fresh
// ticks clear the condition automatically.
func (e *Engine) CheckStale(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.StaleAfter <= 0 || !e.havePrev || e.stalled {
		return nil
	}
	if now.Sub(e.lastTick) <= e.cfg.StaleAfter {
		return nil
	}

	e.stalled = true
	err := &StaleFeedError{Symbol: e.cfg.Symbol, LastTick: e.lastTick, Timeout: e.cfg.StaleAfter}
	e.log.WithError(err).Warn("feed stalled, evaluation paused")
	return err
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Symbol:    e.cfg.Symbol,
		Mode:      e.cfg.Mode,
		Stalled:   e.stalled,
		LastTick:  e.lastTick,
		LastPrice: e.prev,
		Skipped:   e.skipped,
	}
}

// Snapshot marks the portfolio at the latest observed price.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	price := e.prev
	e.mu.Unlock()
	return e.ledger.Snapshot(price)
}

// RecentFills returns up to limit applied fills, newest first.
func (e *Engine) RecentFills(limit int) []Fill {
	return e.ledger.RecentFills(limit)
}

// Levels returns a copy of the ladder state, or nil in DCA mode.
func (e *Engine) Levels() []grid.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ladder == nil {
		return nil
	}
	return e.ladder.Levels()
}

// Checkpoints returns a copy of the schedule state, or nil in grid mode.
func (e *Engine) Checkpoints() []dca.Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched == nil {
		return nil
	}
	return e.sched.Checkpoints()
}

func (e *Engine) fillRecord(f Fill, status, reason string) journal.FillRecord {
	return journal.FillRecord{
		FillID:   f.ID,
		RunID:    e.cfg.RunID,
		Symbol:   f.Symbol,
		Side:     string(f.Side),
		Price:    f.Price,
		Quantity: f.Quantity,
		Source:   f.Source.String(),
		Time:     f.Time,
		Status:   status,
		Reason:   reason,
	}
}

func (e *Engine) recordEquityLocked(ts time.Time, price float64) error {
	snap := e.ledger.Snapshot(price)
	return e.journal.RecordEquity(journal.EquitySnapshot{
		Time:          ts,
		RunID:         e.cfg.RunID,
		Symbol:        e.cfg.Symbol,
		Cash:          snap.Cash,
		Quantity:      snap.Position.Quantity,
		RealizedPnL:   snap.RealizedPnL,
		UnrealizedPnL: snap.UnrealizedPnL,
		Equity:        snap.TotalEquity,
	})
}
