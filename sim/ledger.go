package sim

import "sync"

// positionEpsilon absorbs float residue when a position is fully sold out.
const positionEpsilon = 1e-9

// Position is the open holding for the run's symbol.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
}

// Snapshot is a derived, read-only view of the ledger. It is computed on
// demand and never stored.
type Snapshot struct {
	Symbol        string   `json:"symbol"`
	Cash          float64  `json:"cash"`
	Position      Position `json:"position"`
	RealizedPnL   float64  `json:"realized_pnl"`
	UnrealizedPnL float64  `json:"unrealized_pnl"`
	TotalEquity   float64  `json:"total_equity"`
	TotalPnL      float64  `json:"total_pnl"`
	FillCount     int      `json:"fill_count"`
}

// Ledger applies fills to simulated balances using average-cost accounting.
//
// Apply is idempotent per fill ID: the engine delivers at least once, the
// ledger applies exactly once. The fill log is append-only for the run's
// lifetime.
type Ledger struct {
	mu          sync.Mutex
	symbol      string
	cash        float64
	initialCash float64
	qty         float64
	avgEntry    float64
	realized    float64
	applied     map[string]struct{}
	fills       []Fill
}

func NewLedger(symbol string, startingCash float64) *Ledger {
	return &Ledger{
		symbol:      symbol,
		cash:        startingCash,
		initialCash: startingCash,
		applied:     make(map[string]struct{}),
	}
}

// Apply updates balances with a fill. A fill ID seen before is a no-op.
// BUY recomputes the average entry as the weighted average of the existing
// position and the new fill; SELL realizes quantity*(price - avgEntry).
func (l *Ledger) Apply(f Fill) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.applied[f.ID]; ok {
		return nil
	}

	switch f.Side {
	case SideBuy:
		cost := f.Notional()
		if cost > l.cash+positionEpsilon {
			return &InsufficientBalanceError{Symbol: l.symbol, Need: cost, Cash: l.cash}
		}
		newQty := l.qty + f.Quantity
		l.avgEntry = (l.avgEntry*l.qty + f.Price*f.Quantity) / newQty
		l.qty = newQty
		l.cash -= cost

	case SideSell:
		if f.Quantity > l.qty+positionEpsilon {
			return &OverdraftError{Symbol: l.symbol, Sell: f.Quantity, Held: l.qty}
		}
		l.realized += f.Quantity * (f.Price - l.avgEntry)
		l.qty -= f.Quantity
		l.cash += f.Notional()
		if l.qty < positionEpsilon {
			l.qty = 0
			l.avgEntry = 0
		}
	}

	l.applied[f.ID] = struct{}{}
	l.fills = append(l.fills, f)
	return nil
}

// Snapshot derives the current portfolio view marked at currentPrice.
// Unrealized P&L is computed here, never stored.
func (l *Ledger) Snapshot(currentPrice float64) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	unrealized := l.qty * (currentPrice - l.avgEntry)
	equity := l.cash + l.qty*currentPrice

	return Snapshot{
		Symbol: l.symbol,
		Cash:   l.cash,
		Position: Position{
			Symbol:        l.symbol,
			Quantity:      l.qty,
			AvgEntryPrice: l.avgEntry,
		},
		RealizedPnL:   l.realized,
		UnrealizedPnL: unrealized,
		TotalEquity:   equity,
		TotalPnL:      equity - l.initialCash,
		FillCount:     len(l.fills),
	}
}

// RecentFills returns up to limit applied fills, newest first.
func (l *Ledger) RecentFills(limit int) []Fill {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.fills)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Fill, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.fills[i])
	}
	return out
}
