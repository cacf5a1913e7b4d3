package sim

import (
	"fmt"
	"time"
)

// InsufficientBalanceError rejects a BUY whose cost exceeds virtual cash.
// Non-fatal: the fill is skipped and the run continues.
type InsufficientBalanceError struct {
	Symbol string
	Need   float64
	Cash   float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient simulated balance for %s: need %.2f, have %.2f",
		e.Symbol, e.Need, e.Cash)
}

// OverdraftError rejects a SELL that would drive the position negative.
// The simulation is spot-only; there is nothing to short.
type OverdraftError struct {
	Symbol string
	Sell   float64
	Held   float64
}

func (e *OverdraftError) Error() string {
	return fmt.Sprintf("sell of %.8f %s exceeds held %.8f", e.Sell, e.Symbol, e.Held)
}

// StaleFeedError reports that no tick arrived within the configured timeout.
// Evaluation pauses until fresh ticks resume; the run does not stop.
type StaleFeedError struct {
	Symbol   string
	LastTick time.Time
	Timeout  time.Duration
}

func (e *StaleFeedError) Error() string {
	return fmt.Sprintf("stale feed for %s: no tick since %s (timeout %s)",
		e.Symbol, e.LastTick.Format(time.RFC3339), e.Timeout)
}
