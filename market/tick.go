package market

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Tick is a single timestamped price observation for a symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}

// TickSource supplies the latest known tick for a symbol.
type TickSource interface {
	GetTick(ctx context.Context, symbol string) (Tick, error)
}

// Feed is a live stream of ticks. The feed owns reconnection; consumers
// only observe gaps between ticks.
type Feed interface {
	Subscribe(ctx context.Context, symbol string) (<-chan Tick, error)
	Close() error
}

// FeedSource is a Feed that also remembers the last tick per symbol.
type FeedSource interface {
	Feed
	TickSource
}

var ErrNoTick = errors.New("no tick for symbol")

// TickStore keeps the last observed tick per symbol.
type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (ts *TickStore) Set(t Tick) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.ticks[t.Symbol] = t
}

func (ts *TickStore) Get(symbol string) (Tick, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.ticks[symbol]
	if !ok {
		return Tick{}, ErrNoTick
	}
	return t, nil
}
