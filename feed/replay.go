package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
)

// Replay feeds a scripted tick sequence, for simulation runs and tests. It
// delivers each tick as fast as the consumer drains it unless a delay is
// configured.
type Replay struct {
	mu     sync.Mutex
	ticks  map[string][]market.Tick
	store  *market.TickStore
	delay  time.Duration
	closed bool
	cancel []context.CancelFunc
}

func NewReplay() *Replay {
	return &Replay{
		ticks: make(map[string][]market.Tick),
		store: market.NewTickStore(),
	}
}

// GetTick returns the last tick delivered for symbol.
func (r *Replay) GetTick(ctx context.Context, symbol string) (market.Tick, error) {
	return r.store.Get(symbol)
}

// SetDelay inserts a fixed pause between ticks, to approximate real cadence.
func (r *Replay) SetDelay(d time.Duration) {
	r.mu.Lock()
	r.delay = d
	r.mu.Unlock()
}

// Load appends ticks to the script for their symbols. Call before Subscribe;
// ticks are delivered in the order loaded.
func (r *Replay) Load(ticks ...market.Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range ticks {
		r.ticks[t.Symbol] = append(r.ticks[t.Symbol], t)
	}
}

// LoadCSV reads a tick script for symbol from a CSV file with an optional
// header and rows of RFC 3339 time and price.
func (r *Replay) LoadCSV(path, symbol string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open tick script: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 2
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tick script %s: %w", path, err)
		}
		line++
		if line == 1 && row[0] == "time" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return fmt.Errorf("tick script %s line %d: %w", path, line, err)
		}
		price, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return fmt.Errorf("tick script %s line %d: %w", path, line, err)
		}
		r.Load(market.Tick{Symbol: symbol, Price: price, Time: ts})
	}
}

// Subscribe plays back the scripted ticks for symbol, then leaves the channel
// open until ctx is cancelled so the run keeps its final state observable.
func (r *Replay) Subscribe(ctx context.Context, symbol string) (<-chan market.Tick, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("replay feed closed")
	}
	script := make([]market.Tick, len(r.ticks[symbol]))
	copy(script, r.ticks[symbol])
	delay := r.delay

	playCtx, cancel := context.WithCancel(ctx)
	r.cancel = append(r.cancel, cancel)
	r.mu.Unlock()

	out := make(chan market.Tick)
	go func() {
		defer close(out)
		for _, t := range script {
			if delay > 0 {
				select {
				case <-playCtx.Done():
					return
				case <-time.After(delay):
				}
			}
			select {
			case out <- t:
				r.store.Set(t)
			case <-playCtx.Done():
				return
			}
		}
		<-playCtx.Done()
	}()
	return out, nil
}

// Close cancels all playback goroutines.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for _, cancel := range r.cancel {
		cancel()
	}
	r.cancel = nil
	return nil
}
