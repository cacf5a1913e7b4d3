package sim

import (
	"fmt"
	"time"
)

// Side of a simulated fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// SourceKind tells whether a fill came from a grid level or a DCA checkpoint.
type SourceKind string

const (
	SourceLevel      SourceKind = "level"
	SourceCheckpoint SourceKind = "checkpoint"
)

// Source identifies the ladder level or schedule checkpoint behind a fill.
type Source struct {
	Kind  SourceKind `json:"kind"`
	Index int        `json:"index"`
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%d", s.Kind, s.Index)
}

// Fill is an immutable simulated execution record. It is created by the
// engine, applied once by the ledger, and appended to the execution log.
// No real order stands behind it anywhere.
type Fill struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Price    float64   `json:"price"`
	Quantity float64   `json:"quantity"`
	Time     time.Time `json:"time"`
	Source   Source    `json:"source"`
}

// Notional is the quote-currency value of the fill.
func (f Fill) Notional() float64 {
	return f.Price * f.Quantity
}
