package journal

import "time"

// FillRecord is one row of the execution log. Skipped fills are recorded
// too, with a reason, so rejected simulated orders stay auditable.
type FillRecord struct {
	FillID   string
	RunID    string
	Symbol   string
	Side     string
	Price    float64
	Quantity float64
	Source   string
	Time     time.Time
	Status   string // "FILLED" or "SKIPPED"
	Reason   string
}

const (
	StatusFilled  = "FILLED"
	StatusSkipped = "SKIPPED"
)

// EquitySnapshot is a point-in-time record of the simulated portfolio.
type EquitySnapshot struct {
	Time          time.Time
	RunID         string
	Symbol        string
	Cash          float64
	Quantity      float64
	RealizedPnL   float64
	UnrealizedPnL float64
	Equity        float64
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards every record. Useful for tests and dry runs.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error       { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
