package dca

import (
	"fmt"
	"math"
	"time"
)

// Status tracks the lifecycle of a single installment.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusExecuted Status = "EXECUTED"
	StatusSkipped  Status = "SKIPPED"
)

// InvalidScheduleError reports unusable DCA parameters.
type InvalidScheduleError struct {
	Intervals int
	Total     float64
	Period    time.Duration
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid dca schedule: %d intervals, total %g, period %s",
		e.Intervals, e.Total, e.Period)
}

// Checkpoint is one time-based installment of the total investment.
type Checkpoint struct {
	Index  int       `json:"index"`
	DueAt  time.Time `json:"due_at"`
	Amount float64   `json:"amount"`
	Status Status    `json:"status"`
}

// Schedule is an ordered sequence of checkpoints by due time.
type Schedule struct {
	checkpoints []Checkpoint
	total       float64
}

// Build splits total into count equal installments due every period starting
// at start. Amounts are rounded to cents; the last checkpoint absorbs the
// rounding remainder so the installments sum to total exactly.
func Build(count int, total float64, period time.Duration, start time.Time) (*Schedule, error) {
	if count < 1 || total <= 0 || period <= 0 {
		return nil, &InvalidScheduleError{Intervals: count, Total: total, Period: period}
	}

	per := math.Floor(total/float64(count)*100) / 100

	cps := make([]Checkpoint, count)
	allocated := 0.0
	for i := 0; i < count; i++ {
		amount := per
		if i == count-1 {
			amount = total - allocated
		}
		allocated += amount
		cps[i] = Checkpoint{
			Index:  i,
			DueAt:  start.Add(time.Duration(i) * period),
			Amount: amount,
			Status: StatusPending,
		}
	}

	return &Schedule{checkpoints: cps, total: total}, nil
}

// Len returns the number of checkpoints.
func (s *Schedule) Len() int { return len(s.checkpoints) }

// Total returns the configured total investment.
func (s *Schedule) Total() float64 { return s.total }

// Checkpoint returns a pointer to the checkpoint at index i.
func (s *Schedule) Checkpoint(i int) *Checkpoint { return &s.checkpoints[i] }

// Checkpoints returns a copy of the checkpoint sequence.
func (s *Schedule) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(s.checkpoints))
	copy(out, s.checkpoints)
	return out
}

// Due returns the indexes of PENDING checkpoints with DueAt <= now,
// in due order. Callers consume them in that order.
func (s *Schedule) Due(now time.Time) []int {
	var due []int
	for i := range s.checkpoints {
		cp := &s.checkpoints[i]
		if cp.Status != StatusPending {
			continue
		}
		if !cp.DueAt.After(now) {
			due = append(due, i)
		}
	}
	return due
}

// Done reports whether no checkpoint remains pending.
func (s *Schedule) Done() bool {
	for i := range s.checkpoints {
		if s.checkpoints[i].Status == StatusPending {
			return false
		}
	}
	return true
}
