package grid

import (
	"fmt"
	"math"
)

// Side is the direction a level will fire as when crossed.
type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideNeutral Side = "NEUTRAL"
)

// Status tracks whether a level is waiting to fire or has fired.
type Status string

const (
	StatusArmed  Status = "ARMED"
	StatusFilled Status = "FILLED"
)

// Spacing selects how level prices are distributed across the range.
type Spacing string

const (
	SpacingArithmetic Spacing = "arithmetic"
	SpacingGeometric  Spacing = "geometric"
)

// InvalidRangeError reports an unusable grid specification.
type InvalidRangeError struct {
	Lower  float64
	Upper  float64
	Levels int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid grid range [%g, %g] with %d levels", e.Lower, e.Upper, e.Levels)
}

// Level is one rung of the ladder.
//
// HeldQty is the base quantity attached to an armed sell: inventory bought
// one level below waiting to be released when this level is crossed upward.
type Level struct {
	Index   int     `json:"index"`
	Price   float64 `json:"price"`
	Side    Side    `json:"side"`
	Status  Status  `json:"status"`
	HeldQty float64 `json:"held_qty"`
}

// Ladder is an immutable sequence of levels in ascending price order.
// Mutation of level side/status happens only through the engine that owns it.
type Ladder struct {
	levels []Level
}

// Build partitions [lower, upper] into count equal steps, producing count+1
// levels. Geometric spacing uses equal ratios instead of equal differences.
func Build(lower, upper float64, count int, spacing Spacing) (*Ladder, error) {
	if lower >= upper || count < 1 {
		return nil, &InvalidRangeError{Lower: lower, Upper: upper, Levels: count}
	}
	if lower <= 0 && spacing == SpacingGeometric {
		return nil, &InvalidRangeError{Lower: lower, Upper: upper, Levels: count}
	}

	levels := make([]Level, count+1)
	for i := 0; i <= count; i++ {
		var price float64
		switch spacing {
		case SpacingGeometric:
			ratio := math.Pow(upper/lower, 1/float64(count))
			price = lower * math.Pow(ratio, float64(i))
		default:
			step := (upper - lower) / float64(count)
			price = lower + float64(i)*step
		}
		levels[i] = Level{
			Index:  i,
			Price:  price,
			Side:   SideNeutral,
			Status: StatusArmed,
		}
	}
	// Pin the endpoints so float error never shrinks the span.
	levels[0].Price = lower
	levels[count].Price = upper

	return &Ladder{levels: levels}, nil
}

// Len returns the number of levels in the ladder.
func (l *Ladder) Len() int { return len(l.levels) }

// Level returns a pointer to the level at index i.
func (l *Ladder) Level(i int) *Level { return &l.levels[i] }

// Levels returns a copy of the level sequence.
func (l *Ladder) Levels() []Level {
	out := make([]Level, len(l.levels))
	copy(out, l.levels)
	return out
}

// Locate returns the index of the highest level whose price <= p,
// or -1 when p is below the entire range.
func (l *Ladder) Locate(p float64) int {
	idx := -1
	for i, lv := range l.levels {
		if lv.Price <= p {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// Arm marks every level strictly below p as an armed buy. Levels at or
// above p stay neutral until inventory bought below them arms a sell.
func (l *Ladder) Arm(p float64) {
	for i := range l.levels {
		if l.levels[i].Price < p {
			l.levels[i].Side = SideBuy
			l.levels[i].Status = StatusArmed
		}
	}
}
