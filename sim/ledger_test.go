package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(id string, side Side, price, qty float64) Fill {
	return Fill{
		ID:       id,
		Symbol:   "BTCUSDT",
		Side:     side,
		Price:    price,
		Quantity: qty,
		Time:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:   Source{Kind: SourceLevel, Index: 0},
	}
}

func TestLedgerAverageCostBasis(t *testing.T) {
	l := NewLedger("BTCUSDT", 10000)

	require.NoError(t, l.Apply(fill("f1", SideBuy, 30000, 0.01)))
	require.NoError(t, l.Apply(fill("f2", SideBuy, 34000, 0.01)))

	snap := l.Snapshot(34000)
	assert.InDelta(t, 32000, snap.Position.AvgEntryPrice, 1e-9)
	assert.InDelta(t, 0.02, snap.Position.Quantity, 1e-12)
	assert.InDelta(t, 10000-300-340, snap.Cash, 1e-9)

	// Sell half: realized = qty * (price - avg).
	require.NoError(t, l.Apply(fill("f3", SideSell, 36000, 0.01)))
	snap = l.Snapshot(36000)
	assert.InDelta(t, 0.01*(36000-32000), snap.RealizedPnL, 1e-9)
	// Average entry is untouched by sells.
	assert.InDelta(t, 32000, snap.Position.AvgEntryPrice, 1e-9)
}

func TestLedgerApplyIdempotent(t *testing.T) {
	l := NewLedger("BTCUSDT", 10000)

	f := fill("dup", SideBuy, 30000, 0.01)
	require.NoError(t, l.Apply(f))
	before := l.Snapshot(30000)

	// Same fill ID again is a no-op, not an error.
	require.NoError(t, l.Apply(f))
	after := l.Snapshot(30000)

	assert.Equal(t, before, after)
	assert.Equal(t, 1, after.FillCount)
}

func TestLedgerRejectsOverdraft(t *testing.T) {
	l := NewLedger("BTCUSDT", 10000)
	require.NoError(t, l.Apply(fill("f1", SideBuy, 30000, 0.01)))

	err := l.Apply(fill("f2", SideSell, 31000, 0.02))
	require.Error(t, err)

	var overdraft *OverdraftError
	require.True(t, errors.As(err, &overdraft))
	assert.InDelta(t, 0.02, overdraft.Sell, 1e-12)
	assert.InDelta(t, 0.01, overdraft.Held, 1e-12)

	// Rejected fill left no trace.
	snap := l.Snapshot(31000)
	assert.InDelta(t, 0.01, snap.Position.Quantity, 1e-12)
	assert.Equal(t, 1, snap.FillCount)
}

func TestLedgerRejectsInsufficientCash(t *testing.T) {
	l := NewLedger("BTCUSDT", 100)

	err := l.Apply(fill("f1", SideBuy, 30000, 0.01))
	require.Error(t, err)

	var insufficient *InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.InDelta(t, 300, insufficient.Need, 1e-9)
	assert.InDelta(t, 100, insufficient.Cash, 1e-9)
}

func TestLedgerSnapshotDerived(t *testing.T) {
	l := NewLedger("BTCUSDT", 10000)
	require.NoError(t, l.Apply(fill("f1", SideBuy, 30000, 0.01)))

	snap := l.Snapshot(33000)
	assert.InDelta(t, 0.01*(33000-30000), snap.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 9700+0.01*33000, snap.TotalEquity, 1e-9)
	assert.InDelta(t, snap.TotalEquity-10000, snap.TotalPnL, 1e-9)

	// Marking at a different price yields a different view; nothing is stored.
	snap = l.Snapshot(29000)
	assert.InDelta(t, 0.01*(29000-30000), snap.UnrealizedPnL, 1e-9)
}

func TestLedgerSellOutResetsEntry(t *testing.T) {
	l := NewLedger("BTCUSDT", 10000)
	require.NoError(t, l.Apply(fill("f1", SideBuy, 30000, 0.01)))
	require.NoError(t, l.Apply(fill("f2", SideSell, 32000, 0.01)))

	snap := l.Snapshot(32000)
	assert.Zero(t, snap.Position.Quantity)
	assert.Zero(t, snap.Position.AvgEntryPrice)
	assert.Zero(t, snap.UnrealizedPnL)
}

func TestLedgerRecentFillsNewestFirst(t *testing.T) {
	l := NewLedger("BTCUSDT", 10000)
	require.NoError(t, l.Apply(fill("f1", SideBuy, 30000, 0.001)))
	require.NoError(t, l.Apply(fill("f2", SideBuy, 31000, 0.001)))
	require.NoError(t, l.Apply(fill("f3", SideBuy, 32000, 0.001)))

	recent := l.RecentFills(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "f3", recent[0].ID)
	assert.Equal(t, "f2", recent[1].ID)

	all := l.RecentFills(0)
	require.Len(t, all, 3)
	assert.Equal(t, "f1", all[2].ID)
}
