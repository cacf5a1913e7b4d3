package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func fillFixture(id, runID string, ts time.Time) FillRecord {
	return FillRecord{
		FillID:   id,
		RunID:    runID,
		Symbol:   "BTCUSDT",
		Side:     "BUY",
		Price:    34000,
		Quantity: 100.0 / 34000,
		Source:   "level:2",
		Time:     ts,
		Status:   StatusFilled,
	}
}

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteFillRoundTrip(t *testing.T) {
	j := newTestSQLite(t)

	want := fillFixture("fill-1", "run-1", t0)
	want.Reason = ""
	require.NoError(t, j.RecordFill(want))

	got, err := j.GetFill("fill-1")
	require.NoError(t, err)
	assert.Equal(t, want.FillID, got.FillID)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Side, got.Side)
	assert.Equal(t, want.Price, got.Price)
	assert.Equal(t, want.Quantity, got.Quantity)
	assert.Equal(t, want.Source, got.Source)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.Time.Equal(got.Time), "time %v != %v", want.Time, got.Time)
}

func TestSQLiteGetFillMissing(t *testing.T) {
	j := newTestSQLite(t)
	_, err := j.GetFill("nope")
	assert.Error(t, err)
}

func TestSQLiteRejectsDuplicateFillID(t *testing.T) {
	j := newTestSQLite(t)
	require.NoError(t, j.RecordFill(fillFixture("fill-1", "run-1", t0)))
	assert.Error(t, j.RecordFill(fillFixture("fill-1", "run-1", t0)))
}

func TestSQLiteListFillsByRun(t *testing.T) {
	j := newTestSQLite(t)

	require.NoError(t, j.RecordFill(fillFixture("fill-2", "run-1", t0.Add(time.Minute))))
	require.NoError(t, j.RecordFill(fillFixture("fill-1", "run-1", t0)))
	require.NoError(t, j.RecordFill(fillFixture("fill-3", "run-2", t0)))

	fills, err := j.ListFills("run-1")
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "fill-1", fills[0].FillID, "chronological order")
	assert.Equal(t, "fill-2", fills[1].FillID)
}

func TestSQLiteListFillsBetween(t *testing.T) {
	j := newTestSQLite(t)

	require.NoError(t, j.RecordFill(fillFixture("fill-1", "run-1", t0)))
	require.NoError(t, j.RecordFill(fillFixture("fill-2", "run-1", t0.Add(time.Hour))))
	require.NoError(t, j.RecordFill(fillFixture("fill-3", "run-1", t0.Add(2*time.Hour))))

	fills, err := j.ListFillsBetween(t0, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, fills, 2, "end bound is exclusive")
	assert.Equal(t, "fill-1", fills[0].FillID)
	assert.Equal(t, "fill-2", fills[1].FillID)
}

func TestSQLiteSkippedFillKeepsReason(t *testing.T) {
	j := newTestSQLite(t)

	rec := fillFixture("fill-1", "run-1", t0)
	rec.Status = StatusSkipped
	rec.Reason = "insufficient simulated balance"
	require.NoError(t, j.RecordFill(rec))

	got, err := j.GetFill("fill-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, got.Status)
	assert.Equal(t, "insufficient simulated balance", got.Reason)
}

func TestSQLiteEquityCurve(t *testing.T) {
	j := newTestSQLite(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, j.RecordEquity(EquitySnapshot{
			Time:          t0.Add(time.Duration(i) * time.Minute),
			RunID:         "run-1",
			Symbol:        "BTCUSDT",
			Cash:          10000 - float64(i)*100,
			Quantity:      float64(i) * 0.003,
			RealizedPnL:   0,
			UnrealizedPnL: float64(i) * 1.5,
			Equity:        10000 + float64(i)*1.5,
		}))
	}
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Time: t0, RunID: "run-2", Symbol: "BTCUSDT", Cash: 5000, Equity: 5000,
	}))

	curve, err := j.ListEquity("run-1")
	require.NoError(t, err)
	require.Len(t, curve, 3)
	assert.Equal(t, 10000.0, curve[0].Equity)
	assert.InDelta(t, 10003.0, curve[2].Equity, 1e-9)
	assert.True(t, curve[0].Time.Before(curve[1].Time))
}

func TestSQLiteReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordFill(fillFixture("fill-1", "run-1", t0)))
	require.NoError(t, j.Close())

	j2, err := NewSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	fills, err := j2.ListFills("run-1")
	require.NoError(t, err)
	assert.Len(t, fills, 1)
}
