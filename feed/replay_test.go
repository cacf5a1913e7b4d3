package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaurya-ahuja/autoswing-trading-suite/market"
)

func TestReplayDeliversScriptInOrder(t *testing.T) {
	r := NewReplay()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r.Load(
		market.Tick{Symbol: "BTCUSDT", Price: 35000, Time: base},
		market.Tick{Symbol: "BTCUSDT", Price: 34100, Time: base.Add(time.Second)},
		market.Tick{Symbol: "BTCUSDT", Price: 33900, Time: base.Add(2 * time.Second)},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks, err := r.Subscribe(ctx, "BTCUSDT")
	require.NoError(t, err)

	var prices []float64
	for i := 0; i < 3; i++ {
		select {
		case tk := <-ticks:
			prices = append(prices, tk.Price)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tick")
		}
	}
	assert.Equal(t, []float64{35000, 34100, 33900}, prices)
}

func TestReplayIsolatesSymbols(t *testing.T) {
	r := NewReplay()
	r.Load(
		market.Tick{Symbol: "BTCUSDT", Price: 35000},
		market.Tick{Symbol: "ETHUSDT", Price: 2000},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticks, err := r.Subscribe(ctx, "ETHUSDT")
	require.NoError(t, err)

	select {
	case tk := <-ticks:
		assert.Equal(t, "ETHUSDT", tk.Symbol)
		assert.Equal(t, 2000.0, tk.Price)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestReplayChannelClosesOnCancel(t *testing.T) {
	r := NewReplay()
	ctx, cancel := context.WithCancel(context.Background())

	ticks, err := r.Subscribe(ctx, "BTCUSDT")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ticks:
		assert.False(t, ok, "channel should close after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}

func TestReplayCloseStopsPlayback(t *testing.T) {
	r := NewReplay()
	r.Load(market.Tick{Symbol: "BTCUSDT", Price: 35000})

	ticks, err := r.Subscribe(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// Either the queued tick then close, or close immediately.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after Close")
		}
	}
}

func TestReplayLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	data := "time,price\n" +
		"2024-03-01T09:00:00Z,35000\n" +
		"2024-03-01T09:00:01Z,33900\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	r := NewReplay()
	require.NoError(t, r.LoadCSV(path, "BTCUSDT"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ticks, err := r.Subscribe(ctx, "BTCUSDT")
	require.NoError(t, err)

	first := <-ticks
	assert.Equal(t, 35000.0, first.Price)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), first.Time)
	second := <-ticks
	assert.Equal(t, 33900.0, second.Price)
}

func TestReplayLoadCSVBadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	require.NoError(t, os.WriteFile(path, []byte("2024-03-01T09:00:00Z,not-a-price\n"), 0644))

	r := NewReplay()
	assert.Error(t, r.LoadCSV(path, "BTCUSDT"))
}

func TestReplayRejectsSubscribeAfterClose(t *testing.T) {
	r := NewReplay()
	require.NoError(t, r.Close())
	_, err := r.Subscribe(context.Background(), "BTCUSDT")
	assert.Error(t, err)
}
