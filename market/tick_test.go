package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickStoreGetSet(t *testing.T) {
	ts := NewTickStore()

	_, err := ts.Get("BTCUSDT")
	assert.ErrorIs(t, err, ErrNoTick)

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ts.Set(Tick{Symbol: "BTCUSDT", Price: 35000, Time: t0})
	ts.Set(Tick{Symbol: "ETHUSDT", Price: 2000, Time: t0})

	got, err := ts.Get("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 35000.0, got.Price)

	// Later ticks replace earlier ones.
	ts.Set(Tick{Symbol: "BTCUSDT", Price: 35100, Time: t0.Add(time.Second)})
	got, err = ts.Get("BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 35100.0, got.Price)
	assert.Equal(t, t0.Add(time.Second), got.Time)
}
