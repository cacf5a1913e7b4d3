package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArithmetic(t *testing.T) {
	l, err := Build(30000, 40000, 5, SpacingArithmetic)
	require.NoError(t, err)
	require.Equal(t, 6, l.Len())

	want := []float64{30000, 32000, 34000, 36000, 38000, 40000}
	for i, w := range want {
		assert.InDelta(t, w, l.Level(i).Price, 1e-9, "level %d", i)
	}
	for i := 1; i < l.Len(); i++ {
		assert.Greater(t, l.Level(i).Price, l.Level(i-1).Price)
	}
}

func TestBuildGeometric(t *testing.T) {
	l, err := Build(1000, 8000, 3, SpacingGeometric)
	require.NoError(t, err)
	require.Equal(t, 4, l.Len())

	want := []float64{1000, 2000, 4000, 8000}
	for i, w := range want {
		assert.InDelta(t, w, l.Level(i).Price, 1e-6, "level %d", i)
	}
}

func TestBuildSpansBounds(t *testing.T) {
	cases := []struct {
		lower, upper float64
		count        int
	}{
		{30000, 40000, 5},
		{0.01, 0.09, 7},
		{1, 2, 1},
		{99.5, 100.5, 10},
	}
	for _, tc := range cases {
		l, err := Build(tc.lower, tc.upper, tc.count, SpacingArithmetic)
		require.NoError(t, err)
		require.Equal(t, tc.count+1, l.Len())
		assert.Equal(t, tc.lower, l.Level(0).Price)
		assert.Equal(t, tc.upper, l.Level(l.Len()-1).Price)
	}
}

func TestBuildInvalidRange(t *testing.T) {
	cases := []struct {
		name         string
		lower, upper float64
		count        int
	}{
		{"inverted", 40000, 30000, 5},
		{"equal bounds", 30000, 30000, 5},
		{"zero levels", 30000, 40000, 0},
		{"negative levels", 30000, 40000, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.lower, tc.upper, tc.count, SpacingArithmetic)
			require.Error(t, err)

			var rangeErr *InvalidRangeError
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, tc.lower, rangeErr.Lower)
			assert.Equal(t, tc.count, rangeErr.Levels)
		})
	}
}

func TestLocate(t *testing.T) {
	l, err := Build(30000, 40000, 5, SpacingArithmetic)
	require.NoError(t, err)

	cases := []struct {
		price float64
		want  int
	}{
		{29999, -1},
		{30000, 0},
		{31999, 0},
		{32000, 1},
		{35000, 2},
		{40000, 5},
		{50000, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, l.Locate(tc.price), "price %g", tc.price)
	}
}

func TestArm(t *testing.T) {
	l, err := Build(30000, 40000, 5, SpacingArithmetic)
	require.NoError(t, err)

	l.Arm(35000)

	for i := 0; i < l.Len(); i++ {
		lv := l.Level(i)
		if lv.Price < 35000 {
			assert.Equal(t, SideBuy, lv.Side, "level %d", i)
			assert.Equal(t, StatusArmed, lv.Status, "level %d", i)
		} else {
			assert.Equal(t, SideNeutral, lv.Side, "level %d", i)
		}
	}
}
