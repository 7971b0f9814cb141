package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAnchorsAtLocalMidnight(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 2026-03-10 01:30 KST is still 2026-03-09 in UTC.
	now := time.Date(2026, 3, 9, 16, 30, 0, 0, time.UTC)

	rng := Resolve("today", now, seoul)
	assert.Equal(t, 1, rng.Days)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, seoul), rng.Start)
	assert.True(t, rng.End.Equal(now))
}

func TestResolveWindows(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, seoul)
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, seoul)

	cases := []struct {
		name string
		days int
	}{
		{"today", 1},
		{"3days", 3},
		{"week", 7},
		{"month", 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rng := Resolve(tc.name, now, seoul)
			assert.Equal(t, tc.days, rng.Days)
			assert.Equal(t, midnight.AddDate(0, 0, -(tc.days-1)), rng.Start)
			assert.True(t, rng.End.Equal(now))
		})
	}
}

func TestResolveUnknownPeriodIsToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rng := Resolve("fortnight", now, time.UTC)
	assert.Equal(t, 1, rng.Days)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), rng.Start)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "today", Normalize(""))
	assert.Equal(t, "today", Normalize("bogus"))
	assert.Equal(t, "3days", Normalize("3days"))
	assert.Equal(t, "week", Normalize("week"))
	assert.Equal(t, "month", Normalize("month"))
}
