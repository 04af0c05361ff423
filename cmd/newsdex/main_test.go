package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDayParsesExplicitDate(t *testing.T) {
	t.Parallel()

	day, err := resolveDay("2026-08-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC), day)
}

func TestResolveDayDefaultsToToday(t *testing.T) {
	t.Parallel()

	day, err := resolveDay("")
	require.NoError(t, err)

	hour, minute, sec := day.Clock()
	assert.Zero(t, hour, "default day is truncated to midnight")
	assert.Zero(t, minute)
	assert.Zero(t, sec)
	assert.WithinDuration(t, time.Now().UTC(), day, 25*time.Hour)
}

func TestResolveDayRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := resolveDay("28/08/2026")
	assert.Error(t, err)
}
