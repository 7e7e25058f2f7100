package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAsOf(t *testing.T) {
	// A calendar date folds through the end of that day
	at, err := parseAsOf("2026-08-15")
	require.NoError(t, err)
	assert.True(t, at.After(time.Date(2026, 8, 15, 23, 59, 59, 0, time.UTC)))
	assert.True(t, at.Before(time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)))

	// An exact timestamp cuts at that instant
	at, err = parseAsOf("2026-08-15T13:45:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 13, 45, 0, 0, time.UTC), at.UTC())

	_, err = parseAsOf("yesterday")
	require.Error(t, err)
}
