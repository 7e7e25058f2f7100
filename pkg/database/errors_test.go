package database

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gluglu/gluglu-backend/pkg/errors"
)

func TestMapPQError_UniqueViolation(t *testing.T) {
	err := MapPQError(&pq.Error{Code: "23505", Constraint: "item_lots_item_id_lot_code"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "a lot with this code already exists for the item", appErr.Message)
}

func TestMapPQError_CheckConstraint(t *testing.T) {
	err := MapPQError(&pq.Error{Code: "23514", Constraint: "movements_quantity_positive"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestMapPQError_PassesUnmappedThrough(t *testing.T) {
	// Non-pq errors like a context timeout must come back as themselves,
	// never as a typed-nil AppError
	err := MapPQError(context.DeadlineExceeded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, errors.ErrInsufficientStock))

	// Same for pq codes without a mapping, e.g. serialization failure
	serialization := &pq.Error{Code: "40001"}
	err = MapPQError(serialization)
	require.Error(t, err)
	assert.Equal(t, error(serialization), err)
}

func TestMapPQError_NilStaysNil(t *testing.T) {
	assert.NoError(t, MapPQError(nil))
}
