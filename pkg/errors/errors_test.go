package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsufficientStock(t *testing.T) {
	err := InsufficientStock("12.5", "40")

	assert.True(t, Is(err, ErrInsufficientStock))
	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", err.Code)
	assert.Equal(t, "12.5", err.Details["available"])
	assert.Equal(t, "40", err.Details["requested"])
}

func TestAppError_UnwrapThroughWrapping(t *testing.T) {
	inner := NotFound("lot")
	wrapped := fmt.Errorf("loading consumption line: %w", inner)

	assert.True(t, Is(wrapped, ErrNotFound))

	var appErr *AppError
	require.True(t, As(wrapped, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestLotItemMismatch(t *testing.T) {
	err := LotItemMismatch(7, 3)

	assert.True(t, Is(err, ErrBadRequest))
	assert.Equal(t, "LOT_ITEM_MISMATCH", err.Code)
	assert.Equal(t, "7", err.Details["lot_id"])
	assert.Equal(t, "3", err.Details["item_id"])
}

func TestNoOpenShift(t *testing.T) {
	err := NoOpenShift()

	assert.True(t, Is(err, ErrNoOpenShift))
	assert.Equal(t, http.StatusConflict, err.StatusCode)
}
