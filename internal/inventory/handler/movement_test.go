package handler_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gluglu/gluglu-backend/internal/inventory/handler"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
	"github.com/gluglu/gluglu-backend/pkg/testutil"
)

// Validation failures never reach the service, so a nil service is fine
// for these tests.
func newMovementHandler() *handler.MovementHandler {
	return handler.NewMovementHandler(nil, logger.New("test", "test"))
}

func TestMovementHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]interface{}
		wantCode string
	}{
		{
			name: "unknown type",
			body: map[string]interface{}{
				"item_id": 1, "lot_id": 1, "type": "TRANSFER",
				"reason": "PURCHASE", "quantity": "10",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "unknown reason",
			body: map[string]interface{}{
				"item_id": 1, "lot_id": 1, "type": "IN",
				"reason": "GIFT", "quantity": "10",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "missing lot",
			body: map[string]interface{}{
				"item_id": 1, "type": "IN",
				"reason": "PURCHASE", "quantity": "10",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "quantity not a number",
			body: map[string]interface{}{
				"item_id": 1, "lot_id": 1, "type": "IN",
				"reason": "PURCHASE", "quantity": "ten",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "zero quantity",
			body: map[string]interface{}{
				"item_id": 1, "lot_id": 1, "type": "IN",
				"reason": "PURCHASE", "quantity": "0",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "negative quantity",
			body: map[string]interface{}{
				"item_id": 1, "lot_id": 1, "type": "OUT",
				"reason": "WASTE", "quantity": "-5",
			},
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "bad occurred_at",
			body: map[string]interface{}{
				"item_id": 1, "lot_id": 1, "type": "IN",
				"reason": "PURCHASE", "quantity": "10",
				"occurred_at": "yesterday",
			},
			wantCode: "VALIDATION_ERROR",
		},
	}

	h := newMovementHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewHTTPRequest("POST", "/api/v1/movements", tt.body)
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			assert.Equal(t, 400, rec.Code)

			var resp httputil.Response
			testutil.DecodeResponse(t, rec, &resp)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestMovementHandler_Create_InvalidJSON(t *testing.T) {
	h := newMovementHandler()

	req := httptest.NewRequest("POST", "/api/v1/movements", nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, 400, rec.Code)

	var resp httputil.Response
	testutil.DecodeResponse(t, rec, &resp)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestMovementHandler_List_BadFilter(t *testing.T) {
	h := newMovementHandler()

	req := testutil.NewHTTPRequest("GET", "/api/v1/movements?item_id=abc", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, 400, rec.Code)

	var resp httputil.Response
	testutil.DecodeResponse(t, rec, &resp)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
}
