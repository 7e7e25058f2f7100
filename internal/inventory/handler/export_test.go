package handler_test

import (
	"encoding/csv"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gluglu/gluglu-backend/internal/inventory/handler"
	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/logger"
	"github.com/gluglu/gluglu-backend/pkg/testutil"
)

var ledgerColumns = []string{
	"id", "item_id", "lot_id", "type", "reason", "quantity",
	"shift_id", "ref_type", "ref_id", "note", "occurred_at", "created_at",
	"item_name", "item_unit", "lot_code", "balance",
}

func TestExportHandler_LedgerCSV(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	log := logger.New("test", "test")
	db := database.NewFromSqlx(mockDB.DB, log)
	svc := service.NewLedgerService(
		db,
		repository.NewMovementRepository(db),
		repository.NewItemRepository(db),
		repository.NewShiftRepository(db),
		nil,
		log,
	)
	h := handler.NewExportHandler(svc, log)

	at := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	mockDB.Mock.ExpectQuery(`FROM inventory_movements im`).
		WillReturnRows(testutil.MockRows(ledgerColumns...).
			AddRow(int64(1), int64(3), int64(7), "IN", "PURCHASE", "100",
				nil, nil, nil, nil, at, at, "Drum Cap", "UND", "CAP-01", "100").
			AddRow(int64(2), int64(3), int64(7), "OUT", "WASTE", "30",
				nil, nil, nil, nil, at.Add(time.Hour), at.Add(time.Hour), "Drum Cap", "UND", "CAP-01", "70"))

	req := testutil.NewHTTPRequest("GET", "/api/v1/movements/export", nil)
	rec := httptest.NewRecorder()

	h.ExportLedgerCSV(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"id", "occurred_at", "item_id", "item", "lot_id", "lot_code",
		"type", "reason", "quantity_in", "quantity_out", "unit",
		"balance", "shift_id", "note",
	}, rows[0])

	// IN fills quantity_in, OUT fills quantity_out
	assert.Equal(t, []string{
		"1", at.Format(time.RFC3339), "3", "Drum Cap", "7", "CAP-01",
		"IN", "PURCHASE", "100", "", "UND", "100", "", "",
	}, rows[1])
	assert.Equal(t, "OUT", rows[2][6])
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "30", rows[2][9])
	assert.Equal(t, "70", rows[2][11])

	mockDB.ExpectationsWereMet(t)
}
