package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/logger"
	"github.com/gluglu/gluglu-backend/pkg/testutil"
)

func newMockLedgerService(t *testing.T) (*service.LedgerService, *testutil.MockDB) {
	mockDB := testutil.NewMockDB(t)
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
	return svc, mockDB
}

func TestLedgerService_RecordMovement(t *testing.T) {
	svc, mockDB := newMockLedgerService(t)
	defer mockDB.Close()

	now := time.Now()

	mockDB.Mock.ExpectQuery(`FROM items WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(testutil.MockRows("id", "name", "category", "unit", "min_alert", "active", "created_at", "updated_at").
			AddRow(int64(1), "Drum Cap", "CAP", "UND", nil, true, now, now))

	mockDB.ExpectBegin()
	mockDB.Mock.ExpectQuery(`FROM item_lots WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(testutil.MockRows("id", "item_id", "lot_code", "initial_qty", "unit_cost", "received_at", "created_at").
			AddRow(int64(2), int64(1), "CAP-01", "0", nil, nil, now))
	mockDB.Mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WillReturnRows(testutil.MockRows("id", "created_at").AddRow(int64(7), now))
	mockDB.ExpectCommit()

	movement, err := svc.RecordMovement(context.Background(), service.RecordMovementInput{
		ItemID:   1,
		LotID:    2,
		Type:     repository.TypeIn,
		Reason:   repository.ReasonPurchase,
		Quantity: dec("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, repository.MovementID(7), movement.ID)

	mockDB.ExpectationsWereMet(t)
}

func TestLedgerService_RecordMovement_InsufficientRollsBack(t *testing.T) {
	svc, mockDB := newMockLedgerService(t)
	defer mockDB.Close()

	now := time.Now()

	mockDB.Mock.ExpectQuery(`FROM items WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(testutil.MockRows("id", "name", "category", "unit", "min_alert", "active", "created_at", "updated_at").
			AddRow(int64(1), "Drum Cap", "CAP", "UND", nil, true, now, now))

	mockDB.ExpectBegin()
	mockDB.Mock.ExpectQuery(`FROM item_lots WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(testutil.MockRows("id", "item_id", "lot_code", "initial_qty", "unit_cost", "received_at", "created_at").
			AddRow(int64(2), int64(1), "CAP-01", "0", nil, nil, now))
	mockDB.Mock.ExpectQuery(`SELECT COALESCE\(SUM`).
		WithArgs(int64(2)).
		WillReturnRows(testutil.MockRows("coalesce").AddRow("10"))
	mockDB.ExpectRollback()

	_, err := svc.RecordMovement(context.Background(), service.RecordMovementInput{
		ItemID:   1,
		LotID:    2,
		Type:     repository.TypeOut,
		Reason:   repository.ReasonWaste,
		Quantity: dec("50"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "10", appErr.Details["available"])
	assert.Equal(t, "50", appErr.Details["requested"])

	mockDB.ExpectationsWereMet(t)
}

func TestLedgerService_RecordMovement_InactiveItem(t *testing.T) {
	svc, mockDB := newMockLedgerService(t)
	defer mockDB.Close()

	now := time.Now()

	mockDB.Mock.ExpectQuery(`FROM items WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(testutil.MockRows("id", "name", "category", "unit", "min_alert", "active", "created_at", "updated_at").
			AddRow(int64(1), "Retired Cap", "CAP", "UND", nil, false, now, now))

	_, err := svc.RecordMovement(context.Background(), service.RecordMovementInput{
		ItemID:   1,
		LotID:    2,
		Type:     repository.TypeIn,
		Reason:   repository.ReasonPurchase,
		Quantity: dec("1"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mockDB.ExpectationsWereMet(t)
}
