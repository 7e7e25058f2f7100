package service_test

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newProductionService() *service.ProductionService {
	return service.NewProductionService(
		suite.DB,
		repository.NewBatchRepository(suite.DB),
		repository.NewMovementRepository(suite.DB),
		repository.NewItemRepository(suite.DB),
		repository.NewLotRepository(suite.DB),
		repository.NewShiftRepository(suite.DB),
		nil, // no broker in tests
		10*time.Second,
		suite.Logger,
	)
}

// plantFixture is the standing refill line setup: consumable items with
// stocked lots, a finished good, and an open shift
type plantFixture struct {
	capItem   *repository.Item
	sealItem  *repository.Item
	chemItem  *repository.Item
	fgItem    *repository.Item
	capLot    *repository.Lot
	sealLot   *repository.Lot
	chemLot   *repository.Lot
	shift     *repository.Shift
}

func setupPlant(t *testing.T, ctx context.Context) plantFixture {
	t.Helper()
	suite.Reset(t, ctx)

	itemRepo := repository.NewItemRepository(suite.DB)
	lotRepo := repository.NewLotRepository(suite.DB)
	movementRepo := repository.NewMovementRepository(suite.DB)
	shiftRepo := repository.NewShiftRepository(suite.DB)

	f := plantFixture{}

	newItem := func(name, category, unit string) *repository.Item {
		item := &repository.Item{Name: name, Category: category, Unit: unit, Active: true}
		require.NoError(t, itemRepo.Create(ctx, item))
		return item
	}
	f.capItem = newItem("Drum Cap", repository.CategoryCap, repository.UnitUnd)
	f.sealItem = newItem("Drum Seal", repository.CategorySeal, repository.UnitUnd)
	f.chemItem = newItem("Degreaser", repository.CategoryChemical, repository.UnitLt)
	f.fgItem = newItem("Refilled Drum", repository.CategoryFinishedGood, repository.UnitUnd)

	stock := func(item *repository.Item, code, qty string) *repository.Lot {
		lot := &repository.Lot{ItemID: item.ID, LotCode: code}
		require.NoError(t, lotRepo.Create(ctx, lot))
		require.NoError(t, suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
			return movementRepo.AppendTx(ctx, tx, &repository.Movement{
				ItemID: item.ID, LotID: lot.ID,
				Type: repository.TypeIn, Reason: repository.ReasonPurchase,
				Quantity: dec(qty),
			})
		}))
		return lot
	}
	f.capLot = stock(f.capItem, "CAP-01", "100")
	f.sealLot = stock(f.sealItem, "SEAL-01", "100")
	f.chemLot = stock(f.chemItem, "CHEM-01", "500")

	f.shift = &repository.Shift{Name: "Morning"}
	require.NoError(t, shiftRepo.Open(ctx, f.shift))

	return f
}

func TestProductionService_RecordBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	f := setupPlant(t, ctx)
	svc := newProductionService()

	batch, err := svc.RecordBatch(ctx, service.RecordBatchInput{
		OutputItemID:  f.fgItem.ID,
		OutputLotCode: "FG-2026-09-01",
		UnitsProduced: dec("10"),
		Lines: []service.ConsumptionLine{
			{ItemID: f.capItem.ID, LotID: f.capLot.ID, Quantity: dec("10")},
			{ItemID: f.sealItem.ID, LotID: f.sealLot.ID, Quantity: dec("10")},
			{ItemID: f.chemItem.ID, LotID: f.chemLot.ID, Quantity: dec("55")},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, batch.ID)
	assert.Equal(t, f.shift.ID, batch.ShiftID)
	assert.Len(t, batch.Consumptions, 3)

	// K consumption OUTs plus one output IN
	movementRepo := repository.NewMovementRepository(suite.DB)
	_, total, err := movementRepo.List(ctx, 1, 50, repository.MovementFilter{ShiftID: f.shift.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	// Consumed lots went down, output lot came into existence with stock
	stockRepo := repository.NewStockRepository(suite.DB)
	capTotal, err := stockRepo.ItemTotal(ctx, f.capItem.ID)
	require.NoError(t, err)
	assert.True(t, capTotal.Equal(dec("90")))

	fgTotal, err := stockRepo.ItemTotal(ctx, f.fgItem.ID)
	require.NoError(t, err)
	assert.True(t, fgTotal.Equal(dec("10")))

	// All rows share one timestamp and reference the batch, the
	// consumption OUTs included
	entries, err := movementRepo.Ledger(ctx, repository.MovementFilter{ShiftID: f.shift.ID})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.True(t, e.OccurredAt.Equal(batch.OccurredAt),
			"movement %s at %s, batch at %s", e.ID, e.OccurredAt, batch.OccurredAt)
		require.NotNil(t, e.RefType, "movement %s has no ref type", e.ID)
		assert.Equal(t, repository.RefTypeProductionBatch, *e.RefType)
		require.NotNil(t, e.RefID, "movement %s has no ref id", e.ID)
		assert.Equal(t, batch.ID, *e.RefID)
	}

	// The output lot records the units it was born with
	lotRepo := repository.NewLotRepository(suite.DB)
	outputLot, err := lotRepo.GetByID(ctx, batch.OutputLotID)
	require.NoError(t, err)
	assert.True(t, outputLot.InitialQty.Equal(dec("10")), "got %s", outputLot.InitialQty)
}

func TestProductionService_InsufficientLineRollsBackEverything(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	f := setupPlant(t, ctx)
	svc := newProductionService()

	_, err := svc.RecordBatch(ctx, service.RecordBatchInput{
		OutputItemID:  f.fgItem.ID,
		OutputLotCode: "FG-FAIL",
		UnitsProduced: dec("10"),
		Lines: []service.ConsumptionLine{
			{ItemID: f.capItem.ID, LotID: f.capLot.ID, Quantity: dec("10")},
			// More sealant than the lot holds
			{ItemID: f.sealItem.ID, LotID: f.sealLot.ID, Quantity: dec("5000")},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	// Nothing committed: no movements under the shift, no batch, caps untouched
	movementRepo := repository.NewMovementRepository(suite.DB)
	_, total, err := movementRepo.List(ctx, 1, 50, repository.MovementFilter{ShiftID: f.shift.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	batchRepo := repository.NewBatchRepository(suite.DB)
	_, batchTotal, err := batchRepo.List(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), batchTotal)

	stockRepo := repository.NewStockRepository(suite.DB)
	capTotal, err := stockRepo.ItemTotal(ctx, f.capItem.ID)
	require.NoError(t, err)
	assert.True(t, capTotal.Equal(dec("100")))

	fgTotal, err := stockRepo.ItemTotal(ctx, f.fgItem.ID)
	require.NoError(t, err)
	assert.True(t, fgTotal.IsZero())
}

func TestProductionService_NoOpenShift(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	f := setupPlant(t, ctx)
	svc := newProductionService()

	shiftRepo := repository.NewShiftRepository(suite.DB)
	_, err := shiftRepo.Close(ctx, f.shift.ID)
	require.NoError(t, err)

	_, err = svc.RecordBatch(ctx, service.RecordBatchInput{
		OutputItemID:  f.fgItem.ID,
		OutputLotCode: "FG-NOSHIFT",
		UnitsProduced: dec("1"),
		Lines: []service.ConsumptionLine{
			{ItemID: f.capItem.ID, LotID: f.capLot.ID, Quantity: dec("1")},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoOpenShift))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NO_OPEN_SHIFT", appErr.Code)
}

func TestProductionService_ClosedShiftConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	f := setupPlant(t, ctx)
	svc := newProductionService()

	shiftRepo := repository.NewShiftRepository(suite.DB)
	closed := &repository.Shift{Name: "Old Night Shift", OpenedAt: time.Now().UTC().Add(-24 * time.Hour)}
	require.NoError(t, shiftRepo.Open(ctx, closed))
	_, err := shiftRepo.Close(ctx, closed.ID)
	require.NoError(t, err)

	_, err = svc.RecordBatch(ctx, service.RecordBatchInput{
		ShiftID:       &closed.ID,
		OutputItemID:  f.fgItem.ID,
		OutputLotCode: "FG-CLOSED",
		UnitsProduced: dec("1"),
		Lines: []service.ConsumptionLine{
			{ItemID: f.capItem.ID, LotID: f.capLot.ID, Quantity: dec("1")},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestProductionService_ConcurrentBatchesNeverOverdraw(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	f := setupPlant(t, ctx)
	svc := newProductionService()

	// The chem lot holds 500; each batch draws 300, so only one can win
	run := func() error {
		_, err := svc.RecordBatch(ctx, service.RecordBatchInput{
			OutputItemID:  f.fgItem.ID,
			OutputLotCode: "FG-RACE",
			UnitsProduced: dec("5"),
			Lines: []service.ConsumptionLine{
				{ItemID: f.capItem.ID, LotID: f.capLot.ID, Quantity: dec("5")},
				{ItemID: f.chemItem.ID, LotID: f.chemLot.ID, Quantity: dec("300")},
			},
		})
		return err
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- run()
		}()
	}
	wg.Wait()
	close(results)

	var failures int
	for err := range results {
		if err != nil {
			assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of two competing batches must lose")

	stockRepo := repository.NewStockRepository(suite.DB)
	chemTotal, err := stockRepo.ItemTotal(ctx, f.chemItem.ID)
	require.NoError(t, err)
	assert.True(t, chemTotal.Equal(dec("200")), "got %s", chemTotal)
	assert.False(t, chemTotal.IsNegative())
}
