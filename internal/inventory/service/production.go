package service

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/gluglu/gluglu-backend/internal/inventory/events"
	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/logger"
	"github.com/gluglu/gluglu-backend/pkg/metrics"
)

// ProductionService orchestrates atomic production batches
type ProductionService struct {
	db           *database.DB
	batchRepo    *repository.BatchRepository
	movementRepo *repository.MovementRepository
	itemRepo     *repository.ItemRepository
	lotRepo      *repository.LotRepository
	shiftRepo    *repository.ShiftRepository
	publisher    *events.InventoryEventPublisher
	txTimeout    time.Duration
	logger       *logger.Logger
}

// NewProductionService creates a new production service
func NewProductionService(
	db *database.DB,
	batchRepo *repository.BatchRepository,
	movementRepo *repository.MovementRepository,
	itemRepo *repository.ItemRepository,
	lotRepo *repository.LotRepository,
	shiftRepo *repository.ShiftRepository,
	publisher *events.InventoryEventPublisher,
	txTimeout time.Duration,
	log *logger.Logger,
) *ProductionService {
	return &ProductionService{
		db:           db,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
		itemRepo:     itemRepo,
		lotRepo:      lotRepo,
		shiftRepo:    shiftRepo,
		publisher:    publisher,
		txTimeout:    txTimeout,
		logger:       log,
	}
}

// ConsumptionLine is one material draw of a production batch
type ConsumptionLine struct {
	ItemID   int64
	LotID    int64
	Quantity decimal.Decimal
}

// RecordBatchInput describes one production run
type RecordBatchInput struct {
	ShiftID       *int64
	OutputItemID  int64
	OutputLotCode string
	UnitsProduced decimal.Decimal
	Lines         []ConsumptionLine
	Note          *string
	OccurredAt    *time.Time
}

// RecordBatch commits a production batch atomically: every consumption
// OUT, the output IN, the batch row, and the consumption lines either
// all commit or none do. Consumption lots are locked in ascending lot
// order so two concurrent batches over the same lots cannot deadlock.
func (s *ProductionService) RecordBatch(ctx context.Context, input RecordBatchInput) (*repository.BatchWithConsumptions, error) {
	start := time.Now()

	shift, err := s.resolveShift(ctx, input.ShiftID)
	if err != nil {
		return nil, err
	}

	outputItem, err := s.itemRepo.GetByID(ctx, input.OutputItemID)
	if err != nil {
		return nil, err
	}
	if !outputItem.Active {
		return nil, errors.BadRequest("output item is inactive")
	}

	occurredAt := time.Now().UTC()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	lines := make([]ConsumptionLine, len(input.Lines))
	copy(lines, input.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].LotID < lines[j].LotID })

	result := &repository.BatchWithConsumptions{
		ProductionBatch: repository.ProductionBatch{
			ShiftID:       shift.ID,
			OutputItemID:  input.OutputItemID,
			UnitsProduced: input.UnitsProduced,
			Note:          input.Note,
			OccurredAt:    occurredAt,
		},
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	err = s.db.Transaction(txCtx, func(tx *sqlx.Tx) error {
		// The batch row goes in first so every ledger row it produces
		// can reference it. Neither the lot upsert nor the batch insert
		// locks existing lot rows, so the ascending draw order below is
		// still the first locking step.
		outputLot, err := s.lotRepo.FindOrCreateTx(txCtx, tx, input.OutputItemID, input.OutputLotCode, input.UnitsProduced)
		if err != nil {
			return err
		}
		result.OutputLotID = outputLot.ID

		if err := s.batchRepo.CreateTx(txCtx, tx, &result.ProductionBatch); err != nil {
			return err
		}
		refType := repository.RefTypeProductionBatch

		// Draw every consumed lot. Each draw goes through the shared
		// ledger append, so an insufficient lot aborts the whole batch.
		for _, line := range lines {
			m := &repository.Movement{
				ItemID:     line.ItemID,
				LotID:      line.LotID,
				Type:       repository.TypeOut,
				Reason:     repository.ReasonProductionUse,
				Quantity:   line.Quantity,
				ShiftID:    &shift.ID,
				RefType:    &refType,
				RefID:      &result.ID,
				OccurredAt: occurredAt,
			}
			if err := s.movementRepo.AppendTx(txCtx, tx, m); err != nil {
				return err
			}
		}

		output := &repository.Movement{
			ItemID:     input.OutputItemID,
			LotID:      outputLot.ID,
			Type:       repository.TypeIn,
			Reason:     repository.ReasonProduction,
			Quantity:   input.UnitsProduced,
			ShiftID:    &shift.ID,
			RefType:    &refType,
			RefID:      &result.ID,
			OccurredAt: occurredAt,
		}
		if err := s.movementRepo.AppendTx(txCtx, tx, output); err != nil {
			return err
		}

		for _, line := range lines {
			c := &repository.ProductionConsumption{
				BatchID:  result.ID,
				ItemID:   line.ItemID,
				LotID:    line.LotID,
				Quantity: line.Quantity,
			}
			if err := s.batchRepo.AddConsumptionTx(txCtx, tx, c); err != nil {
				return err
			}
			result.Consumptions = append(result.Consumptions, c)
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrInsufficientStock):
			metrics.ProductionFailedTotal.WithLabelValues("insufficient_stock").Inc()
		case errors.Is(err, errors.ErrNotFound):
			metrics.ProductionFailedTotal.WithLabelValues("not_found").Inc()
		default:
			metrics.ProductionFailedTotal.WithLabelValues("other").Inc()
		}
		return nil, err
	}

	metrics.ProductionBatchesTotal.Inc()
	metrics.ProductionLatency.Observe(time.Since(start).Seconds())

	s.logger.Info().
		Int64("batch_id", result.ID).
		Int64("shift_id", shift.ID).
		Int64("output_item_id", result.OutputItemID).
		Int64("output_lot_id", result.OutputLotID).
		Str("units_produced", result.UnitsProduced.String()).
		Int("consumptions", len(result.Consumptions)).
		Msg("production batch recorded")

	s.publisher.PublishBatchRecorded(ctx, &result.ProductionBatch, len(result.Consumptions))

	return result, nil
}

// resolveShift resolves the shift a batch runs under before the ledger
// transaction opens. An explicit shift must exist and still be open,
// otherwise the latest open shift is used. No fallback to a default
// shift: production without an open shift is a conflict.
func (s *ProductionService) resolveShift(ctx context.Context, shiftID *int64) (*repository.Shift, error) {
	if shiftID != nil {
		shift, err := s.shiftRepo.GetByID(ctx, *shiftID)
		if err != nil {
			return nil, err
		}
		if shift.ClosedAt != nil {
			return nil, errors.Conflict("shift is closed")
		}
		return shift, nil
	}

	shift, err := s.shiftRepo.GetLatestOpen(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NoOpenShift()
		}
		return nil, err
	}
	return shift, nil
}

// GetBatch gets a batch with its consumption lines
func (s *ProductionService) GetBatch(ctx context.Context, id int64) (*repository.BatchWithConsumptions, error) {
	return s.batchRepo.GetByID(ctx, id)
}

// ListBatches lists production batches
func (s *ProductionService) ListBatches(ctx context.Context, page, perPage int, shiftID int64) ([]*repository.ProductionBatch, int64, error) {
	return s.batchRepo.List(ctx, page, perPage, shiftID)
}
