package service

import (
	"context"
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

// LedgerService handles movement writes and ledger reads
type LedgerService struct {
	db           *database.DB
	movementRepo *repository.MovementRepository
	itemRepo     *repository.ItemRepository
	shiftRepo    *repository.ShiftRepository
	publisher    *events.InventoryEventPublisher
	logger       *logger.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	db *database.DB,
	movementRepo *repository.MovementRepository,
	itemRepo *repository.ItemRepository,
	shiftRepo *repository.ShiftRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *LedgerService {
	return &LedgerService{
		db:           db,
		movementRepo: movementRepo,
		itemRepo:     itemRepo,
		shiftRepo:    shiftRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// RecordMovementInput describes one manual ledger write
type RecordMovementInput struct {
	ItemID     int64
	LotID      int64
	Type       string
	Reason     string
	Quantity   decimal.Decimal
	ShiftID    *int64
	Note       *string
	OccurredAt *time.Time
}

// RecordMovement appends one movement to the ledger. The lot lock, the
// item match check, and the sufficiency check all happen inside the
// shared append path, so a rejected OUT leaves no trace.
func (s *LedgerService) RecordMovement(ctx context.Context, input RecordMovementInput) (*repository.Movement, error) {
	item, err := s.itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, errors.BadRequest("item is inactive")
	}

	if input.ShiftID != nil {
		if _, err := s.shiftRepo.GetByID(ctx, *input.ShiftID); err != nil {
			return nil, err
		}
	}

	movement := &repository.Movement{
		ItemID:   input.ItemID,
		LotID:    input.LotID,
		Type:     input.Type,
		Reason:   input.Reason,
		Quantity: input.Quantity,
		ShiftID:  input.ShiftID,
		Note:     input.Note,
	}
	if input.OccurredAt != nil {
		movement.OccurredAt = *input.OccurredAt
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return s.movementRepo.AppendTx(ctx, tx, movement)
	})
	if err != nil {
		if errors.Is(err, errors.ErrInsufficientStock) {
			metrics.MovementsRejectedTotal.WithLabelValues("insufficient_stock").Inc()
		}
		return nil, err
	}

	metrics.MovementsRecordedTotal.WithLabelValues(movement.Type, movement.Reason).Inc()

	s.logger.Info().
		Str("movement_id", movement.ID.String()).
		Int64("item_id", movement.ItemID).
		Int64("lot_id", movement.LotID).
		Str("type", movement.Type).
		Str("reason", movement.Reason).
		Str("quantity", movement.Quantity.String()).
		Msg("movement recorded")

	s.publisher.PublishMovementRecorded(ctx, movement)

	return movement, nil
}

// GetMovement gets one ledger row by ID
func (s *LedgerService) GetMovement(ctx context.Context, id repository.MovementID) (*repository.Movement, error) {
	return s.movementRepo.GetByID(ctx, id)
}

// ListMovements lists ledger rows, newest first
func (s *LedgerService) ListMovements(ctx context.Context, page, perPage int, filter repository.MovementFilter) ([]*repository.MovementWithContext, int64, error) {
	return s.movementRepo.List(ctx, page, perPage, filter)
}

// Ledger returns the chronological movement series with running per-lot
// balances
func (s *LedgerService) Ledger(ctx context.Context, filter repository.MovementFilter) ([]*repository.LedgerEntry, error) {
	return s.movementRepo.Ledger(ctx, filter)
}
