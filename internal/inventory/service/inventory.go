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
)

// InventoryService handles the catalog and lot registry
type InventoryService struct {
	db           *database.DB
	itemRepo     *repository.ItemRepository
	lotRepo      *repository.LotRepository
	movementRepo *repository.MovementRepository
	publisher    *events.InventoryEventPublisher
	logger       *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	db *database.DB,
	itemRepo *repository.ItemRepository,
	lotRepo *repository.LotRepository,
	movementRepo *repository.MovementRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		db:           db,
		itemRepo:     itemRepo,
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		logger:       log,
	}
}

// Item operations

// CreateItem creates a new catalog item
func (s *InventoryService) CreateItem(ctx context.Context, item *repository.Item) error {
	return s.itemRepo.Create(ctx, item)
}

// GetItem gets an item by ID
func (s *InventoryService) GetItem(ctx context.Context, id int64) (*repository.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

// ListItems lists catalog items
func (s *InventoryService) ListItems(ctx context.Context, page, perPage int, filter repository.ItemFilter) ([]*repository.Item, int64, error) {
	return s.itemRepo.List(ctx, page, perPage, filter)
}

// UpdateItem updates a catalog item
func (s *InventoryService) UpdateItem(ctx context.Context, item *repository.Item) error {
	return s.itemRepo.Update(ctx, item)
}

// SetItemActive activates or deactivates an item. Deactivation hides the
// item from new activity but keeps its ledger history intact.
func (s *InventoryService) SetItemActive(ctx context.Context, id int64, active bool) error {
	return s.itemRepo.SetActive(ctx, id, active)
}

// Lot operations

// CreateLotInput describes a new lot. A positive InitialQuantity seeds
// the lot with an IN movement in the same transaction, so the lot never
// exists without its opening ledger row.
type CreateLotInput struct {
	ItemID          int64
	LotCode         string
	UnitCost        *decimal.Decimal
	ReceivedAt      *time.Time
	InitialQuantity decimal.Decimal
	InitialReason   string
	ShiftID         *int64
	Note            *string
}

// CreateLot creates a lot, optionally seeding it with an opening IN
// movement atomically
func (s *InventoryService) CreateLot(ctx context.Context, input CreateLotInput) (*repository.Lot, *repository.Movement, error) {
	item, err := s.itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if !item.Active {
		return nil, nil, errors.BadRequest("item is inactive")
	}

	lot := &repository.Lot{
		ItemID:     input.ItemID,
		LotCode:    input.LotCode,
		InitialQty: input.InitialQuantity,
		UnitCost:   input.UnitCost,
		ReceivedAt: input.ReceivedAt,
	}

	var movement *repository.Movement

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := s.lotRepo.CreateTx(ctx, tx, lot); err != nil {
			return err
		}

		if input.InitialQuantity.IsPositive() {
			reason := input.InitialReason
			if reason == "" {
				reason = repository.ReasonPurchase
			}

			movement = &repository.Movement{
				ItemID:   input.ItemID,
				LotID:    lot.ID,
				Type:     repository.TypeIn,
				Reason:   reason,
				Quantity: input.InitialQuantity,
				ShiftID:  input.ShiftID,
				Note:     input.Note,
			}
			if input.ReceivedAt != nil {
				movement.OccurredAt = *input.ReceivedAt
			}
			return s.movementRepo.AppendTx(ctx, tx, movement)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Int64("lot_id", lot.ID).
		Int64("item_id", lot.ItemID).
		Str("lot_code", lot.LotCode).
		Msg("lot created")

	if movement != nil {
		s.publisher.PublishMovementRecorded(ctx, movement)
	}

	return lot, movement, nil
}

// GetLot gets a lot by ID
func (s *InventoryService) GetLot(ctx context.Context, id int64) (*repository.Lot, error) {
	return s.lotRepo.GetByID(ctx, id)
}

// ListLots lists lots of an item
func (s *InventoryService) ListLots(ctx context.Context, itemID int64) ([]*repository.Lot, error) {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.lotRepo.ListByItem(ctx, itemID)
}

// UpdateLotMeta updates lot cost and receive date. Quantities only ever
// change through the ledger.
func (s *InventoryService) UpdateLotMeta(ctx context.Context, id int64, unitCost *decimal.Decimal, receivedAt *time.Time) (*repository.Lot, error) {
	return s.lotRepo.UpdateMeta(ctx, id, unitCost, receivedAt)
}
