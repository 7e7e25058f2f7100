package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/errors"
)

// ProductionBatch records one production run: what was produced, under
// which shift, and when
type ProductionBatch struct {
	ID            int64           `db:"id" json:"id"`
	ShiftID       int64           `db:"shift_id" json:"shift_id"`
	OutputItemID  int64           `db:"output_item_id" json:"output_item_id"`
	OutputLotID   int64           `db:"output_lot_id" json:"output_lot_id"`
	UnitsProduced decimal.Decimal `db:"units_produced" json:"units_produced"`
	Note          *string         `db:"note" json:"note,omitempty"`
	OccurredAt    time.Time       `db:"occurred_at" json:"occurred_at"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// ProductionConsumption records one material draw of a batch
type ProductionConsumption struct {
	ID        int64           `db:"id" json:"id"`
	BatchID   int64           `db:"batch_id" json:"batch_id"`
	ItemID    int64           `db:"item_id" json:"item_id"`
	LotID     int64           `db:"lot_id" json:"lot_id"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// BatchWithConsumptions is a batch joined with its consumption lines
type BatchWithConsumptions struct {
	ProductionBatch
	Consumptions []*ProductionConsumption `json:"consumptions"`
}

// BatchRepository handles production batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateTx inserts a batch row inside an existing transaction
func (r *BatchRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, batch *ProductionBatch) error {
	query := `
		INSERT INTO production_batches (shift_id, output_item_id, output_lot_id, units_produced, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := tx.QueryRowxContext(ctx, query,
		batch.ShiftID, batch.OutputItemID, batch.OutputLotID,
		batch.UnitsProduced, batch.Note, batch.OccurredAt,
	).Scan(&batch.ID, &batch.CreatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// AddConsumptionTx inserts a consumption line inside an existing transaction
func (r *BatchRepository) AddConsumptionTx(ctx context.Context, tx *sqlx.Tx, c *ProductionConsumption) error {
	query := `
		INSERT INTO production_consumptions (batch_id, item_id, lot_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := tx.QueryRowxContext(ctx, query,
		c.BatchID, c.ItemID, c.LotID, c.Quantity,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// GetByID gets a batch with its consumption lines
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*BatchWithConsumptions, error) {
	var batch BatchWithConsumptions

	query := `
		SELECT id, shift_id, output_item_id, output_lot_id, units_produced, note, occurred_at, created_at
		FROM production_batches WHERE id = $1
	`
	err := r.db.GetContext(ctx, &batch.ProductionBatch, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("production batch")
	}
	if err != nil {
		return nil, err
	}

	consQuery := `
		SELECT id, batch_id, item_id, lot_id, quantity, created_at
		FROM production_consumptions WHERE batch_id = $1
		ORDER BY lot_id
	`
	if err := r.db.SelectContext(ctx, &batch.Consumptions, consQuery, id); err != nil {
		return nil, err
	}

	return &batch, nil
}

// List lists batches with pagination, newest first. A non-zero shiftID
// restricts the listing to one shift.
func (r *BatchRepository) List(ctx context.Context, page, perPage int, shiftID int64) ([]*ProductionBatch, int64, error) {
	where := ""
	args := []interface{}{}

	if shiftID != 0 {
		args = append(args, shiftID)
		where = ` WHERE shift_id = $1`
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM production_batches`+where, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	args = append(args, perPage, offset)
	query := `
		SELECT id, shift_id, output_item_id, output_lot_id, units_produced, note, occurred_at, created_at
		FROM production_batches` + where + `
		ORDER BY occurred_at DESC, id DESC
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	var batches []*ProductionBatch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}
