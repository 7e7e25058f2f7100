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

// Lot represents a physical batch of an item, identified by item and code
type Lot struct {
	ID         int64            `db:"id" json:"id"`
	ItemID     int64            `db:"item_id" json:"item_id"`
	LotCode    string           `db:"lot_code" json:"lot_code"`
	InitialQty decimal.Decimal  `db:"initial_qty" json:"initial_qty"`
	UnitCost   *decimal.Decimal `db:"unit_cost" json:"unit_cost,omitempty"`
	ReceivedAt *time.Time       `db:"received_at" json:"received_at,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// LotRepository handles lot persistence
type LotRepository struct {
	db *database.DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *database.DB) *LotRepository {
	return &LotRepository{db: db}
}

// Create creates a new lot
func (r *LotRepository) Create(ctx context.Context, lot *Lot) error {
	query := `
		INSERT INTO item_lots (item_id, lot_code, initial_qty, unit_cost, received_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		lot.ItemID, lot.LotCode, lot.InitialQty, lot.UnitCost, lot.ReceivedAt,
	).Scan(&lot.ID, &lot.CreatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// CreateTx creates a new lot inside an existing transaction
func (r *LotRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, lot *Lot) error {
	query := `
		INSERT INTO item_lots (item_id, lot_code, initial_qty, unit_cost, received_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := tx.QueryRowxContext(ctx, query,
		lot.ItemID, lot.LotCode, lot.InitialQty, lot.UnitCost, lot.ReceivedAt,
	).Scan(&lot.ID, &lot.CreatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// FindOrCreateTx returns the lot with the given code for the item, creating
// it with the given initial quantity if it does not exist. An existing lot
// keeps its recorded initial quantity. Safe under concurrent callers: the
// insert uses ON CONFLICT DO NOTHING and falls back to a re-select.
func (r *LotRepository) FindOrCreateTx(ctx context.Context, tx *sqlx.Tx, itemID int64, lotCode string, initialQty decimal.Decimal) (*Lot, error) {
	var lot Lot

	insert := `
		INSERT INTO item_lots (item_id, lot_code, initial_qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, lot_code) DO NOTHING
		RETURNING id, item_id, lot_code, initial_qty, unit_cost, received_at, created_at
	`
	err := tx.GetContext(ctx, &lot, insert, itemID, lotCode, initialQty)
	if err == nil {
		return &lot, nil
	}
	if err != sql.ErrNoRows {
		return nil, database.MapPQError(err)
	}

	// Lost the race, the lot already exists
	query := `
		SELECT id, item_id, lot_code, initial_qty, unit_cost, received_at, created_at
		FROM item_lots WHERE item_id = $1 AND lot_code = $2
	`
	if err := tx.GetContext(ctx, &lot, query, itemID, lotCode); err != nil {
		return nil, err
	}
	return &lot, nil
}

// GetByID gets a lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id int64) (*Lot, error) {
	var lot Lot

	query := `
		SELECT id, item_id, lot_code, initial_qty, unit_cost, received_at, created_at
		FROM item_lots WHERE id = $1
	`
	err := r.db.GetContext(ctx, &lot, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("lot")
	}
	if err != nil {
		return nil, err
	}

	return &lot, nil
}

// GetByCode gets a lot by item and lot code
func (r *LotRepository) GetByCode(ctx context.Context, itemID int64, lotCode string) (*Lot, error) {
	var lot Lot

	query := `
		SELECT id, item_id, lot_code, initial_qty, unit_cost, received_at, created_at
		FROM item_lots WHERE item_id = $1 AND lot_code = $2
	`
	err := r.db.GetContext(ctx, &lot, query, itemID, lotCode)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("lot")
	}
	if err != nil {
		return nil, err
	}

	return &lot, nil
}

// ListByItem lists all lots of an item, newest first
func (r *LotRepository) ListByItem(ctx context.Context, itemID int64) ([]*Lot, error) {
	var lots []*Lot

	query := `
		SELECT id, item_id, lot_code, initial_qty, unit_cost, received_at, created_at
		FROM item_lots WHERE item_id = $1
		ORDER BY created_at DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &lots, query, itemID); err != nil {
		return nil, err
	}

	return lots, nil
}

// UpdateMeta updates the mutable lot metadata. The item binding and lot
// code are immutable once movements reference the lot.
func (r *LotRepository) UpdateMeta(ctx context.Context, id int64, unitCost *decimal.Decimal, receivedAt *time.Time) (*Lot, error) {
	var lot Lot

	query := `
		UPDATE item_lots SET unit_cost = $2, received_at = $3
		WHERE id = $1
		RETURNING id, item_id, lot_code, initial_qty, unit_cost, received_at, created_at
	`
	err := r.db.GetContext(ctx, &lot, query, id, unitCost, receivedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("lot")
	}
	if err != nil {
		return nil, database.MapPQError(err)
	}

	return &lot, nil
}

// lockLot reads a lot row with FOR UPDATE so concurrent ledger writers
// against the same lot serialize
func lockLot(ctx context.Context, tx *sqlx.Tx, lotID int64) (*Lot, error) {
	var lot Lot

	query := `
		SELECT id, item_id, lot_code, initial_qty, unit_cost, received_at, created_at
		FROM item_lots WHERE id = $1
		FOR UPDATE
	`
	err := tx.GetContext(ctx, &lot, query, lotID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("lot")
	}
	if err != nil {
		return nil, err
	}

	return &lot, nil
}
