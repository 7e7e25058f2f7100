package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/errors"
)

// Movement types
const (
	TypeIn  = "IN"
	TypeOut = "OUT"
)

// Movement reasons
const (
	ReasonPurchase      = "PURCHASE"
	ReasonProductionUse = "PRODUCTION_USE"
	ReasonProduction    = "PRODUCTION"
	ReasonWaste         = "WASTE"
	ReasonAdjustment    = "ADJUSTMENT"
	ReasonReturn        = "RETURN"
)

// Movement reference types
const (
	RefTypeProductionBatch = "PRODUCTION_BATCH"
)

// MovementID is a BIGSERIAL ledger identifier. It serializes as a decimal
// string on the wire so clients that read JSON numbers as floats never
// lose precision.
type MovementID int64

// MarshalJSON renders the ID as a quoted decimal string
func (id MovementID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatInt(int64(id), 10))), nil
}

// UnmarshalJSON accepts both a quoted string and a bare number
func (id *MovementID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid movement id %q", string(data))
	}
	*id = MovementID(v)
	return nil
}

// Value implements driver.Valuer
func (id MovementID) Value() (driver.Value, error) {
	return int64(id), nil
}

// Scan implements sql.Scanner
func (id *MovementID) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*id = MovementID(v)
		return nil
	case []byte:
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid movement id %q", string(v))
		}
		*id = MovementID(parsed)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MovementID", src)
	}
}

// String renders the ID in its wire form
func (id MovementID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Movement is one immutable row of the ledger
type Movement struct {
	ID         MovementID      `db:"id" json:"id"`
	ItemID     int64           `db:"item_id" json:"item_id"`
	LotID      int64           `db:"lot_id" json:"lot_id"`
	Type       string          `db:"type" json:"type"`
	Reason     string          `db:"reason" json:"reason"`
	Quantity   decimal.Decimal `db:"quantity" json:"quantity"`
	ShiftID    *int64          `db:"shift_id" json:"shift_id,omitempty"`
	RefType    *string         `db:"ref_type" json:"ref_type,omitempty"`
	RefID      *int64          `db:"ref_id" json:"ref_id,omitempty"`
	Note       *string         `db:"note" json:"note,omitempty"`
	OccurredAt time.Time       `db:"occurred_at" json:"occurred_at"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// MovementWithContext is a ledger row joined with its item and lot for
// listings and exports
type MovementWithContext struct {
	Movement
	ItemName string `db:"item_name" json:"item_name"`
	ItemUnit string `db:"item_unit" json:"item_unit"`
	LotCode  string `db:"lot_code" json:"lot_code"`
}

// LedgerEntry is a ledger row with the running per-lot balance after it
type LedgerEntry struct {
	MovementWithContext
	Balance decimal.Decimal `db:"balance" json:"balance"`
}

// MovementFilter narrows ledger listings
type MovementFilter struct {
	ItemID  int64
	LotID   int64
	Type    string
	Reason  string
	ShiftID int64
	From    *time.Time
	To      *time.Time
}

// MovementRepository handles the append-only ledger
type MovementRepository struct {
	db *database.DB
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *database.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

const movementColumns = `id, item_id, lot_id, type, reason, quantity, shift_id, ref_type, ref_id, note, occurred_at, created_at`

// AppendTx appends one movement to the ledger inside an existing
// transaction. This is the single write path for every stock mutation:
// it locks the lot row, verifies the lot belongs to the stated item,
// folds the current lot balance, and rejects an OUT that would drive
// the balance negative.
//
// The sufficiency check reads the lot's present balance over all rows,
// not the balance at occurred_at. A backdated OUT can therefore make the
// historical running series dip below zero at an intermediate row while
// the present balance stays non-negative.
func (r *MovementRepository) AppendTx(ctx context.Context, tx *sqlx.Tx, m *Movement) error {
	lot, err := lockLot(ctx, tx, m.LotID)
	if err != nil {
		return err
	}
	if lot.ItemID != m.ItemID {
		return errors.LotItemMismatch(m.LotID, m.ItemID)
	}

	if m.Type == TypeOut {
		balance, err := lotBalanceTx(ctx, tx, m.LotID)
		if err != nil {
			return err
		}
		if balance.LessThan(m.Quantity) {
			return errors.InsufficientStock(balance.String(), m.Quantity.String())
		}
	}

	if m.OccurredAt.IsZero() {
		m.OccurredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO inventory_movements (item_id, lot_id, type, reason, quantity, shift_id, ref_type, ref_id, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err = tx.QueryRowxContext(ctx, query,
		m.ItemID, m.LotID, m.Type, m.Reason, m.Quantity,
		m.ShiftID, m.RefType, m.RefID, m.Note, m.OccurredAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// lotBalanceTx folds the signed quantity sum for one lot inside a
// transaction. The caller must hold the lot lock.
func lotBalanceTx(ctx context.Context, tx *sqlx.Tx, lotID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal

	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)
		FROM inventory_movements WHERE lot_id = $1
	`
	if err := tx.GetContext(ctx, &balance, query, lotID); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// GetByID gets a movement by ID
func (r *MovementRepository) GetByID(ctx context.Context, id MovementID) (*Movement, error) {
	var m Movement

	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1`
	err := r.db.GetContext(ctx, &m, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("movement")
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// List lists ledger rows with item and lot context, newest first
func (r *MovementRepository) List(ctx context.Context, page, perPage int, filter MovementFilter) ([]*MovementWithContext, int64, error) {
	where, args := buildMovementFilter(filter)

	var total int64
	countQuery := `
		SELECT COUNT(*)
		FROM inventory_movements im
		JOIN items i ON i.id = im.item_id
		JOIN item_lots l ON l.id = im.lot_id` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	args = append(args, perPage, offset)
	query := `
		SELECT im.id, im.item_id, im.lot_id, im.type, im.reason, im.quantity,
		       im.shift_id, im.ref_type, im.ref_id, im.note, im.occurred_at, im.created_at,
		       i.name AS item_name, i.unit AS item_unit, l.lot_code
		FROM inventory_movements im
		JOIN items i ON i.id = im.item_id
		JOIN item_lots l ON l.id = im.lot_id` + where + `
		ORDER BY im.occurred_at DESC, im.id DESC
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	var rows []*MovementWithContext
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// Ledger returns the chronological ledger with the running per-lot
// balance after each row. Oldest first, so the series reads like a
// kardex card.
func (r *MovementRepository) Ledger(ctx context.Context, filter MovementFilter) ([]*LedgerEntry, error) {
	where, args := buildMovementFilter(filter)

	query := `
		SELECT im.id, im.item_id, im.lot_id, im.type, im.reason, im.quantity,
		       im.shift_id, im.ref_type, im.ref_id, im.note, im.occurred_at, im.created_at,
		       i.name AS item_name, i.unit AS item_unit, l.lot_code,
		       SUM(CASE WHEN im.type = 'IN' THEN im.quantity ELSE -im.quantity END)
		           OVER (PARTITION BY im.lot_id ORDER BY im.occurred_at, im.id) AS balance
		FROM inventory_movements im
		JOIN items i ON i.id = im.item_id
		JOIN item_lots l ON l.id = im.lot_id` + where + `
		ORDER BY im.occurred_at, im.id`

	var entries []*LedgerEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}

	return entries, nil
}

func buildMovementFilter(filter MovementFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filter.ItemID != 0 {
		args = append(args, filter.ItemID)
		where += ` AND im.item_id = $` + itoa(len(args))
	}
	if filter.LotID != 0 {
		args = append(args, filter.LotID)
		where += ` AND im.lot_id = $` + itoa(len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += ` AND im.type = $` + itoa(len(args))
	}
	if filter.Reason != "" {
		args = append(args, filter.Reason)
		where += ` AND im.reason = $` + itoa(len(args))
	}
	if filter.ShiftID != 0 {
		args = append(args, filter.ShiftID)
		where += ` AND im.shift_id = $` + itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += ` AND im.occurred_at >= $` + itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += ` AND im.occurred_at <= $` + itoa(len(args))
	}

	return where, args
}
