package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gluglu/gluglu-backend/pkg/database"
)

// ItemStock is the projected stock of one item across all its lots
type ItemStock struct {
	ItemID   int64            `db:"item_id" json:"item_id"`
	Name     string           `db:"name" json:"name"`
	Category string           `db:"category" json:"category"`
	Unit     string           `db:"unit" json:"unit"`
	MinAlert *decimal.Decimal `db:"min_alert" json:"min_alert,omitempty"`
	Total    decimal.Decimal  `db:"total" json:"total"`
}

// LotStock is the projected stock of one lot
type LotStock struct {
	LotID      int64            `db:"lot_id" json:"lot_id"`
	ItemID     int64            `db:"item_id" json:"item_id"`
	LotCode    string           `db:"lot_code" json:"lot_code"`
	UnitCost   *decimal.Decimal `db:"unit_cost" json:"unit_cost,omitempty"`
	ReceivedAt *time.Time       `db:"received_at" json:"received_at,omitempty"`
	Balance    decimal.Decimal  `db:"balance" json:"balance"`
}

// StockRepository derives stock projections from the ledger. Stock is
// never stored, every read folds the movement log.
type StockRepository struct {
	db *database.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *database.DB) *StockRepository {
	return &StockRepository{db: db}
}

const itemTotalsQuery = `
	SELECT i.id AS item_id, i.name, i.category, i.unit, i.min_alert,
	       COALESCE(SUM(CASE WHEN im.type = 'IN' THEN im.quantity ELSE -im.quantity END), 0) AS total
	FROM items i
	LEFT JOIN inventory_movements im ON im.item_id = i.id`

// ItemTotals projects current stock per item
func (r *StockRepository) ItemTotals(ctx context.Context, activeOnly bool) ([]*ItemStock, error) {
	query := itemTotalsQuery
	if activeOnly {
		query += ` WHERE i.active = TRUE`
	}
	query += `
	GROUP BY i.id, i.name, i.category, i.unit, i.min_alert
	ORDER BY i.name`

	var totals []*ItemStock
	if err := r.db.SelectContext(ctx, &totals, query); err != nil {
		return nil, err
	}
	return totals, nil
}

// ItemTotalsAsOf projects stock per item as of a point in time, folding
// only movements that occurred at or before it
func (r *StockRepository) ItemTotalsAsOf(ctx context.Context, at time.Time) ([]*ItemStock, error) {
	query := `
	SELECT i.id AS item_id, i.name, i.category, i.unit, i.min_alert,
	       COALESCE(SUM(CASE WHEN im.type = 'IN' THEN im.quantity ELSE -im.quantity END), 0) AS total
	FROM items i
	LEFT JOIN inventory_movements im ON im.item_id = i.id AND im.occurred_at <= $1
	GROUP BY i.id, i.name, i.category, i.unit, i.min_alert
	ORDER BY i.name`

	var totals []*ItemStock
	if err := r.db.SelectContext(ctx, &totals, query, at); err != nil {
		return nil, err
	}
	return totals, nil
}

// ItemTotal projects the current stock of one item
func (r *StockRepository) ItemTotal(ctx context.Context, itemID int64) (decimal.Decimal, error) {
	var total decimal.Decimal

	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE -quantity END), 0)
		FROM inventory_movements WHERE item_id = $1
	`
	if err := r.db.GetContext(ctx, &total, query, itemID); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// LotBalances projects per-lot stock for an item
func (r *StockRepository) LotBalances(ctx context.Context, itemID int64) ([]*LotStock, error) {
	query := `
		SELECT l.id AS lot_id, l.item_id, l.lot_code, l.unit_cost, l.received_at,
		       COALESCE(SUM(CASE WHEN im.type = 'IN' THEN im.quantity ELSE -im.quantity END), 0) AS balance
		FROM item_lots l
		LEFT JOIN inventory_movements im ON im.lot_id = l.id
		WHERE l.item_id = $1
		GROUP BY l.id, l.item_id, l.lot_code, l.unit_cost, l.received_at
		ORDER BY l.created_at, l.id
	`

	var balances []*LotStock
	if err := r.db.SelectContext(ctx, &balances, query, itemID); err != nil {
		return nil, err
	}
	return balances, nil
}

// LowStock projects items whose total is below their configured
// threshold, deactivated ones included: their stock still sits in the
// plant. Items without a threshold compare against zero, so they only
// show up when the ledger has gone negative, which the write path forbids.
func (r *StockRepository) LowStock(ctx context.Context) ([]*ItemStock, error) {
	query := itemTotalsQuery + `
	GROUP BY i.id, i.name, i.category, i.unit, i.min_alert
	HAVING COALESCE(SUM(CASE WHEN im.type = 'IN' THEN im.quantity ELSE -im.quantity END), 0) < COALESCE(i.min_alert, 0)
	ORDER BY i.name`

	var items []*ItemStock
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}
