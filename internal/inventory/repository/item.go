package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/errors"
)

// Item categories
const (
	CategoryCap          = "CAP"
	CategorySeal         = "SEAL"
	CategoryLabel        = "LABEL"
	CategorySpout        = "SPOUT"
	CategoryNewDrum      = "NEW_DRUM"
	CategoryChemical     = "CHEMICAL"
	CategoryFinishedGood = "FINISHED_GOOD"
)

// Measurement units
const (
	UnitUnd = "UND"
	UnitMl  = "ML"
	UnitLt  = "LT"
	UnitKg  = "KG"
)

// Item represents a catalog item tracked by the ledger
type Item struct {
	ID        int64            `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Category  string           `db:"category" json:"category"`
	Unit      string           `db:"unit" json:"unit"`
	MinAlert  *decimal.Decimal `db:"min_alert" json:"min_alert,omitempty"`
	Active    bool             `db:"active" json:"active"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// ItemFilter narrows item listings
type ItemFilter struct {
	Search   string
	Category string
	Active   *bool
}

// ItemRepository handles catalog item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new catalog item
func (r *ItemRepository) Create(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO items (name, category, unit, min_alert, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.Name, item.Category, item.Unit, item.MinAlert, item.Active,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*Item, error) {
	var item Item

	query := `
		SELECT id, name, category, unit, min_alert, active, created_at, updated_at
		FROM items WHERE id = $1
	`
	err := r.db.GetContext(ctx, &item, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("item")
	}
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// List lists catalog items with pagination and optional filters
func (r *ItemRepository) List(ctx context.Context, page, perPage int, filter ItemFilter) ([]*Item, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += ` AND name ILIKE $` + itoa(len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += ` AND category = $` + itoa(len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		where += ` AND active = $` + itoa(len(args))
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM items`+where, args...); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	args = append(args, perPage, offset)
	query := `
		SELECT id, name, category, unit, min_alert, active, created_at, updated_at
		FROM items` + where + `
		ORDER BY name
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	var items []*Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Update updates a catalog item
func (r *ItemRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE items SET
			name = $2, category = $3, unit = $4, min_alert = $5, active = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.Name, item.Category, item.Unit, item.MinAlert, item.Active,
	).Scan(&item.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("item")
	}
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// SetActive activates or deactivates an item
func (r *ItemRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE items SET active = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("item")
	}
	return nil
}
