package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/gluglu/gluglu-backend/pkg/database"
	"github.com/gluglu/gluglu-backend/pkg/errors"
)

// Shift represents a production shift window
type Shift struct {
	ID       int64      `db:"id" json:"id"`
	Name     string     `db:"name" json:"name"`
	OpenedAt time.Time  `db:"opened_at" json:"opened_at"`
	ClosedAt *time.Time `db:"closed_at" json:"closed_at,omitempty"`
	Note     *string    `db:"note" json:"note,omitempty"`
}

// ShiftRepository handles shift persistence
type ShiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *database.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Open opens a new shift
func (r *ShiftRepository) Open(ctx context.Context, shift *Shift) error {
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO shifts (name, opened_at, note)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query, shift.Name, shift.OpenedAt, shift.Note).Scan(&shift.ID)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// Close closes an open shift
func (r *ShiftRepository) Close(ctx context.Context, id int64) (*Shift, error) {
	var shift Shift

	query := `
		UPDATE shifts SET closed_at = NOW()
		WHERE id = $1 AND closed_at IS NULL
		RETURNING id, name, opened_at, closed_at, note
	`
	err := r.db.GetContext(ctx, &shift, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("open shift")
	}
	if err != nil {
		return nil, err
	}

	return &shift, nil
}

// GetByID gets a shift by ID
func (r *ShiftRepository) GetByID(ctx context.Context, id int64) (*Shift, error) {
	var shift Shift

	query := `SELECT id, name, opened_at, closed_at, note FROM shifts WHERE id = $1`
	err := r.db.GetContext(ctx, &shift, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("shift")
	}
	if err != nil {
		return nil, err
	}

	return &shift, nil
}

// GetLatestOpen returns the most recently opened shift that is still
// open. Returns NotFound when no shift is open.
func (r *ShiftRepository) GetLatestOpen(ctx context.Context) (*Shift, error) {
	var shift Shift

	query := `
		SELECT id, name, opened_at, closed_at, note
		FROM shifts WHERE closed_at IS NULL
		ORDER BY opened_at DESC, id DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &shift, query)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("open shift")
	}
	if err != nil {
		return nil, err
	}

	return &shift, nil
}

// List lists shifts with pagination, newest first
func (r *ShiftRepository) List(ctx context.Context, page, perPage int) ([]*Shift, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM shifts`); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT id, name, opened_at, closed_at, note
		FROM shifts
		ORDER BY opened_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	var shifts []*Shift
	if err := r.db.SelectContext(ctx, &shifts, query, perPage, offset); err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}
