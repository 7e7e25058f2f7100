package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/gluglu/gluglu-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL constraint error to an AppError with a
// meaningful message. Anything it does not recognize, including non-pq
// errors like context timeouts, passes through unchanged so callers never
// see a typed-nil error.
func MapPQError(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return err
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be greater than zero",
		})

	case strings.Contains(constraint, "movement_type_valid"):
		return errors.Validation(map[string]string{
			"type": "must be one of: IN, OUT",
		})

	case strings.Contains(constraint, "reason_valid"):
		return errors.Validation(map[string]string{
			"reason": "must be one of: PURCHASE, PRODUCTION_USE, PRODUCTION, WASTE, ADJUSTMENT, RETURN",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "item_lots_item_id_lot_code"):
		return "a lot with this code already exists for the item"
	case strings.Contains(constraint, "items_name"):
		return "an item with this name already exists"
	default:
		return "a record with these values already exists"
	}
}
