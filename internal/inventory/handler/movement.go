package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// MovementHandler handles ledger endpoints
type MovementHandler struct {
	service *service.LedgerService
	logger  *logger.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(svc *service.LedgerService, log *logger.Logger) *MovementHandler {
	return &MovementHandler{
		service: svc,
		logger:  log,
	}
}

// CreateMovementRequest is the payload for a manual ledger write
type CreateMovementRequest struct {
	ItemID     int64   `json:"item_id" validate:"required,gt=0"`
	LotID      int64   `json:"lot_id" validate:"required,gt=0"`
	Type       string  `json:"type" validate:"required,oneof=IN OUT"`
	Reason     string  `json:"reason" validate:"required,oneof=PURCHASE PRODUCTION_USE PRODUCTION WASTE ADJUSTMENT RETURN"`
	Quantity   string  `json:"quantity" validate:"required"`
	ShiftID    *int64  `json:"shift_id" validate:"omitempty,gt=0"`
	Note       *string `json:"note" validate:"omitempty,max=500"`
	OccurredAt *string `json:"occurred_at" validate:"omitempty"`
}

// Create records one ledger movement
func (h *MovementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMovementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	quantity, err := parseDecimal(req.Quantity, "quantity")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	occurredAt, err := parseOptionalTime(req.OccurredAt, "occurred_at")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	movement, err := h.service.RecordMovement(r.Context(), service.RecordMovementInput{
		ItemID:     req.ItemID,
		LotID:      req.LotID,
		Type:       req.Type,
		Reason:     req.Reason,
		Quantity:   quantity,
		ShiftID:    req.ShiftID,
		Note:       req.Note,
		OccurredAt: occurredAt,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, movement)
}

// Get gets a ledger row by ID
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		httputil.Error(w, errors.BadRequest("invalid id"))
		return
	}

	movement, err := h.service.GetMovement(r.Context(), repository.MovementID(id))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movement)
}

// List lists ledger rows, newest first
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	filter, err := movementFilterFromQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	movements, total, err := h.service.ListMovements(r.Context(), page, perPage, filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, httputil.NewMeta(page, perPage, total))
}

// Ledger returns the chronological series with running per-lot balances
func (h *MovementHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	filter, err := movementFilterFromQuery(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	entries, err := h.service.Ledger(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}

// movementFilterFromQuery parses common ledger filter query parameters
func movementFilterFromQuery(r *http.Request) (repository.MovementFilter, error) {
	var filter repository.MovementFilter
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"item_id", &filter.ItemID},
		{"lot_id", &filter.LotID},
		{"shift_id", &filter.ShiftID},
	} {
		if v := q.Get(p.name); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id < 1 {
				return filter, errors.BadRequest("invalid " + p.name)
			}
			*p.dst = id
		}
	}

	filter.Type = q.Get("type")
	filter.Reason = q.Get("reason")

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.BadRequest("invalid from timestamp")
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.BadRequest("invalid to timestamp")
		}
		filter.To = &t
	}

	return filter, nil
}
