package handler

import (
	"net/http"
	"time"

	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// LotHandler handles lot registry endpoints
type LotHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(svc *service.InventoryService, log *logger.Logger) *LotHandler {
	return &LotHandler{
		service: svc,
		logger:  log,
	}
}

// CreateLotRequest is the payload for creating a lot. InitialQuantity
// seeds the lot with an opening IN movement in the same transaction.
type CreateLotRequest struct {
	LotCode         string  `json:"lot_code" validate:"required,min=1,max=100"`
	UnitCost        *string `json:"unit_cost" validate:"omitempty"`
	ReceivedAt      *string `json:"received_at" validate:"omitempty"`
	InitialQuantity *string `json:"initial_quantity" validate:"omitempty"`
	InitialReason   string  `json:"initial_reason" validate:"omitempty,oneof=PURCHASE RETURN ADJUSTMENT"`
	ShiftID         *int64  `json:"shift_id" validate:"omitempty,gt=0"`
	Note            *string `json:"note" validate:"omitempty,max=500"`
}

// UpdateLotRequest is the payload for updating lot metadata
type UpdateLotRequest struct {
	UnitCost   *string `json:"unit_cost" validate:"omitempty"`
	ReceivedAt *string `json:"received_at" validate:"omitempty"`
}

// Create creates a lot under an item
func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req CreateLotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	input := service.CreateLotInput{
		ItemID:        itemID,
		LotCode:       req.LotCode,
		InitialReason: req.InitialReason,
		ShiftID:       req.ShiftID,
		Note:          req.Note,
	}

	if input.UnitCost, err = parseOptionalDecimal(req.UnitCost, "unit_cost"); err != nil {
		httputil.Error(w, err)
		return
	}
	if input.ReceivedAt, err = parseOptionalTime(req.ReceivedAt, "received_at"); err != nil {
		httputil.Error(w, err)
		return
	}
	if req.InitialQuantity != nil && *req.InitialQuantity != "" {
		if input.InitialQuantity, err = parseDecimal(*req.InitialQuantity, "initial_quantity"); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	lot, movement, err := h.service.CreateLot(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"lot":              lot,
		"opening_movement": movement,
	})
}

// Get gets a lot by ID
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// ListByItem lists the lots of an item
func (h *LotHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lots, err := h.service.ListLots(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

// Update updates lot cost and receive date
func (h *LotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateLotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	unitCost, err := parseOptionalDecimal(req.UnitCost, "unit_cost")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	receivedAt, err := parseOptionalTime(req.ReceivedAt, "received_at")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lot, err := h.service.UpdateLotMeta(r.Context(), id, unitCost, receivedAt)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// parseOptionalTime parses an optional RFC 3339 timestamp field
func parseOptionalTime(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, errors.Validation(map[string]string{field: "must be an RFC 3339 timestamp"})
	}
	return &t, nil
}
