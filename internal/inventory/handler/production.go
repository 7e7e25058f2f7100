package handler

import (
	"net/http"
	"strconv"

	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// ProductionHandler handles production batch endpoints
type ProductionHandler struct {
	service *service.ProductionService
	logger  *logger.Logger
}

// NewProductionHandler creates a new production handler
func NewProductionHandler(svc *service.ProductionService, log *logger.Logger) *ProductionHandler {
	return &ProductionHandler{
		service: svc,
		logger:  log,
	}
}

// ConsumptionLineRequest is one material draw of a batch
type ConsumptionLineRequest struct {
	ItemID   int64  `json:"item_id" validate:"required,gt=0"`
	LotID    int64  `json:"lot_id" validate:"required,gt=0"`
	Quantity string `json:"quantity" validate:"required"`
}

// RecordBatchRequest is the payload for recording a production batch
type RecordBatchRequest struct {
	ShiftID       *int64                   `json:"shift_id" validate:"omitempty,gt=0"`
	OutputItemID  int64                    `json:"output_item_id" validate:"required,gt=0"`
	OutputLotCode string                   `json:"output_lot_code" validate:"required,min=1,max=100"`
	UnitsProduced string                   `json:"units_produced" validate:"required"`
	Consumptions  []ConsumptionLineRequest `json:"consumptions" validate:"required,min=1,dive"`
	Note          *string                  `json:"note" validate:"omitempty,max=500"`
	OccurredAt    *string                  `json:"occurred_at" validate:"omitempty"`
}

// Create records a production batch atomically
func (h *ProductionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RecordBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	units, err := parseDecimal(req.UnitsProduced, "units_produced")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	occurredAt, err := parseOptionalTime(req.OccurredAt, "occurred_at")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	lines := make([]service.ConsumptionLine, 0, len(req.Consumptions))
	for _, c := range req.Consumptions {
		quantity, err := parseDecimal(c.Quantity, "consumptions.quantity")
		if err != nil {
			httputil.Error(w, err)
			return
		}
		lines = append(lines, service.ConsumptionLine{
			ItemID:   c.ItemID,
			LotID:    c.LotID,
			Quantity: quantity,
		})
	}

	batch, err := h.service.RecordBatch(r.Context(), service.RecordBatchInput{
		ShiftID:       req.ShiftID,
		OutputItemID:  req.OutputItemID,
		OutputLotCode: req.OutputLotCode,
		UnitsProduced: units,
		Lines:         lines,
		Note:          req.Note,
		OccurredAt:    occurredAt,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, batch)
}

// Get gets a batch with its consumption lines
func (h *ProductionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// List lists production batches
func (h *ProductionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	var shiftID int64
	if v := r.URL.Query().Get("shift_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 1 {
			httputil.Error(w, errors.BadRequest("invalid shift_id"))
			return
		}
		shiftID = parsed
	}

	batches, total, err := h.service.ListBatches(r.Context(), page, perPage, shiftID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, batches, httputil.NewMeta(page, perPage, total))
}
