package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// ItemHandler handles catalog item endpoints
type ItemHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(svc *service.InventoryService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  log,
	}
}

// CreateItemRequest is the payload for creating an item
type CreateItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=255"`
	Category string  `json:"category" validate:"required,oneof=CAP SEAL LABEL SPOUT NEW_DRUM CHEMICAL FINISHED_GOOD"`
	Unit     string  `json:"unit" validate:"required,oneof=UND ML LT KG"`
	MinAlert *string `json:"min_alert" validate:"omitempty"`
}

// UpdateItemRequest is the payload for updating an item
type UpdateItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=255"`
	Category string  `json:"category" validate:"required,oneof=CAP SEAL LABEL SPOUT NEW_DRUM CHEMICAL FINISHED_GOOD"`
	Unit     string  `json:"unit" validate:"required,oneof=UND ML LT KG"`
	MinAlert *string `json:"min_alert" validate:"omitempty"`
	Active   *bool   `json:"active"`
}

// List lists catalog items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	filter := repository.ItemFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid active filter"))
			return
		}
		filter.Active = &active
	}

	items, total, err := h.service.ListItems(r.Context(), page, perPage, filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, items, httputil.NewMeta(page, perPage, total))
}

// Get gets an item by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Create creates a new item
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	minAlert, err := parseOptionalDecimal(req.MinAlert, "min_alert")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	item := &repository.Item{
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		MinAlert: minAlert,
		Active:   true,
	}
	if err := h.service.CreateItem(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Update updates an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	minAlert, err := parseOptionalDecimal(req.MinAlert, "min_alert")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	item := &repository.Item{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		MinAlert: minAlert,
		Active:   active,
	}
	if err := h.service.UpdateItem(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Deactivate deactivates an item, keeping its ledger history
func (h *ItemHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.SetItemActive(r.Context(), id, false); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// pathID parses an int64 path parameter
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest("invalid " + name)
	}
	return id, nil
}

// pagination parses page and per_page query parameters with defaults
func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return page, perPage
}

// parseOptionalDecimal parses an optional decimal string field
func parseOptionalDecimal(s *string, field string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, errors.Validation(map[string]string{field: "must be a decimal number"})
	}
	if d.IsNegative() {
		return nil, errors.Validation(map[string]string{field: "must not be negative"})
	}
	return &d, nil
}

// parseDecimal parses a required positive decimal string field
func parseDecimal(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Validation(map[string]string{field: "must be a decimal number"})
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.Validation(map[string]string{field: "must be greater than zero"})
	}
	return d, nil
}
