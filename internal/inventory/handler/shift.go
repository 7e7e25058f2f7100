package handler

import (
	"net/http"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// ShiftHandler handles shift endpoints
type ShiftHandler struct {
	service *service.ShiftService
	logger  *logger.Logger
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(svc *service.ShiftService, log *logger.Logger) *ShiftHandler {
	return &ShiftHandler{
		service: svc,
		logger:  log,
	}
}

// OpenShiftRequest is the payload for opening a shift
type OpenShiftRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	OpenedAt *string `json:"opened_at" validate:"omitempty"`
	Note     *string `json:"note" validate:"omitempty,max=500"`
}

// Open opens a new shift
func (h *ShiftHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenShiftRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	shift := &repository.Shift{
		Name: req.Name,
		Note: req.Note,
	}

	openedAt, err := parseOptionalTime(req.OpenedAt, "opened_at")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if openedAt != nil {
		shift.OpenedAt = *openedAt
	}

	if err := h.service.Open(r.Context(), shift); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, shift)
}

// Close closes an open shift
func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	shift, err := h.service.Close(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, shift)
}

// Get gets a shift by ID
func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	shift, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, shift)
}

// Current returns the latest open shift
func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	shift, err := h.service.Current(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, shift)
}

// List lists shifts, newest first
func (h *ShiftHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	shifts, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, shifts, httputil.NewMeta(page, perPage, total))
}
