package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/errors"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// StockHandler handles stock projection endpoints
type StockHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  log,
	}
}

// Totals projects current stock per item. An `at` query parameter
// projects the stock as of that point in time instead: a calendar date
// folds everything through the end of that day, an RFC 3339 timestamp
// cuts at the exact instant.
func (h *StockHandler) Totals(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("at"); v != "" {
		at, err := parseAsOf(v)
		if err != nil {
			httputil.Error(w, err)
			return
		}

		totals, err := h.service.TotalsAsOf(r.Context(), at)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.JSON(w, http.StatusOK, totals)
		return
	}

	activeOnly := true
	if v := r.URL.Query().Get("active"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			httputil.Error(w, errors.BadRequest("invalid active filter"))
			return
		}
		activeOnly = parsed
	}

	totals, err := h.service.Totals(r.Context(), activeOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, totals)
}

// parseAsOf parses a snapshot cutoff: YYYY-MM-DD (end of that day, UTC)
// or an exact RFC 3339 timestamp
func parseAsOf(v string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", v); err == nil {
		return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, errors.BadRequest("at must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return t, nil
}

// ItemStock projects one item's stock with its per-lot breakdown
func (h *StockHandler) ItemStock(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	stock, lots, err := h.service.ItemStock(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"item": stock,
		"lots": lots,
	})
}

// Low projects items below their threshold
func (h *StockHandler) Low(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}
