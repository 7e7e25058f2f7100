package handler

import (
	"net/http"

	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// AlertHandler handles alert scan endpoints
type AlertHandler struct {
	scanner *service.AlertScanner
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(scanner *service.AlertScanner, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		scanner: scanner,
		logger:  log,
	}
}

// Scan triggers a low stock scan outside the schedule
func (h *AlertHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if err := h.scanner.Scan(r.Context()); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"status": "scan complete"})
}
