package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/internal/inventory/service"
	"github.com/gluglu/gluglu-backend/pkg/httputil"
	"github.com/gluglu/gluglu-backend/pkg/logger"
)

// ExportHandler handles ledger CSV exports
type ExportHandler struct {
	service *service.LedgerService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.LedgerService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		service: svc,
		logger:  log,
	}
}

// ExportLedgerCSV streams the filtered ledger as a CSV file with running
// per-lot balances
func (h *ExportHandler) ExportLedgerCSV(w http.ResponseWriter, r *http.Request) {
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

	filename := fmt.Sprintf("ledger-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"id", "occurred_at", "item_id", "item", "lot_id", "lot_code", "type", "reason", "quantity_in", "quantity_out", "unit", "balance", "shift_id", "note"}
	if err := cw.Write(header); err != nil {
		h.logger.Error().Err(err).Msg("failed to write CSV header")
		return
	}

	for _, e := range entries {
		shiftID := ""
		if e.ShiftID != nil {
			shiftID = fmt.Sprintf("%d", *e.ShiftID)
		}
		note := ""
		if e.Note != nil {
			note = *e.Note
		}

		// Kardex convention: IN and OUT quantities in separate columns
		quantityIn, quantityOut := "", ""
		if e.Type == repository.TypeIn {
			quantityIn = e.Quantity.String()
		} else {
			quantityOut = e.Quantity.String()
		}

		row := []string{
			e.ID.String(),
			e.OccurredAt.Format(time.RFC3339),
			fmt.Sprintf("%d", e.ItemID),
			e.ItemName,
			fmt.Sprintf("%d", e.LotID),
			e.LotCode,
			e.Type,
			e.Reason,
			quantityIn,
			quantityOut,
			e.ItemUnit,
			e.Balance.String(),
			shiftID,
			note,
		}
		if err := cw.Write(row); err != nil {
			h.logger.Error().Err(err).Msg("failed to write CSV row")
			return
		}
	}
}
