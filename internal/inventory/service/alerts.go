package service

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/gluglu/gluglu-backend/internal/inventory/events"
	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/pkg/logger"
	"github.com/gluglu/gluglu-backend/pkg/metrics"
)

// AlertScanner periodically projects stock from the ledger and emits a
// low stock event for every item below its threshold
type AlertScanner struct {
	stockRepo *repository.StockRepository
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
	cron      *cron.Cron
}

// NewAlertScanner creates a new alert scanner
func NewAlertScanner(
	stockRepo *repository.StockRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
) *AlertScanner {
	return &AlertScanner{
		stockRepo: stockRepo,
		publisher: publisher,
		logger:    log,
	}
}

// Scan runs one low stock pass
func (s *AlertScanner) Scan(ctx context.Context) error {
	items, err := s.stockRepo.LowStock(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		threshold := "0"
		if item.MinAlert != nil {
			threshold = item.MinAlert.String()
		}

		s.logger.Warn().
			Int64("item_id", item.ItemID).
			Str("item", item.Name).
			Str("total", item.Total.String()).
			Str("threshold", threshold).
			Msg("item below stock threshold")

		metrics.LowStockAlertsTotal.Inc()
		s.publisher.PublishLowStock(ctx, item)
	}

	s.logger.Debug().Int("low_stock_items", len(items)).Msg("low stock scan complete")
	return nil
}

// Start schedules the scan on the given cron spec
func (s *AlertScanner) Start(spec string) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(spec, func() {
		if err := s.Scan(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("low stock scan failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().Str("spec", spec).Msg("low stock scanner started")
	return nil
}

// Stop stops the scheduled scans
func (s *AlertScanner) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
