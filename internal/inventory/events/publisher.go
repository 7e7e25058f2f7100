package events

import (
	"context"

	"github.com/gluglu/gluglu-backend/internal/inventory/repository"
	"github.com/gluglu/gluglu-backend/pkg/logger"
	"github.com/gluglu/gluglu-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory and production events
type InventoryEventPublisher struct {
	inventory  *messaging.Publisher
	production *messaging.Publisher
	logger     *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	inventory, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	production, err := messaging.NewPublisher(rmq, messaging.ExchangeProductionEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		inventory:  inventory,
		production: production,
		logger:     log,
	}, nil
}

// PublishMovementRecorded publishes a movement recorded event
func (p *InventoryEventPublisher) PublishMovementRecorded(ctx context.Context, m *repository.Movement) {
	if p == nil {
		return
	}

	data := messaging.MovementRecordedEvent{
		MovementID: m.ID.String(),
		ItemID:     m.ItemID,
		LotID:      m.LotID,
		Type:       m.Type,
		Reason:     m.Reason,
		Quantity:   m.Quantity.String(),
	}

	if err := p.inventory.Publish(ctx, messaging.EventMovementRecorded, data); err != nil {
		p.logger.Error().Err(err).Str("movement_id", m.ID.String()).Msg("failed to publish movement recorded event")
	}
}

// PublishLowStock publishes a low stock event
func (p *InventoryEventPublisher) PublishLowStock(ctx context.Context, stock *repository.ItemStock) {
	if p == nil {
		return
	}

	threshold := "0"
	if stock.MinAlert != nil {
		threshold = stock.MinAlert.String()
	}

	data := messaging.LowStockEvent{
		ItemID:    stock.ItemID,
		ItemName:  stock.Name,
		Unit:      stock.Unit,
		Total:     stock.Total.String(),
		Threshold: threshold,
	}

	if err := p.inventory.Publish(ctx, messaging.EventLowStock, data); err != nil {
		p.logger.Error().Err(err).Int64("item_id", stock.ItemID).Msg("failed to publish low stock event")
	}
}

// PublishBatchRecorded publishes a production batch recorded event
func (p *InventoryEventPublisher) PublishBatchRecorded(ctx context.Context, batch *repository.ProductionBatch, consumptions int) {
	if p == nil {
		return
	}

	data := messaging.BatchRecordedEvent{
		BatchID:       batch.ID,
		ShiftID:       batch.ShiftID,
		OutputItemID:  batch.OutputItemID,
		OutputLotID:   batch.OutputLotID,
		UnitsProduced: batch.UnitsProduced.IntPart(),
		Consumptions:  consumptions,
	}

	if err := p.production.Publish(ctx, messaging.EventBatchRecorded, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", batch.ID).Msg("failed to publish batch recorded event")
	}
}
