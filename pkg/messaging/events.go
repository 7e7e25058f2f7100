package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Inventory events
	EventMovementRecorded = "inventory.movement.recorded"
	EventLotCreated       = "inventory.lot.created"
	EventLowStock         = "inventory.stock.low"

	// Production events
	EventBatchRecorded = "production.batch.recorded"
)

// Exchange names
const (
	ExchangeInventoryEvents  = "inventory.events"
	ExchangeProductionEvents = "production.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and payload
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Data:          payload,
	}, nil
}

// MovementRecordedEvent is published after a ledger movement commits
type MovementRecordedEvent struct {
	MovementID string `json:"movement_id"`
	ItemID     int64  `json:"item_id"`
	LotID      int64  `json:"lot_id"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	Quantity   string `json:"quantity"`
}

// LowStockEvent is published when an item's projected total drops below
// its configured threshold
type LowStockEvent struct {
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	Unit      string `json:"unit"`
	Total     string `json:"total"`
	Threshold string `json:"threshold"`
}

// BatchRecordedEvent is published after a production batch commits
type BatchRecordedEvent struct {
	BatchID       int64 `json:"batch_id"`
	ShiftID       int64 `json:"shift_id"`
	OutputItemID  int64 `json:"output_item_id"`
	OutputLotID   int64 `json:"output_lot_id"`
	UnitsProduced int64 `json:"units_produced"`
	Consumptions  int   `json:"consumptions"`
}
