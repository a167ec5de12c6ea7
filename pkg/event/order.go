package event

import (
	"encoding/json"
	"time"
)

const (
	OrdersTopic            = "tenant.orders"
	EventOrderCreated      = "order.created"
	EventOrderStatusChange = "order.status_changed"
	EventOrderDeleted      = "order.deleted"
)

// Topics the board itself publishes to when staff drive a transition.
const (
	BoardTopic              = "board.events"
	EventBoardOrderAdvanced = "board.order.advanced"
	EventBoardOrderRemoved  = "board.order.removed"
)

type OrderEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    string    `json:"order_id"`

	// Denormalized data for board display
	TableID string `json:"table_id,omitempty"`
	Note    string `json:"note,omitempty"`
}

// OrderCreatedEvent is published by the ordering surface when a guest places
// an order. Items carry the backend's keyed-object wire form untouched.
type OrderCreatedEvent struct {
	OrderEventMetadata
	Status      string          `json:"status"`
	Items       json.RawMessage `json:"items,omitempty"`
	TotalAmount string          `json:"total_amount,omitempty"`
}

type OrderStatusChangedEvent struct {
	OrderEventMetadata
	NewStatus      string `json:"new_status"`
	PreviousStatus string `json:"previous_status"`
}

type OrderDeletedEvent struct {
	OrderEventMetadata
}

// BoardOrderEvent is published by the board after a staff-driven action.
type BoardOrderEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	NewStatus      string    `json:"new_status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
}
