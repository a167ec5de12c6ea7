package event

import "time"

const (
	WaiterCallsTopic            = "tenant.waiter-calls"
	EventWaiterCallCreated      = "waiter_call.created"
	EventWaiterCallStatusChange = "waiter_call.status_changed"

	EventBoardCallAcknowledged = "board.call.acknowledged"
)

type WaiterCallEventMetadata struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	CallID     string    `json:"call_id"`
	TableID    string    `json:"table_id"`
}

type WaiterCallCreatedEvent struct {
	WaiterCallEventMetadata
	Status string `json:"status"`
}

type WaiterCallStatusChangedEvent struct {
	WaiterCallEventMetadata
	NewStatus      string `json:"new_status"`
	PreviousStatus string `json:"previous_status"`
}

// BoardCallEvent is published by the board when staff acknowledge a call.
type BoardCallEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	CallID     string    `json:"call_id"`
	TableID    string    `json:"table_id,omitempty"`
	NewStatus  string    `json:"new_status,omitempty"`
}
