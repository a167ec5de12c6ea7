package expo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CallID = uuid.UUID

// WaiterCall is a table-side request for staff attention, independent of any
// order. Calls are created by the table's call button; the board only ever
// acknowledges them. CANCELLED is reachable externally (guest withdrew the
// call) and is terminal.
type WaiterCall struct {
	ID        CallID    `json:"id"`
	TableID   string    `json:"table_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *WaiterCall) GetID() uuid.UUID {
	return c.ID
}

func (c *WaiterCall) ResourceType() string {
	return "waiter-call"
}

func (c *WaiterCall) BeforeUpdate() {
	c.UpdatedAt = time.Now()
}

// Acknowledge marks the call handled. Only pending calls can be acknowledged.
func (c *WaiterCall) Acknowledge() error {
	if c.Status != StatusPending {
		return fmt.Errorf("cannot acknowledge waiter call in status %s", c.Status)
	}
	c.Status = StatusCompleted
	c.BeforeUpdate()
	return nil
}
