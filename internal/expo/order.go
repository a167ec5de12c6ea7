package expo

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderID = uuid.UUID

// Order statuses as delivered by the tenant backend.
const (
	StatusPending   = "PENDING"
	StatusPreparing = "PREPARING"
	StatusServed    = "SERVED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// orderSuccessor maps each status to its single legal staff-driven successor.
// Absent keys are terminal. Cancellation is handled separately because it is
// only reachable from PENDING.
var orderSuccessor = map[string]string{
	StatusPending:   StatusPreparing,
	StatusPreparing: StatusServed,
	StatusServed:    StatusCompleted,
}

// CanAdvance reports whether target is a legal staff-driven transition from
// current. Transitions never skip a stage and never re-enter an earlier one.
func CanAdvance(current, target string) bool {
	if target == StatusCancelled {
		return current == StatusPending
	}
	return target != "" && orderSuccessor[current] == target
}

// KnownStatus reports whether s is one of the five order statuses.
func KnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusServed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// LineItem is one ordered dish on an order.
type LineItem struct {
	Key       string          `json:"key"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Options   []string        `json:"options,omitempty"`
}

// Subtotal returns unit price times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItems is the ordered list of dishes on an order. The tenant backend
// historically serialized items as an object keyed by an opaque item key; the
// board normalizes that form into a key-sorted slice so display order is
// deterministic. The plain array form is accepted as well.
type LineItems []LineItem

func (ls *LineItems) UnmarshalJSON(data []byte) error {
	trimmed := firstNonSpace(data)

	if trimmed == '[' {
		var items []LineItem
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*ls = items
		return nil
	}

	if trimmed != '{' {
		return fmt.Errorf("items: expected object or array")
	}

	var keyed map[string]LineItem
	if err := json.Unmarshal(data, &keyed); err != nil {
		return err
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]LineItem, 0, len(keyed))
	for _, k := range keys {
		item := keyed[k]
		item.Key = k
		items = append(items, item)
	}
	*ls = items
	return nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

// Order is a customer's placed request for items, tied to a table or marked
// takeaway. Orders are created by the customer-facing surface; the board only
// drives their status forward.
type Order struct {
	ID          OrderID         `json:"id"`
	TableID     *string         `json:"table_id"`
	Items       LineItems       `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

// IsTakeaway reports whether the order has no table attached.
func (o *Order) IsTakeaway() bool {
	return o.TableID == nil || *o.TableID == ""
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// Advance moves the order to target after validating the transition.
func (o *Order) Advance(target string) error {
	if !KnownStatus(target) {
		return fmt.Errorf("unknown order status %q", target)
	}
	if !CanAdvance(o.Status, target) {
		return fmt.Errorf("illegal order transition %s -> %s", o.Status, target)
	}
	o.Status = target
	o.BeforeUpdate()
	return nil
}

func (o *Order) MarkAsPreparing() error {
	return o.Advance(StatusPreparing)
}

func (o *Order) MarkAsServed() error {
	return o.Advance(StatusServed)
}

func (o *Order) MarkAsCompleted() error {
	return o.Advance(StatusCompleted)
}

func (o *Order) Cancel() error {
	return o.Advance(StatusCancelled)
}
