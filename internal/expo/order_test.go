package expo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		name    string
		current string
		target  string
		want    bool
	}{
		{"pending to preparing", StatusPending, StatusPreparing, true},
		{"preparing to served", StatusPreparing, StatusServed, true},
		{"served to completed", StatusServed, StatusCompleted, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},

		// no skipping stages
		{"pending to served", StatusPending, StatusServed, false},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"preparing to completed", StatusPreparing, StatusCompleted, false},

		// no going back
		{"preparing to pending", StatusPreparing, StatusPending, false},
		{"served to preparing", StatusServed, StatusPreparing, false},
		{"completed to served", StatusCompleted, StatusServed, false},

		// cancel only from pending
		{"preparing to cancelled", StatusPreparing, StatusCancelled, false},
		{"served to cancelled", StatusServed, StatusCancelled, false},
		{"completed to cancelled", StatusCompleted, StatusCancelled, false},

		// terminal states stay terminal
		{"completed to pending", StatusCompleted, StatusPending, false},
		{"cancelled to pending", StatusCancelled, StatusPending, false},
		{"cancelled to preparing", StatusCancelled, StatusPreparing, false},

		{"self transition", StatusPreparing, StatusPreparing, false},
		{"empty target", StatusPending, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAdvance(tt.current, tt.target); got != tt.want {
				t.Errorf("CanAdvance(%s, %s) = %v, want %v", tt.current, tt.target, got, tt.want)
			}
		})
	}
}

func TestOrderAdvanceFullLifecycle(t *testing.T) {
	order := &Order{
		ID:        uuid.New(),
		Status:    StatusPending,
		CreatedAt: time.Now().Add(-time.Minute),
		UpdatedAt: time.Now().Add(-time.Minute),
	}

	steps := []struct {
		advance func() error
		want    string
	}{
		{order.MarkAsPreparing, StatusPreparing},
		{order.MarkAsServed, StatusServed},
		{order.MarkAsCompleted, StatusCompleted},
	}

	for _, step := range steps {
		before := order.UpdatedAt
		if err := step.advance(); err != nil {
			t.Fatalf("unexpected error advancing to %s: %v", step.want, err)
		}
		if order.Status != step.want {
			t.Errorf("status = %s, want %s", order.Status, step.want)
		}
		if !order.UpdatedAt.After(before) {
			t.Errorf("UpdatedAt not bumped on transition to %s", step.want)
		}
	}
}

func TestOrderAdvanceRejectsIllegalTransition(t *testing.T) {
	order := &Order{ID: uuid.New(), Status: StatusPreparing}

	if err := order.Cancel(); err == nil {
		t.Fatal("expected error cancelling a preparing order")
	}
	if order.Status != StatusPreparing {
		t.Errorf("status changed on rejected transition: %s", order.Status)
	}

	if err := order.Advance("BOGUS"); err == nil {
		t.Fatal("expected error advancing to unknown status")
	}
}

func TestLineItemsUnmarshalKeyedObject(t *testing.T) {
	data := []byte(`{
		"itm-b": {"name": "Soup", "quantity": 2, "price": "4.50"},
		"itm-a": {"name": "Bread", "quantity": 1, "price": "1.20", "options": ["no butter"]}
	}`)

	var items LineItems
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Key != "itm-a" || items[1].Key != "itm-b" {
		t.Errorf("items not key-sorted: %s, %s", items[0].Key, items[1].Key)
	}
	if items[0].Name != "Bread" {
		t.Errorf("item key mapping lost: %s", items[0].Name)
	}
	if len(items[0].Options) != 1 || items[0].Options[0] != "no butter" {
		t.Errorf("options lost: %v", items[0].Options)
	}
}

func TestLineItemsUnmarshalArray(t *testing.T) {
	data := []byte(`[
		{"key": "itm-z", "name": "Soup", "quantity": 2, "price": "4.50"},
		{"key": "itm-a", "name": "Bread", "quantity": 1, "price": "1.20"}
	]`)

	var items LineItems
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// array form keeps the backend's order
	if len(items) != 2 || items[0].Key != "itm-z" {
		t.Errorf("array order not preserved: %+v", items)
	}
}

func TestLineItemsUnmarshalRejectsScalar(t *testing.T) {
	var items LineItems
	if err := json.Unmarshal([]byte(`42`), &items); err == nil {
		t.Fatal("expected error for scalar items payload")
	}
}

func TestLineItemSubtotal(t *testing.T) {
	item := LineItem{
		Name:      "Soup",
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("4.50"),
	}

	want := decimal.RequireFromString("13.50")
	if got := item.Subtotal(); !got.Equal(want) {
		t.Errorf("Subtotal() = %s, want %s", got, want)
	}
}

func TestOrderIsTakeaway(t *testing.T) {
	table := "12"
	empty := ""

	tests := []struct {
		name    string
		tableID *string
		want    bool
	}{
		{"nil table", nil, true},
		{"empty table", &empty, true},
		{"with table", &table, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{TableID: tt.tableID}
			if got := order.IsTakeaway(); got != tt.want {
				t.Errorf("IsTakeaway() = %v, want %v", got, tt.want)
			}
		})
	}
}
