package expo

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func makeOrder(status string, createdAgo, updatedAgo time.Duration, now time.Time) *Order {
	return &Order{
		ID:        uuid.New(),
		Status:    status,
		CreatedAt: now.Add(-createdAgo),
		UpdatedAt: now.Add(-updatedAgo),
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", FilterAll, false},
		{"all", FilterAll, false},
		{"active", FilterActive, false},
		{"completed", FilterCompleted, false},
		{"cancelled", FilterCancelled, false},
		{"bogus", "", true},
		{"ALL", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFilter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVisibleOrdersCompletedAutoExpiry(t *testing.T) {
	now := time.Now()

	recent := makeOrder(StatusCompleted, 5*time.Minute, 30*time.Second, now)
	stale := makeOrder(StatusCompleted, 5*time.Minute, 61*time.Second, now)

	visible := VisibleOrders([]*Order{recent, stale}, FilterAll, now)
	if len(visible) != 1 {
		t.Fatalf("got %d visible orders, want 1", len(visible))
	}
	if visible[0].ID != recent.ID {
		t.Error("recently completed order should stay visible, stale one should not")
	}
}

func TestVisibleOrdersExpiryOnlyAppliesToCompleted(t *testing.T) {
	now := time.Now()

	// old but not completed: stays visible under every applicable filter
	pending := makeOrder(StatusPending, 2*time.Hour, 2*time.Hour, now)
	cancelled := makeOrder(StatusCancelled, 2*time.Hour, 2*time.Hour, now)

	visible := VisibleOrders([]*Order{pending, cancelled}, FilterAll, now)
	if len(visible) != 2 {
		t.Fatalf("got %d visible orders, want 2", len(visible))
	}
}

func TestVisibleOrdersFilterComposition(t *testing.T) {
	now := time.Now()

	pending := makeOrder(StatusPending, time.Minute, time.Minute, now)
	preparing := makeOrder(StatusPreparing, 2*time.Minute, time.Minute, now)
	served := makeOrder(StatusServed, 3*time.Minute, time.Minute, now)
	completed := makeOrder(StatusCompleted, 4*time.Minute, 10*time.Second, now)
	expiredCompleted := makeOrder(StatusCompleted, 5*time.Minute, 2*time.Minute, now)
	cancelled := makeOrder(StatusCancelled, 6*time.Minute, time.Minute, now)

	all := []*Order{pending, preparing, served, completed, expiredCompleted, cancelled}

	tests := []struct {
		filter string
		want   int
	}{
		{FilterAll, 5}, // everything except the expired completed order
		{FilterActive, 3},
		{FilterCompleted, 1},
		{FilterCancelled, 1},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			visible := VisibleOrders(all, tt.filter, now)
			if len(visible) != tt.want {
				t.Errorf("filter %s: got %d orders, want %d", tt.filter, len(visible), tt.want)
			}
			for _, o := range visible {
				if o.ID == expiredCompleted.ID {
					t.Error("expired order leaked through filter")
				}
			}
		})
	}
}

func TestVisibleOrdersNewestFirst(t *testing.T) {
	now := time.Now()

	older := makeOrder(StatusPending, 10*time.Minute, time.Minute, now)
	newer := makeOrder(StatusPending, time.Minute, time.Minute, now)

	visible := VisibleOrders([]*Order{older, newer}, FilterAll, now)
	if len(visible) != 2 {
		t.Fatalf("got %d visible orders, want 2", len(visible))
	}
	if visible[0].ID != newer.ID {
		t.Error("orders not sorted newest first")
	}
}

func TestVisibleCallsOldestFirstWithExpiry(t *testing.T) {
	now := time.Now()

	oldest := &WaiterCall{ID: uuid.New(), Status: StatusPending, CreatedAt: now.Add(-5 * time.Minute), UpdatedAt: now.Add(-5 * time.Minute)}
	newest := &WaiterCall{ID: uuid.New(), Status: StatusPending, CreatedAt: now.Add(-time.Minute), UpdatedAt: now.Add(-time.Minute)}
	handled := &WaiterCall{ID: uuid.New(), Status: StatusCompleted, CreatedAt: now.Add(-10 * time.Minute), UpdatedAt: now.Add(-90 * time.Second)}

	visible := VisibleCalls([]*WaiterCall{newest, handled, oldest}, now)
	if len(visible) != 2 {
		t.Fatalf("got %d visible calls, want 2", len(visible))
	}
	if visible[0].ID != oldest.ID {
		t.Error("calls not sorted longest-waiting first")
	}
}

func TestElapsedLabel(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		since time.Time
		want  string
	}{
		{"fresh", now.Add(-5 * time.Second), "just now"},
		{"under a minute", now.Add(-59 * time.Second), "just now"},
		{"one minute", now.Add(-time.Minute), "1 min"},
		{"rounds down", now.Add(-90 * time.Second), "1 min"},
		{"many minutes", now.Add(-7*time.Minute - 12*time.Second), "7 min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedLabel(tt.since, now); got != tt.want {
				t.Errorf("ElapsedLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
