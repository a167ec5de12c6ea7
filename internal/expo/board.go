package expo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/expeditehq/expedite/pkg/event"
)

// Errors the console API maps to status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal transition")
)

// Resyncer schedules an out-of-band poll cycle, used after a backend request
// fails so the authoritative state is restored within one interval.
type Resyncer interface {
	ResyncSoon()
}

// Broadcaster pushes board updates to attached consoles.
type Broadcaster interface {
	Broadcast(name, data string)
}

// Board drives the order and waiter-call state machines for one restaurant.
// Staff actions are applied to the local caches first and sent to the tenant
// backend afterwards; a failed backend request is never surfaced to the
// console, it only schedules a resync that restores the backend's view.
type Board struct {
	orders    *OrderStateCache
	calls     *CallStateCache
	gateway   Gateway
	publisher events.Publisher
	stream    Broadcaster
	gate      *SoundGate
	resyncer  Resyncer
	logger    apt.Logger
}

func NewBoard(
	orders *OrderStateCache,
	calls *CallStateCache,
	gateway Gateway,
	publisher events.Publisher,
	stream Broadcaster,
	gate *SoundGate,
	logger apt.Logger,
) *Board {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Board{
		orders:    orders,
		calls:     calls,
		gateway:   gateway,
		publisher: publisher,
		stream:    stream,
		gate:      gate,
		logger:    logger,
	}
}

// SetResyncer wires the poller in after construction.
func (b *Board) SetResyncer(r Resyncer) {
	b.resyncer = r
}

// Orders exposes the order cache.
func (b *Board) Orders() *OrderStateCache {
	return b.orders
}

// Calls exposes the waiter-call cache.
func (b *Board) Calls() *CallStateCache {
	return b.calls
}

// Gate exposes the sound gate.
func (b *Board) Gate() *SoundGate {
	return b.gate
}

// VisibleOrders returns the board view for the given filter at now.
func (b *Board) VisibleOrders(filter string, now time.Time) []*Order {
	return VisibleOrders(b.orders.GetAll(), filter, now)
}

// VisibleCalls returns the call board view at now.
func (b *Board) VisibleCalls(now time.Time) []*WaiterCall {
	return VisibleCalls(b.calls.GetAll(), now)
}

// AdvanceOrder validates and applies a staff-driven status transition. The
// change lands in the cache immediately; the backend update runs afterwards
// and a failure only schedules a resync.
func (b *Board) AdvanceOrder(ctx context.Context, id OrderID, target string) (*Order, error) {
	current := b.orders.Get(id)
	if current == nil {
		return nil, ErrNotFound
	}

	previous := current.Status
	updated := *current
	if err := updated.Advance(target); err != nil {
		return nil, ErrIllegalTransition
	}

	b.orders.Set(&updated)
	b.broadcastOrder(&updated)
	b.publishOrderEvent(ctx, event.EventBoardOrderAdvanced, &updated, previous)

	if err := b.gateway.UpdateOrderStatus(ctx, id, target); err != nil {
		b.logger.Error("cannot update order on backend, scheduling resync", "order_id", id, "error", err)
		b.resyncSoon()
	}

	return &updated, nil
}

// RemoveOrder deletes an order after the console confirmed the action. The
// order leaves the visible set immediately; a failed backend delete schedules
// a resync which brings it back.
func (b *Board) RemoveOrder(ctx context.Context, id OrderID) error {
	current := b.orders.Get(id)
	if current == nil {
		return ErrNotFound
	}

	previous := current.Status
	b.orders.Remove(id)
	b.publishOrderEvent(ctx, event.EventBoardOrderRemoved, current, previous)

	if err := b.gateway.DeleteOrder(ctx, id); err != nil {
		b.logger.Error("cannot delete order on backend, scheduling resync", "order_id", id, "error", err)
		b.resyncSoon()
	}

	return nil
}

// AcknowledgeCall marks a waiter call handled. Same optimistic policy as
// orders.
func (b *Board) AcknowledgeCall(ctx context.Context, id CallID) (*WaiterCall, error) {
	current := b.calls.Get(id)
	if current == nil {
		return nil, ErrNotFound
	}

	updated := *current
	if err := updated.Acknowledge(); err != nil {
		return nil, ErrIllegalTransition
	}

	b.calls.Set(&updated)
	b.broadcastCall(&updated)
	b.publishCallEvent(ctx, &updated)

	if err := b.gateway.UpdateWaiterCallStatus(ctx, id, StatusCompleted); err != nil {
		b.logger.Error("cannot update waiter call on backend, scheduling resync", "call_id", id, "error", err)
		b.resyncSoon()
	}

	return &updated, nil
}

// Summary holds the per-status counts consoles show as badges.
type Summary struct {
	Orders        map[string]int `json:"orders,omitempty"`
	PendingOrders int            `json:"pending_orders"`
	PendingCalls  int            `json:"pending_calls"`
	TotalOrders   int            `json:"total_orders"`
	TotalCalls    int            `json:"total_calls"`
}

// Summarize counts the cached collections.
func (b *Board) Summarize() Summary {
	counts := make(map[string]int)
	for _, o := range b.orders.GetAll() {
		counts[o.Status]++
	}

	return Summary{
		Orders:        counts,
		PendingOrders: b.orders.PendingCount(),
		PendingCalls:  b.calls.PendingCount(),
		TotalOrders:   b.orders.Count(),
		TotalCalls:    b.calls.Count(),
	}
}

func (b *Board) resyncSoon() {
	if b.resyncer != nil {
		b.resyncer.ResyncSoon()
	}
}

func (b *Board) broadcastOrder(order *Order) {
	if b.stream == nil {
		return
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return
	}
	b.stream.Broadcast("order-update", string(payload))
}

func (b *Board) broadcastCall(call *WaiterCall) {
	if b.stream == nil {
		return
	}
	payload, err := json.Marshal(call)
	if err != nil {
		return
	}
	b.stream.Broadcast("call-update", string(payload))
}

func (b *Board) publishOrderEvent(ctx context.Context, eventType string, order *Order, previous string) {
	if b.publisher == nil {
		return
	}

	evt := event.BoardOrderEvent{
		EventType:      eventType,
		OccurredAt:     time.Now(),
		OrderID:        order.ID.String(),
		NewStatus:      order.Status,
		PreviousStatus: previous,
	}

	data, _ := json.Marshal(evt)
	if err := b.publisher.Publish(ctx, event.BoardTopic, data); err != nil {
		b.logger.Errorf("cannot publish %s event: %v", eventType, err)
	}
}

func (b *Board) publishCallEvent(ctx context.Context, call *WaiterCall) {
	if b.publisher == nil {
		return
	}

	evt := event.BoardCallEvent{
		EventType:  event.EventBoardCallAcknowledged,
		OccurredAt: time.Now(),
		CallID:     call.ID.String(),
		TableID:    call.TableID,
		NewStatus:  call.Status,
	}

	data, _ := json.Marshal(evt)
	if err := b.publisher.Publish(ctx, event.BoardTopic, data); err != nil {
		b.logger.Errorf("cannot publish %s event: %v", event.EventBoardCallAcknowledged, err)
	}
}
