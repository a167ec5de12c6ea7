package expo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/expeditehq/expedite/pkg/event"
)

// OrderStateCache maintains the board's in-memory view of the tenant's
// orders, indexed by status. The cache is owned by the board; the tenant
// backend remains the source of truth and full poll snapshots replace the
// cache contents wholesale.
type OrderStateCache struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order
	// index by status -> order id
	byStatus map[string][]uuid.UUID
	// sequence number of the last applied poll snapshot; older snapshots
	// arriving late are discarded
	snapshotSeq uint64

	stream  events.StreamConsumer // for event replay on startup
	gateway Gateway               // fallback for HTTP-based warming
	logger  apt.Logger
}

// NewOrderStateCache creates an empty order cache.
func NewOrderStateCache(stream events.StreamConsumer, gateway Gateway, logger apt.Logger) *OrderStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderStateCache{
		orders:   make(map[uuid.UUID]*Order),
		byStatus: make(map[string][]uuid.UUID),
		stream:   stream,
		gateway:  gateway,
		logger:   logger,
	}
}

// Warm loads orders into the cache using event replay from the stream,
// falling back to a full HTTP fetch from the tenant backend.
func (c *OrderStateCache) Warm(ctx context.Context) error {
	if c.stream != nil {
		if err := c.warmFromStream(ctx); err != nil {
			c.logger.Info("stream replay failed, falling back to HTTP", "error", err)
		} else {
			return nil
		}
	}

	if c.gateway == nil {
		c.logger.Info("neither stream nor backend gateway configured, order cache remains empty")
		return nil
	}

	return c.warmFromHTTP(ctx)
}

func (c *OrderStateCache) warmFromStream(ctx context.Context) error {
	c.logger.Info("warming order cache from event stream")

	messages, err := c.stream.Fetch(ctx, 10000)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, msg := range messages {
		c.applyEventLocked(msg.Data)
	}

	c.logger.Info("order cache warmed from stream", "orders", len(c.orders))
	return nil
}

func (c *OrderStateCache) warmFromHTTP(ctx context.Context) error {
	c.logger.Info("warming order cache from backend API")

	orders, err := c.gateway.ListOrders(ctx)
	if err != nil {
		c.logger.Error("cannot warm order cache from backend", "error", err)
		return err
	}

	c.ReplaceAll(orders, 0)
	c.logger.Info("order cache warmed from backend", "count", len(orders))
	return nil
}

// applyEventLocked processes a single tenant order event. Must be called with
// c.mu held.
func (c *OrderStateCache) applyEventLocked(data []byte) {
	var base struct {
		EventType string `json:"event_type"`
	}

	if err := json.Unmarshal(data, &base); err != nil {
		c.logger.Error("cannot unmarshal event type", "error", err)
		return
	}

	switch base.EventType {
	case event.EventOrderCreated:
		c.handleOrderCreatedLocked(data)
	case event.EventOrderStatusChange:
		c.handleOrderStatusChangedLocked(data)
	case event.EventOrderDeleted:
		c.handleOrderDeletedLocked(data)
	default:
		// Ignore unknown event types (forward compatibility)
	}
}

func (c *OrderStateCache) handleOrderCreatedLocked(data []byte) {
	var evt event.OrderCreatedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		c.logger.Error("cannot unmarshal order.created event", "error", err)
		return
	}

	id, err := uuid.Parse(evt.OrderID)
	if err != nil {
		c.logger.Error("order.created event carries invalid order id", "order_id", evt.OrderID)
		return
	}

	order := &Order{
		ID:        id,
		Status:    evt.Status,
		Note:      evt.Note,
		CreatedAt: evt.OccurredAt,
		UpdatedAt: evt.OccurredAt,
	}
	if evt.TableID != "" {
		tableID := evt.TableID
		order.TableID = &tableID
	}
	if len(evt.Items) > 0 {
		var items LineItems
		if err := json.Unmarshal(evt.Items, &items); err == nil {
			order.Items = items
		}
	}
	if evt.TotalAmount != "" {
		if total, err := decimal.NewFromString(evt.TotalAmount); err == nil {
			order.TotalAmount = total
		}
	}

	c.setLocked(order)
}

func (c *OrderStateCache) handleOrderStatusChangedLocked(data []byte) {
	var evt event.OrderStatusChangedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		c.logger.Error("cannot unmarshal order.status_changed event", "error", err)
		return
	}

	id, err := uuid.Parse(evt.OrderID)
	if err != nil {
		return
	}

	// Mutate a copy so setLocked still sees the old status in the index.
	var updated Order
	if current := c.orders[id]; current != nil {
		updated = *current
	} else {
		// Create a minimal entry; the next poll fills in the rest
		updated = Order{ID: id, CreatedAt: evt.OccurredAt}
		if evt.TableID != "" {
			tableID := evt.TableID
			updated.TableID = &tableID
		}
	}

	updated.Status = evt.NewStatus
	updated.UpdatedAt = evt.OccurredAt

	c.setLocked(&updated)
}

func (c *OrderStateCache) handleOrderDeletedLocked(data []byte) {
	var evt event.OrderDeletedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return
	}

	id, err := uuid.Parse(evt.OrderID)
	if err != nil {
		return
	}

	c.removeLocked(id)
}

// ApplyEvent applies a tenant order event arriving between polls.
func (c *OrderStateCache) ApplyEvent(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyEventLocked(data)
}

// ReplaceAll swaps the cache contents for a full poll snapshot. A snapshot
// whose sequence number is lower than one already applied is discarded and
// false is returned (last-fetch-wins with explicit ordering).
func (c *OrderStateCache) ReplaceAll(orders []Order, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.snapshotSeq {
		c.logger.Debug("discarding stale order snapshot", "seq", seq, "applied", c.snapshotSeq)
		return false
	}
	c.snapshotSeq = seq

	c.orders = make(map[uuid.UUID]*Order, len(orders))
	c.byStatus = make(map[string][]uuid.UUID)
	for i := range orders {
		order := orders[i]
		c.setLocked(&order)
	}
	return true
}

// Set updates or adds a single order.
func (c *OrderStateCache) Set(order *Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(order)
}

func (c *OrderStateCache) setLocked(order *Order) {
	if order == nil {
		return
	}

	if old, exists := c.orders[order.ID]; exists {
		c.removeFromIndex(old.Status, order.ID)
	}

	c.orders[order.ID] = order
	c.byStatus[order.Status] = append(c.byStatus[order.Status], order.ID)
}

// Get retrieves an order by ID, bypassing any view filtering.
func (c *OrderStateCache) Get(id OrderID) *Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orders[id]
}

// GetAll returns all cached orders.
func (c *OrderStateCache) GetAll() []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Order, 0, len(c.orders))
	for _, order := range c.orders {
		result = append(result, order)
	}
	return result
}

// GetByStatus returns all orders in the given status.
func (c *OrderStateCache) GetByStatus(status string) []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.byStatus[status]
	result := make([]*Order, 0, len(ids))
	for _, id := range ids {
		if order := c.orders[id]; order != nil {
			result = append(result, order)
		}
	}
	return result
}

// PendingCount returns how many cached orders are PENDING.
func (c *OrderStateCache) PendingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byStatus[StatusPending])
}

// Count returns the number of cached orders.
func (c *OrderStateCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

// Remove deletes an order from the cache.
func (c *OrderStateCache) Remove(id OrderID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *OrderStateCache) removeLocked(id OrderID) {
	order := c.orders[id]
	if order == nil {
		return
	}

	c.removeFromIndex(order.Status, id)
	delete(c.orders, id)
}

func (c *OrderStateCache) removeFromIndex(status string, id uuid.UUID) {
	ids := c.byStatus[status]
	for i, existing := range ids {
		if existing == id {
			c.byStatus[status] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}
