package expo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/expeditehq/expedite/pkg/event"
)

// CallStateCache maintains the board's in-memory view of the tenant's waiter
// calls. Same ownership rules as the order cache: the backend is
// authoritative, poll snapshots replace everything.
type CallStateCache struct {
	mu          sync.RWMutex
	calls       map[uuid.UUID]*WaiterCall
	byStatus    map[string][]uuid.UUID
	snapshotSeq uint64

	stream  events.StreamConsumer
	gateway Gateway
	logger  apt.Logger
}

// NewCallStateCache creates an empty waiter-call cache.
func NewCallStateCache(stream events.StreamConsumer, gateway Gateway, logger apt.Logger) *CallStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &CallStateCache{
		calls:    make(map[uuid.UUID]*WaiterCall),
		byStatus: make(map[string][]uuid.UUID),
		stream:   stream,
		gateway:  gateway,
		logger:   logger,
	}
}

// Warm loads waiter calls via stream replay with HTTP fallback.
func (c *CallStateCache) Warm(ctx context.Context) error {
	if c.stream != nil {
		if err := c.warmFromStream(ctx); err != nil {
			c.logger.Info("stream replay failed, falling back to HTTP", "error", err)
		} else {
			return nil
		}
	}

	if c.gateway == nil {
		c.logger.Info("neither stream nor backend gateway configured, call cache remains empty")
		return nil
	}

	calls, err := c.gateway.ListWaiterCalls(ctx)
	if err != nil {
		c.logger.Error("cannot warm call cache from backend", "error", err)
		return err
	}

	c.ReplaceAll(calls, 0)
	c.logger.Info("call cache warmed from backend", "count", len(calls))
	return nil
}

func (c *CallStateCache) warmFromStream(ctx context.Context) error {
	c.logger.Info("warming call cache from event stream")

	messages, err := c.stream.Fetch(ctx, 10000)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, msg := range messages {
		c.applyEventLocked(msg.Data)
	}

	c.logger.Info("call cache warmed from stream", "calls", len(c.calls))
	return nil
}

func (c *CallStateCache) applyEventLocked(data []byte) {
	var base struct {
		EventType string `json:"event_type"`
	}

	if err := json.Unmarshal(data, &base); err != nil {
		c.logger.Error("cannot unmarshal event type", "error", err)
		return
	}

	switch base.EventType {
	case event.EventWaiterCallCreated:
		var evt event.WaiterCallCreatedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return
		}
		id, err := uuid.Parse(evt.CallID)
		if err != nil {
			return
		}
		c.setLocked(&WaiterCall{
			ID:        id,
			TableID:   evt.TableID,
			Status:    evt.Status,
			CreatedAt: evt.OccurredAt,
			UpdatedAt: evt.OccurredAt,
		})
	case event.EventWaiterCallStatusChange:
		var evt event.WaiterCallStatusChangedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return
		}
		id, err := uuid.Parse(evt.CallID)
		if err != nil {
			return
		}
		// Mutate a copy so setLocked still sees the old status in the index.
		var updated WaiterCall
		if current := c.calls[id]; current != nil {
			updated = *current
		} else {
			updated = WaiterCall{ID: id, TableID: evt.TableID, CreatedAt: evt.OccurredAt}
		}
		updated.Status = evt.NewStatus
		updated.UpdatedAt = evt.OccurredAt
		c.setLocked(&updated)
	default:
		// Ignore unknown event types
	}
}

// ApplyEvent applies a tenant waiter-call event arriving between polls.
func (c *CallStateCache) ApplyEvent(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyEventLocked(data)
}

// ReplaceAll swaps the cache contents for a full poll snapshot, discarding
// stale snapshots by sequence number.
func (c *CallStateCache) ReplaceAll(calls []WaiterCall, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.snapshotSeq {
		c.logger.Debug("discarding stale call snapshot", "seq", seq, "applied", c.snapshotSeq)
		return false
	}
	c.snapshotSeq = seq

	c.calls = make(map[uuid.UUID]*WaiterCall, len(calls))
	c.byStatus = make(map[string][]uuid.UUID)
	for i := range calls {
		call := calls[i]
		c.setLocked(&call)
	}
	return true
}

// Set updates or adds a single waiter call.
func (c *CallStateCache) Set(call *WaiterCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(call)
}

func (c *CallStateCache) setLocked(call *WaiterCall) {
	if call == nil {
		return
	}

	if old, exists := c.calls[call.ID]; exists {
		c.removeFromIndex(old.Status, call.ID)
	}

	c.calls[call.ID] = call
	c.byStatus[call.Status] = append(c.byStatus[call.Status], call.ID)
}

// Get retrieves a waiter call by ID.
func (c *CallStateCache) Get(id CallID) *WaiterCall {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[id]
}

// GetAll returns all cached waiter calls.
func (c *CallStateCache) GetAll() []*WaiterCall {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*WaiterCall, 0, len(c.calls))
	for _, call := range c.calls {
		result = append(result, call)
	}
	return result
}

// PendingCount returns how many cached calls are PENDING.
func (c *CallStateCache) PendingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byStatus[StatusPending])
}

// Count returns the number of cached waiter calls.
func (c *CallStateCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.calls)
}

func (c *CallStateCache) removeFromIndex(status string, id uuid.UUID) {
	ids := c.byStatus[status]
	for i, existing := range ids {
		if existing == id {
			c.byStatus[status] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}
