package expo

import (
	"context"
	"errors"
	"sync"

	"github.com/appetiteclub/apt/events"
)

// MockGateway is a test mock for Gateway
type MockGateway struct {
	mu    sync.Mutex
	Orders []Order
	Calls  []WaiterCall

	ListOrdersFunc             func(ctx context.Context) ([]Order, error)
	UpdateOrderStatusFunc      func(ctx context.Context, id OrderID, status string) error
	DeleteOrderFunc            func(ctx context.Context, id OrderID) error
	ListWaiterCallsFunc        func(ctx context.Context) ([]WaiterCall, error)
	UpdateWaiterCallStatusFunc func(ctx context.Context, id CallID, status string) error

	UpdatedOrders []StatusUpdate
	UpdatedCalls  []StatusUpdate
	DeletedOrders []OrderID
}

type StatusUpdate struct {
	ID     OrderID
	Status string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) ListOrders(ctx context.Context) ([]Order, error) {
	if m.ListOrdersFunc != nil {
		return m.ListOrdersFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Order(nil), m.Orders...), nil
}

func (m *MockGateway) UpdateOrderStatus(ctx context.Context, id OrderID, status string) error {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(ctx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdatedOrders = append(m.UpdatedOrders, StatusUpdate{ID: id, Status: status})
	return nil
}

func (m *MockGateway) DeleteOrder(ctx context.Context, id OrderID) error {
	if m.DeleteOrderFunc != nil {
		return m.DeleteOrderFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedOrders = append(m.DeletedOrders, id)
	return nil
}

func (m *MockGateway) ListWaiterCalls(ctx context.Context) ([]WaiterCall, error) {
	if m.ListWaiterCallsFunc != nil {
		return m.ListWaiterCallsFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WaiterCall(nil), m.Calls...), nil
}

func (m *MockGateway) UpdateWaiterCallStatus(ctx context.Context, id CallID, status string) error {
	if m.UpdateWaiterCallStatusFunc != nil {
		return m.UpdateWaiterCallStatusFunc(ctx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdatedCalls = append(m.UpdatedCalls, StatusUpdate{ID: id, Status: status})
	return nil
}

// SetOrders replaces the backend's order collection.
func (m *MockGateway) SetOrders(orders []Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders = orders
}

// SetCalls replaces the backend's waiter call collection.
func (m *MockGateway) SetCalls(calls []WaiterCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = calls
}

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}

// MockStreamConsumer is a test mock for events.StreamConsumer
type MockStreamConsumer struct {
	messages            []events.StreamMessage
	FetchFunc           func(ctx context.Context, maxMessages int) ([]events.StreamMessage, error)
	SubscribeStreamFunc func(ctx context.Context, handler events.HandlerFunc) error
}

func NewMockStreamConsumer() *MockStreamConsumer {
	return &MockStreamConsumer{
		messages: make([]events.StreamMessage, 0),
	}
}

func (m *MockStreamConsumer) Fetch(ctx context.Context, maxMessages int) ([]events.StreamMessage, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, maxMessages)
	}
	return m.messages, nil
}

func (m *MockStreamConsumer) SubscribeStream(ctx context.Context, handler events.HandlerFunc) error {
	if m.SubscribeStreamFunc != nil {
		return m.SubscribeStreamFunc(ctx, handler)
	}
	return nil
}

func (m *MockStreamConsumer) AddMessage(data []byte) {
	m.messages = append(m.messages, events.StreamMessage{Data: data})
}

// MockSink is a test mock for Sink
type MockSink struct {
	Played   []string
	PlayFunc func(cue string) error
}

func NewMockSink() *MockSink {
	return &MockSink{Played: make([]string, 0)}
}

func (m *MockSink) Play(cue string) error {
	if m.PlayFunc != nil {
		return m.PlayFunc(cue)
	}
	m.Played = append(m.Played, cue)
	return nil
}

var errBackendDown = errors.New("backend unavailable")
