package expo

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/expeditehq/expedite/pkg/event"
)

// TenantEventSubscriber applies tenant order and waiter-call events arriving
// on the platform bus between polls. It is strictly a latency hider: the poll
// cycle remains authoritative and overwrites whatever an event applied.
type TenantEventSubscriber struct {
	subscriber events.Subscriber
	orders     *OrderStateCache
	calls      *CallStateCache
	stream     Broadcaster
	logger     apt.Logger
}

func NewTenantEventSubscriber(
	subscriber events.Subscriber,
	orders *OrderStateCache,
	calls *CallStateCache,
	stream Broadcaster,
	logger apt.Logger,
) *TenantEventSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &TenantEventSubscriber{
		subscriber: subscriber,
		orders:     orders,
		calls:      calls,
		stream:     stream,
		logger:     logger,
	}
}

// Start subscribes to the tenant topics.
func (s *TenantEventSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		s.logger.Info("NATS subscriber not configured, board relies on polling only")
		return nil
	}

	if err := s.subscriber.Subscribe(ctx, event.OrdersTopic, s.handleOrderEvent); err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", event.OrdersTopic, err)
	}

	if err := s.subscriber.Subscribe(ctx, event.WaiterCallsTopic, s.handleCallEvent); err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", event.WaiterCallsTopic, err)
	}

	s.logger.Info("tenant event subscriber started")
	return nil
}

// Stop is a no-op for lifecycle compatibility.
func (s *TenantEventSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *TenantEventSubscriber) handleOrderEvent(ctx context.Context, msg []byte) error {
	s.orders.ApplyEvent(msg)
	if s.stream != nil {
		s.stream.Broadcast("order-update", string(msg))
	}
	return nil
}

func (s *TenantEventSubscriber) handleCallEvent(ctx context.Context, msg []byte) error {
	s.calls.ApplyEvent(msg)
	if s.stream != nil {
		s.stream.Broadcast("call-update", string(msg))
	}
	return nil
}
