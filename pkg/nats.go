package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
)

// reconnectWait paces reconnect attempts after a broker outage.
const reconnectWait = 2 * time.Second

// connect dials NATS with the board's connection profile. The board keeps
// reconnecting forever: while the bus is down the poll loop reconciles state,
// and events resume as soon as the broker returns.
func connect(url, role string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("expedite-"+role),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS as %s: %w", role, err)
	}
	return conn, nil
}

// NATSPublisher publishes board events to the platform bus over NATS Core.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := connect(url, "board-publisher")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return p.conn.Publish(topic, msg)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber consumes tenant order and waiter-call events. Handler errors
// are swallowed: the next poll cycle reconciles whatever an event failed to
// apply.
type NATSSubscriber struct {
	conn *nats.Conn
}

func NewNATSSubscriber(url string) (*NATSSubscriber, error) {
	conn, err := connect(url, "board-subscriber")
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: conn}, nil
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	_, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		_ = handler(ctx, msg.Data)
	})
	return err
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
