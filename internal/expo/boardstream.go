package expo

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// tickInterval drives the elapsed-time label refresh on connected consoles.
// It carries no network I/O and never feeds the alert logic.
const tickInterval = 5 * time.Second

type streamEvent struct {
	name string
	data string
}

// BoardStream fans board updates out to operator consoles over Server-Sent
// Events: order-update, call-update, tick and chime events. It also acts as
// the sound gate's sink; with no console attached the audio output counts as
// suspended.
type BoardStream struct {
	mu          sync.RWMutex
	subscribers map[string]chan streamEvent

	logger apt.Logger
	cancel context.CancelFunc
}

func NewBoardStream(logger apt.Logger) *BoardStream {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BoardStream{
		subscribers: make(map[string]chan streamEvent),
		logger:      logger,
	}
}

// Start launches the elapsed-label tick loop.
func (s *BoardStream) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.tickLoop(ctx)
	return nil
}

// Stop cancels the tick loop and closes all subscriber channels.
func (s *BoardStream) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return nil
}

func (s *BoardStream) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Broadcast("tick", now.UTC().Format(time.RFC3339))
		}
	}
}

// Subscribe registers a console and returns its event channel.
func (s *BoardStream) Subscribe(subscriberID string) <-chan streamEvent {
	ch := make(chan streamEvent, 16)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[subscriberID] = ch
	return ch
}

// Unsubscribe removes a console.
func (s *BoardStream) Unsubscribe(subscriberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[subscriberID]; ok {
		close(ch)
		delete(s.subscribers, subscriberID)
	}
}

// SubscriberCount returns the number of attached consoles.
func (s *BoardStream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Broadcast delivers an event to every attached console. Slow consumers are
// skipped rather than blocking the board.
func (s *BoardStream) Broadcast(name, data string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- streamEvent{name: name, data: data}:
		default:
			s.logger.Debug("dropping event for slow subscriber", "subscriber_id", id, "event", name)
		}
	}
}

// Play implements the sound gate's Sink. With no console attached the output
// is suspended and the gate relocks.
func (s *BoardStream) Play(cue string) error {
	if s.SubscriberCount() == 0 {
		return ErrSuspended
	}

	s.Broadcast("chime", cue)
	return nil
}

// ServeHTTP implements the SSE endpoint.
func (s *BoardStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	s.logger.Info("new SSE connection", "subscriber_id", subscriberID)

	eventChan := s.Subscribe(subscriberID)
	defer s.Unsubscribe(subscriberID)

	// Establish the connection and configure client reconnection
	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "subscriber_id", subscriberID)
			return

		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}

		case evt, ok := <-eventChan:
			if !ok {
				s.logger.Info("event channel closed", "subscriber_id", subscriberID)
				return
			}
			sendSSEEvent(w, evt.name, evt.data)
		}
	}
}

// sendSSEEvent writes an SSE event with properly prefixed multi-line data.
func sendSSEEvent(w http.ResponseWriter, eventType string, data string) {
	data = strings.TrimSpace(data)

	fmt.Fprintf(w, "event: %s\n", eventType)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprintf(w, "\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
