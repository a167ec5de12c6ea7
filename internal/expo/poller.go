package expo

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/appetiteclub/apt"
)

// DefaultPollInterval is how often the board reconciles with the tenant
// backend. Every staff action is also reconciled within one interval, which
// is the board's only failure recovery: there is no request retry.
const DefaultPollInterval = 4 * time.Second

// Poller keeps the caches current by periodically fetching both collections
// from the tenant backend. After each cycle it compares the pending counts
// against the previous cycle and fires the chime when a count increased.
//
// The trigger is deliberately a count-increase edge, not a per-record diff:
// a pending item resolved in the same cycle another one arrives keeps the
// count flat and masks the alert. That mirrors the console behavior staff
// already know; see DESIGN.md before changing it.
type Poller struct {
	gateway Gateway
	orders  *OrderStateCache
	calls   *CallStateCache
	gate    *SoundGate
	stream  Broadcaster
	logger  apt.Logger

	interval time.Duration
	seq      atomic.Uint64
	resync   chan struct{}
	cancel   context.CancelFunc

	// Previous-cycle pending counts. Only touched by the poll goroutine.
	prevPendingOrders int
	prevPendingCalls  int
	ordersPrimed      bool
	callsPrimed       bool
}

func NewPoller(
	gateway Gateway,
	orders *OrderStateCache,
	calls *CallStateCache,
	gate *SoundGate,
	stream Broadcaster,
	logger apt.Logger,
) *Poller {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Poller{
		gateway:  gateway,
		orders:   orders,
		calls:    calls,
		gate:     gate,
		stream:   stream,
		logger:   logger,
		interval: DefaultPollInterval,
		resync:   make(chan struct{}, 1),
	}
}

// SetInterval overrides the poll interval. Must be called before Start.
func (p *Poller) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

// Start runs an immediate poll cycle and then polls on the interval until the
// context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go p.loop(ctx)
	return nil
}

// Stop cancels the poll loop. No fetches run after Stop returns control to
// the lifecycle.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// ResyncSoon schedules an out-of-band poll cycle. Coalesces: scheduling while
// one is already queued is a no-op.
func (p *Poller) ResyncSoon() {
	select {
	case p.resync <- struct{}{}:
	default:
	}
}

func (p *Poller) loop(ctx context.Context) {
	p.pollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		case <-p.resync:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce fetches both collections, replaces the cache contents and
// evaluates the edge trigger. Fetch failures are logged and leave the
// previous snapshot standing; the next cycle tries again.
func (p *Poller) pollOnce(ctx context.Context) {
	seq := p.seq.Add(1)

	if orders, err := p.gateway.ListOrders(ctx); err != nil {
		p.logger.Error("cannot fetch orders", "error", err)
	} else if p.orders.ReplaceAll(orders, seq) {
		pending := p.orders.PendingCount()
		if p.ordersPrimed && pending > p.prevPendingOrders {
			p.gate.Notify()
		}
		p.prevPendingOrders = pending
		p.ordersPrimed = true
	}

	if calls, err := p.gateway.ListWaiterCalls(ctx); err != nil {
		p.logger.Error("cannot fetch waiter calls", "error", err)
	} else if p.calls.ReplaceAll(calls, seq) {
		pending := p.calls.PendingCount()
		if p.callsPrimed && pending > p.prevPendingCalls {
			p.gate.Notify()
		}
		p.prevPendingCalls = pending
		p.callsPrimed = true
	}

	p.broadcastSync()
}

func (p *Poller) broadcastSync() {
	if p.stream == nil {
		return
	}

	summary := Summary{
		PendingOrders: p.orders.PendingCount(),
		PendingCalls:  p.calls.PendingCount(),
		TotalOrders:   p.orders.Count(),
		TotalCalls:    p.calls.Count(),
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	p.stream.Broadcast("board-sync", string(data))
}
