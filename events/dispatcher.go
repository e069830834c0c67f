package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultQueueSize = 256
	deliveryTimeout  = 10 * time.Second
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("dispatcher closed")
)

// Dispatcher queues events and delivers them to next from a background
// goroutine, so a stalled broker or websocket client never holds up the
// request that caused the event. Events are delivered in publish order.
type Dispatcher struct {
	log     *slog.Logger
	next    Publisher
	timeout time.Duration
	queue   chan Event
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(log *slog.Logger, next Publisher, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	d := &Dispatcher{
		log:     log,
		next:    next,
		timeout: deliveryTimeout,
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish queues the event and returns at once. A full queue drops the
// event and reports ErrQueueFull.
func (d *Dispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- event:
		return nil
	default:
		return fmt.Errorf("%s for order %d: %w", event.Type, event.Order.ID, ErrQueueFull)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.next.Publish(ctx, event); err != nil {
			d.log.Warn("order event delivery failed", "type", event.Type, "order_id", event.Order.ID, "err", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the queued ones are
// delivered or ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
