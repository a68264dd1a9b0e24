// AngelaMos | 2026
// dispatcher.go

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/carterperez-dev/affiliate-backend/internal/metrics"
)

type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Dispatcher queues messages in memory and delivers them from a small worker
// pool, decoupling notification latency from the request path. When the
// queue is full the message is dropped and logged.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	workers int
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
}

func NewDispatcher(sender Sender, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, cfg.QueueSize),
		workers: cfg.Workers,
		timeout: cfg.SendTimeout,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for range d.workers {
			d.wg.Add(1)
			go d.run()
		}
	})
}

func (d *Dispatcher) Notify(_ context.Context, msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("notification dropped, dispatcher stopped",
			"kind", msg.Kind,
		)
		d.metrics.ObserveNotification(string(msg.Kind), "dropped")
		return
	}

	select {
	case d.queue <- msg:
		d.metrics.ObserveNotification(string(msg.Kind), "queued")
	default:
		d.logger.Warn("notification dropped, queue full",
			"kind", msg.Kind,
			"recipient", msg.Recipient,
		)
		d.metrics.ObserveNotification(string(msg.Kind), "dropped")
	}
}

// Stop closes the queue and waits for the workers to drain it or for ctx to
// expire, whichever comes first.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Warn("notification delivery failed",
			"kind", msg.Kind,
			"recipient", msg.Recipient,
			"error", err,
		)
		d.metrics.ObserveNotification(string(msg.Kind), "failed")
		return
	}

	d.metrics.ObserveNotification(string(msg.Kind), "sent")
}

// Pending reports how many messages are queued but not yet picked up.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}
