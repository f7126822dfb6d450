package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/metrics"
	"reviewly-backend-go/pkg/messagequeue"
)

// QueuePublisher writes events as JSON to one queue.
type QueuePublisher struct {
	mq    messagequeue.MessageQueue
	queue string
}

func NewQueuePublisher(mq messagequeue.MessageQueue, queue string) *QueuePublisher {
	return &QueuePublisher{mq: mq, queue: queue}
}

func (p *QueuePublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", e.Type, err)
	}
	if err := p.mq.Publish(ctx, p.queue, body); err != nil {
		metrics.EventsPublished.WithLabelValues(e.Type, "error").Inc()
		return err
	}
	metrics.EventsPublished.WithLabelValues(e.Type, "queued").Inc()
	return nil
}

// Consume decodes envelopes from queue and passes them to handler. Undecodable
// messages are rejected.
func Consume(ctx context.Context, mq messagequeue.MessageQueue, queue string, handler Handler) error {
	return mq.Consume(ctx, queue, func(ctx context.Context, body []byte) error {
		var e Event
		if err := json.Unmarshal(body, &e); err != nil {
			return fmt.Errorf("malformed event: %w", err)
		}
		return handler(ctx, e)
	})
}

// Dispatcher delivers events to in-process handlers on a background goroutine.
// Handler errors are logged, never returned to the publisher.
type Dispatcher struct {
	handlers []Handler
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: logger}
}

func (d *Dispatcher) Publish(ctx context.Context, e Event) error {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, h := range d.handlers {
			if err := h(ctx, e); err != nil {
				d.logger.Warn("Event handler failed", zap.String("type", e.Type), zap.Error(err))
			}
		}
	}()
	metrics.EventsPublished.WithLabelValues(e.Type, "dispatched").Inc()
	return nil
}

// Wait blocks until every dispatched event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns published events of one type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
