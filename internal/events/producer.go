package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	closeTimeout        = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
	defaultQueueLimit   = 10000
)

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, kind string, e AuditEvent) error
	Close(ctx context.Context) error
}

// EventProducer is a fire-and-forget audit sink. Log only enqueues; a
// background goroutine drains the queue into the writer, so a slow or
// failing writer never delays or fails the caller.
type EventProducer struct {
	pending      queue
	notifyCh     chan struct{}
	doneCh       chan struct{}
	wg           sync.WaitGroup
	once         sync.Once
	writer       Writer
	topic        string
	writeTimeout time.Duration
}

func NewEventProducer(w Writer, opts ...Option) *EventProducer {
	ep := &EventProducer{
		notifyCh:     make(chan struct{}, 1),
		doneCh:       make(chan struct{}),
		writer:       w,
		topic:        defaultTopic,
		writeTimeout: defaultWriteTimeout,
	}
	ep.pending.limit = defaultQueueLimit

	for _, o := range opts {
		o(ep)
	}

	ep.wg.Add(1)
	go ep.run()
	return ep
}

// Log enqueues a guardrail audit event. Events logged after Close, or
// while the queue is full, are dropped with a warning.
func (ep *EventProducer) Log(_ context.Context, e AuditEvent) {
	if _, err := ep.pending.push(message{Kind: GuardrailAuditKind, Event: e}); err != nil {
		zap.S().Named("event_producer").Warnw("dropping audit event", "error", err, "job_id", e.JobID)
		return
	}

	select {
	case ep.notifyCh <- struct{}{}:
	default:
	}
}

// Close flushes the pending events and closes the writer.
func (ep *EventProducer) Close() error {
	var err error
	ep.once.Do(func() {
		ep.pending.close()
		close(ep.doneCh)
		ep.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err = ep.writer.Close(ctx); err != nil {
			zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
			return
		}
		zap.S().Named("event_producer").Info("event producer closed")
	})
	return err
}

func (ep *EventProducer) run() {
	defer ep.wg.Done()

	for {
		ep.drain()

		select {
		case <-ep.notifyCh:
		case <-ep.doneCh:
			ep.drain()
			return
		}
	}
}

func (ep *EventProducer) drain() {
	for _, msg := range ep.pending.takeAll() {
		ctx, cancel := context.WithTimeout(context.Background(), ep.writeTimeout)
		if err := ep.writer.Write(ctx, ep.topic, msg.Kind, msg.Event); err != nil {
			zap.S().Named("event_producer").Errorw("failed to write audit event", "error", err, "job_id", msg.Event.JobID, "kind", msg.Kind)
		}
		cancel()
	}
}
