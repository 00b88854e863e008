package events

import "time"

type Option func(e *EventProducer)

// WithOutputTopic sets the topic (or redis stream) events are written to.
func WithOutputTopic(topic string) Option {
	return func(e *EventProducer) {
		if topic != "" {
			e.topic = topic
		}
	}
}

// WithWriteTimeout bounds a single writer call.
func WithWriteTimeout(d time.Duration) Option {
	return func(e *EventProducer) {
		if d > 0 {
			e.writeTimeout = d
		}
	}
}

// WithQueueLimit caps the events waiting for the writer.
func WithQueueLimit(n int) Option {
	return func(e *EventProducer) {
		if n > 0 {
			e.pending.limit = n
		}
	}
}
