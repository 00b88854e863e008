package events

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("log", func() {
		It("writes events in order", func() {
			w := newTestWriter(nil)
			p := NewEventProducer(w, WithOutputTopic("audit"))

			ts := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
			p.Log(context.TODO(), AuditEvent{JobID: "job1", ActorID: "tech-a", BlockedFields: []string{"outcome"}, Source: "draft_update", Timestamp: ts})
			p.Log(context.TODO(), AuditEvent{JobID: "job2", ActorID: "tech-b", BlockedFields: []string{"overview"}, Source: "draft_update", Timestamp: ts})

			Eventually(w.Count).Should(Equal(2))
			msgs := w.Messages()
			Expect(msgs[0].event.JobID).To(Equal("job1"))
			Expect(msgs[1].event.JobID).To(Equal("job2"))
			Expect(msgs[0].topic).To(Equal("audit"))
			Expect(msgs[0].kind).To(Equal(GuardrailAuditKind))

			Expect(p.Close()).To(Succeed())
		})

		It("does not surface writer failures to the caller", func() {
			w := newTestWriter(errors.New("broker down"))
			p := NewEventProducer(w)

			Expect(func() {
				p.Log(context.TODO(), AuditEvent{JobID: "job1"})
			}).NotTo(Panic())

			Eventually(w.Count).Should(Equal(1))
			Expect(p.Close()).To(Succeed())
		})

		It("flushes pending events on close", func() {
			w := newTestWriter(nil)
			p := NewEventProducer(w)
			for i := 0; i < 50; i++ {
				p.Log(context.TODO(), AuditEvent{JobID: "job"})
			}
			Expect(p.Close()).To(Succeed())
			Expect(w.Count()).To(Equal(50))
			Expect(w.closed).To(BeTrue())

			// closing twice is harmless
			Expect(p.Close()).To(Succeed())
		})

		It("drops events logged after close", func() {
			w := newTestWriter(nil)
			p := NewEventProducer(w)
			p.Log(context.TODO(), AuditEvent{JobID: "job1"})
			Expect(p.Close()).To(Succeed())

			p.Log(context.TODO(), AuditEvent{JobID: "job2"})
			Expect(p.pending.len()).To(Equal(0))
			Expect(w.Count()).To(Equal(1))
		})
	})
})

type written struct {
	topic string
	kind  string
	event AuditEvent
}

type testwriter struct {
	mu       sync.Mutex
	messages []written
	err      error
	closed   bool
}

func newTestWriter(err error) *testwriter {
	return &testwriter{err: err}
}

func (t *testwriter) Write(_ context.Context, topic string, kind string, e AuditEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, written{topic: topic, kind: kind, event: e})
	return t.err
}

func (t *testwriter) Close(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *testwriter) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func (t *testwriter) Messages() []written {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]written(nil), t.messages...)
}
