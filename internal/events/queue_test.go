package events

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("queue", func() {
	push := func(q *queue, id string) (int, error) {
		return q.push(message{Kind: GuardrailAuditKind, Event: AuditEvent{JobID: id}})
	}

	It("hands messages back in arrival order", func() {
		q := &queue{}
		for i, id := range []string{"job1", "job2", "job3"} {
			n, err := push(q, id)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(i + 1))
		}

		got := q.takeAll()
		Expect(got).To(HaveLen(3))
		for i, id := range []string{"job1", "job2", "job3"} {
			Expect(got[i].Event.JobID).To(Equal(id))
		}
		Expect(q.len()).To(Equal(0))
	})

	It("returns nothing when empty", func() {
		q := &queue{}
		Expect(q.takeAll()).To(BeEmpty())
	})

	It("refuses messages past the limit", func() {
		q := &queue{limit: 2}
		_, err := push(q, "job1")
		Expect(err).To(BeNil())
		_, err = push(q, "job2")
		Expect(err).To(BeNil())
		_, err = push(q, "job3")
		Expect(err).To(MatchError(errQueueFull))

		q.takeAll()
		_, err = push(q, "job4")
		Expect(err).To(BeNil())
	})

	It("refuses messages once closed but keeps what is queued", func() {
		q := &queue{}
		_, err := push(q, "job1")
		Expect(err).To(BeNil())
		q.close()

		_, err = push(q, "job2")
		Expect(err).To(MatchError(errQueueClosed))
		Expect(q.takeAll()).To(HaveLen(1))
	})
})
