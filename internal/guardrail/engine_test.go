package guardrail_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldservice/jobvisit/internal/events"
	"github.com/fieldservice/jobvisit/internal/guardrail"
	"github.com/fieldservice/jobvisit/pkg/clock"
)

var _ = Describe("guardrail engine", func() {
	var engine *guardrail.Engine

	BeforeEach(func() {
		engine = guardrail.NewEngine(guardrail.NewClassifier(guardrail.DefaultPolicy()))
	})

	Context("classifier", func() {
		It("classifies fields", func() {
			c := engine.Classifier()
			Expect(c.Classify("measurements")).To(Equal(guardrail.DraftSafe))
			Expect(c.Classify("outcome")).To(Equal(guardrail.CompletionGated))
			Expect(c.Classify("status")).To(Equal(guardrail.CompletionGated))
			Expect(c.Classify("title")).To(Equal(guardrail.Unclassified))
			Expect(c.IsAddress("address_full")).To(BeTrue())
			Expect(c.IsDraftSafe("title")).To(BeFalse())
		})

		It("prefers gated when a field is on both lists", func() {
			c := guardrail.NewClassifier(guardrail.Policy{
				DraftSafe:       []string{"notes"},
				CompletionGated: []string{"notes"},
			})
			Expect(c.Classify("notes")).To(Equal(guardrail.CompletionGated))
		})
	})

	Context("draft mode", func() {
		It("strips measurements-only draft of gated fields", func() {
			measurements := map[string]any{"width": 2.4, "height": 1.2}
			res := engine.Apply(guardrail.Record{}, guardrail.Patch{
				"measurements":     measurements,
				"overview":         "Done",
				"outcome":          "completed",
				"completion_notes": "x",
			}, guardrail.ModeDraft)

			Expect(res.CleanPatch).To(Equal(guardrail.Patch{"measurements": measurements}))
			Expect(res.BlockedFields).To(Equal([]string{"overview", "outcome", "completion_notes"}))
			Expect(res.ShouldLog).To(BeTrue())
		})

		It("returns an empty patch for a gated-only patch", func() {
			patch := guardrail.Patch{
				"status":                    "Completed",
				"next_steps":                "order parts",
				"communication_with_client": "called",
			}
			res := engine.Apply(guardrail.Record{"status": "InProgress"}, patch, guardrail.ModeDraft)
			Expect(res.CleanPatch).To(BeEmpty())
			Expect(res.BlockedFields).To(ConsistOf("status", "next_steps", "communication_with_client"))
		})

		It("blocks an explicit nil on a gated field", func() {
			res := engine.Apply(guardrail.Record{"outcome": "completed"}, guardrail.Patch{"outcome": nil}, guardrail.ModeDraft)
			Expect(res.CleanPatch).To(BeEmpty())
			Expect(res.BlockedFields).To(Equal([]string{"outcome"}))
		})

		It("passes unclassified fields", func() {
			res := engine.Apply(guardrail.Record{}, guardrail.Patch{"title": "Kitchen refit"}, guardrail.ModeDraft)
			Expect(res.CleanPatch).To(Equal(guardrail.Patch{"title": "Kitchen refit"}))
			Expect(res.ShouldLog).To(BeFalse())
		})
	})

	Context("final mode", func() {
		It("keeps existing completion notes when incoming is blank", func() {
			res := engine.Apply(guardrail.Record{"completion_notes": "Already done"},
				guardrail.Patch{"completion_notes": ""}, guardrail.ModeFinal)
			Expect(res.CleanPatch).NotTo(HaveKey("completion_notes"))
			Expect(res.BlockedFields).To(BeEmpty())
			Expect(res.ShouldLog).To(BeFalse())
		})

		It("lets gated fields through", func() {
			res := engine.Apply(guardrail.Record{}, guardrail.Patch{
				"outcome":  "completed",
				"overview": "Replaced tap",
				"status":   "Completed",
			}, guardrail.ModeFinal)
			Expect(res.CleanPatch).To(Equal(guardrail.Patch{
				"outcome":  "completed",
				"overview": "Replaced tap",
				"status":   "Completed",
			}))
		})

		It("clears on explicit nil", func() {
			res := engine.Apply(guardrail.Record{"next_steps": "return Monday"},
				guardrail.Patch{"next_steps": nil}, guardrail.ModeFinal)
			Expect(res.CleanPatch).To(HaveKeyWithValue("next_steps", BeNil()))
		})
	})

	Context("address fields", func() {
		It("does not overwrite a known address", func() {
			res := engine.Apply(guardrail.Record{"address_full": "123 Main St"},
				guardrail.Patch{"address_full": "456 Park Ave"}, guardrail.ModeDraft)
			Expect(res.CleanPatch).To(BeEmpty())
		})

		It("fills an empty address", func() {
			res := engine.Apply(guardrail.Record{"address_full": nil},
				guardrail.Patch{"address_full": "456 Park Ave"}, guardrail.ModeDraft)
			Expect(res.CleanPatch).To(Equal(guardrail.Patch{"address_full": "456 Park Ave"}))
		})

		It("applies the same rule in final mode", func() {
			res := engine.Apply(guardrail.Record{"address_suburb": "Newtown"},
				guardrail.Patch{"address_suburb": "Carlton"}, guardrail.ModeFinal)
			Expect(res.CleanPatch).To(BeEmpty())
		})
	})

	Context("audit", func() {
		var (
			sink *fakeSink
			clk  *clock.FakeClock
		)

		BeforeEach(func() {
			sink = &fakeSink{}
			clk = clock.Fake(time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC))
			engine = guardrail.NewEngine(guardrail.NewClassifier(guardrail.DefaultPolicy()),
				guardrail.WithAuditSink(sink), guardrail.WithClock(clk))
		})

		It("logs blocked fields", func() {
			audit := guardrail.AuditContext{JobID: "job-1", ActorID: "tech-a", Source: "draft_update"}
			res := engine.ApplyAndAudit(context.TODO(), audit, guardrail.Record{},
				guardrail.Patch{"outcome": "completed", "notes": "ok"}, guardrail.ModeDraft)

			Expect(res.CleanPatch).To(Equal(guardrail.Patch{"notes": "ok"}))
			Expect(sink.events).To(HaveLen(1))
			Expect(sink.events[0]).To(Equal(events.AuditEvent{
				JobID:         "job-1",
				ActorID:       "tech-a",
				BlockedFields: []string{"outcome"},
				Source:        "draft_update",
				Timestamp:     clk.Now(),
			}))
		})

		It("does not log when nothing is blocked", func() {
			engine.ApplyAndAudit(context.TODO(), guardrail.AuditContext{JobID: "job-1"}, guardrail.Record{},
				guardrail.Patch{"notes": "ok"}, guardrail.ModeDraft)
			Expect(sink.events).To(BeEmpty())
		})
	})

	Context("policy file", func() {
		It("loads lists and keeps defaults for missing ones", func() {
			path := filepath.Join(GinkgoT().TempDir(), "policy.yaml")
			Expect(os.WriteFile(path, []byte("completionGated:\n  - outcome\n  - overview\ndraftSafe:\n  - notes\n"), 0o600)).To(Succeed())

			p, err := guardrail.LoadPolicy(path)
			Expect(err).To(BeNil())
			Expect(p.CompletionGated).To(Equal([]string{"outcome", "overview"}))
			Expect(p.DraftSafe).To(Equal([]string{"notes"}))
			Expect(p.Address).To(Equal(guardrail.DefaultPolicy().Address))

			c := guardrail.NewClassifier(p)
			Expect(c.Classify("measurements")).To(Equal(guardrail.Unclassified))

			res := guardrail.NewEngine(c).Apply(guardrail.Record{}, guardrail.Patch{"overview": "x", "outcome": "completed"}, guardrail.ModeDraft)
			Expect(res.BlockedFields).To(Equal([]string{"outcome", "overview"}))
		})

		It("fails on a missing file", func() {
			_, err := guardrail.LoadPolicy(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).NotTo(BeNil())
		})
	})
})

type fakeSink struct {
	events []events.AuditEvent
}

func (f *fakeSink) Log(_ context.Context, e events.AuditEvent) {
	f.events = append(f.events, e)
}
