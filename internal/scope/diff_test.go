package scope_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldservice/jobvisit/internal/scope"
)

func qty(v float64) *float64 {
	return &v
}

var _ = Describe("scope diff", func() {
	var (
		p1 = scope.FromTemplate(scope.ItemPart, "101", "Mixer tap", qty(1))
		p2 = scope.FromTemplate(scope.ItemTrade, "7", "Plumber", nil)
		c1 = scope.Item{Key: "job:part:1772440200000", Label: "Teflon tape", Type: scope.ItemPart, Source: scope.SourceJob}
	)

	Context("keys", func() {
		It("builds deterministic project keys", func() {
			Expect(p1.Key).To(Equal("project:part:101"))
			Expect(p1.Source).To(Equal(scope.SourceProject))
		})

		It("builds time based ad hoc keys", func() {
			at := time.UnixMilli(1772440200000)
			Expect(scope.AdHocKey(scope.ItemRequirement, at)).To(Equal("job:requirement:1772440200000"))
		})
	})

	Context("diff", func() {
		It("computes removals and additions only", func() {
			p := scope.Diff([]scope.Item{p1, p2}, []scope.Item{p2, c1})
			Expect(p.Add).To(Equal([]scope.Item{c1}))
			Expect(p.RemoveKeys).To(Equal([]string{p1.Key}))
			Expect(p.Update).To(BeEmpty())
		})

		It("is empty for identical lists", func() {
			Expect(scope.Diff([]scope.Item{p1, p2}, []scope.Item{p1, p2}).IsEmpty()).To(BeTrue())
		})

		It("reports in place edits as updates", func() {
			used := p1
			used.Used = true
			used.UsedQty = qty(1)
			p := scope.Diff([]scope.Item{p1, p2}, []scope.Item{used, p2})
			Expect(p.Add).To(BeEmpty())
			Expect(p.RemoveKeys).To(BeEmpty())
			Expect(p.Update).To(Equal([]scope.Item{used}))
		})

		It("compares quantities by value", func() {
			a := p1
			a.Qty = qty(2)
			b := p1
			b.Qty = qty(2)
			Expect(a.Equal(b)).To(BeTrue())
		})
	})

	Context("apply", func() {
		It("applies a patch", func() {
			out := scope.Apply([]scope.Item{p1, p2}, scope.Patch{Add: []scope.Item{c1}, RemoveKeys: []string{p1.Key}})
			Expect(out).To(Equal([]scope.Item{p2, c1}))
		})

		It("is idempotent", func() {
			patch := scope.Patch{Add: []scope.Item{c1}, RemoveKeys: []string{p1.Key}}
			once := scope.Apply([]scope.Item{p1, p2}, patch)
			twice := scope.Apply(once, patch)
			Expect(twice).To(Equal(once))
		})

		It("ignores updates of removed keys", func() {
			used := p1
			used.Used = true
			out := scope.Apply([]scope.Item{p2}, scope.Patch{Update: []scope.Item{used}})
			Expect(out).To(Equal([]scope.Item{p2}))
		})

		It("round trips with diff", func() {
			server := []scope.Item{p1, p2}
			draft := []scope.Item{p2, c1}
			Expect(scope.Apply(server, scope.Diff(server, draft))).To(Equal(draft))
		})
	})

	Context("fingerprint", func() {
		It("changes with content", func() {
			a := scope.Fingerprint([]scope.Item{p1, p2})
			Expect(a).To(Equal(scope.Fingerprint([]scope.Item{p1, p2})))
			Expect(a).NotTo(Equal(scope.Fingerprint([]scope.Item{p2, p1})))
			Expect(scope.Fingerprint(nil)).To(Equal(scope.Fingerprint([]scope.Item{})))
		})
	})
})
