package lifecycle_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldservice/jobvisit/internal/lifecycle"
)

var _ = Describe("checkout requirements", func() {
	var (
		v        *lifecycle.CheckoutValidator
		complete lifecycle.CheckoutForm
	)

	BeforeEach(func() {
		v = lifecycle.NewCheckoutValidator()
		complete = lifecycle.CheckoutForm{
			Overview:                "Replaced mixer tap",
			NextSteps:               "None",
			CommunicationWithClient: "Walked the client through it",
			Outcome:                 string(lifecycle.OutcomeCompleted),
			PhotoURLs:               []string{"https://photos/1.jpg"},
		}
	})

	It("accepts a complete form", func() {
		Expect(v.Validate(complete, complete.PhotoURLs, true)).To(Succeed())
	})

	It("names every unmet requirement", func() {
		err := v.Validate(lifecycle.CheckoutForm{Overview: "  "}, nil, true)
		Expect(err).NotTo(BeNil())

		incomplete, ok := err.(*lifecycle.ErrCheckoutIncomplete)
		Expect(ok).To(BeTrue())
		Expect(incomplete.Missing).To(Equal([]string{
			lifecycle.RequirementOverview,
			lifecycle.RequirementNextSteps,
			lifecycle.RequirementCommunication,
			lifecycle.RequirementOutcome,
			lifecycle.RequirementPhotos,
		}))
		Expect(err.Error()).To(ContainSubstring("overview"))
	})

	It("requires a photo", func() {
		err := v.Validate(complete, []string{" "}, true)
		Expect(err).To(HaveOccurred())
		Expect(err.(*lifecycle.ErrCheckoutIncomplete).Missing).To(Equal([]string{lifecycle.RequirementPhotos}))
	})

	It("requires the outcome only from the last technician", func() {
		form := complete
		form.Outcome = ""
		Expect(v.Validate(form, form.PhotoURLs, false)).To(Succeed())

		err := v.Validate(form, form.PhotoURLs, true)
		Expect(err.(*lifecycle.ErrCheckoutIncomplete).Missing).To(Equal([]string{lifecycle.RequirementOutcome}))
	})

	It("rejects an unknown outcome", func() {
		form := complete
		form.Outcome = "done-ish"
		err := v.Validate(form, form.PhotoURLs, true)
		Expect(err.(*lifecycle.ErrCheckoutIncomplete).Missing).To(Equal([]string{lifecycle.RequirementOutcome}))
	})

	It("treats visits under the minimum as trivial", func() {
		in := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
		Expect(lifecycle.IsTrivial(in, in.Add(59*time.Second), time.Minute)).To(BeTrue())
		Expect(lifecycle.IsTrivial(in, in.Add(time.Minute), time.Minute)).To(BeFalse())
	})
})
