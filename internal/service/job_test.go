package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/config"
	"github.com/fieldservice/jobvisit/internal/guardrail"
	"github.com/fieldservice/jobvisit/internal/lifecycle"
	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/internal/service"
	"github.com/fieldservice/jobvisit/internal/service/mappers"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
	"github.com/fieldservice/jobvisit/pkg/clock"
)

var _ = Describe("job service", Ordered, func() {
	var (
		s      store.Store
		gormDB *gorm.DB
		clk    *clock.FakeClock
		audit  *auditRecorder
		svc    *service.JobService
		visits *service.VisitService
		office = auth.Actor{ID: "office-1", Role: auth.RoleOffice}
		alice  = auth.Actor{ID: "alice", Role: auth.RoleTechnician}
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormDB = db
		Expect(s.InitialMigration(context.TODO())).To(Succeed())

		clk = clock.Fake(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
		audit = &auditRecorder{}
		engine := guardrail.NewEngine(guardrail.NewClassifier(guardrail.DefaultPolicy()),
			guardrail.WithAuditSink(audit), guardrail.WithClock(clk))
		deriver := lifecycle.NewStatusDeriver(clk, time.UTC)
		svc = service.NewJobService(s, engine, deriver)
		visits = service.NewVisitService(s, engine, deriver, service.WithVisitClock(clk))
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		audit.Reset()
		gormDB.Exec("DELETE FROM visit_summaries;")
		gormDB.Exec("DELETE FROM check_ins;")
		gormDB.Exec("DELETE FROM jobs;")
		gormDB.Exec("DELETE FROM projects;")
	})

	newJob := func(date string) *model.Job {
		job, err := svc.CreateJob(context.TODO(), mappers.JobCreateForm{Title: "Replace tap", ScheduledDate: date})
		Expect(err).To(BeNil())
		return job
	}

	Context("create", func() {
		It("derives the initial status from the scheduled date", func() {
			Expect(newJob("2026-03-09").Status).To(Equal(string(lifecycle.StatusScheduled)))
			Expect(newJob("2026-03-02").Status).To(Equal(string(lifecycle.StatusOpen)))
			Expect(newJob("").Status).To(Equal(string(lifecycle.StatusOpen)))
		})

		It("rejects a malformed date", func() {
			_, err := svc.CreateJob(context.TODO(), mappers.JobCreateForm{Title: "x", ScheduledDate: "02/03/2026"})
			var invalid *service.ErrInvalidDate
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("copies the project template into the job scope", func() {
			qty := 2.0
			project, err := s.Project().Create(context.TODO(), model.Project{
				Name: "Bathroom",
				Template: []model.TemplateItem{
					{Type: scope.ItemPart, RefID: "101", Label: "Mixer tap", Qty: &qty},
					{Type: scope.ItemTrade, RefID: "7", Label: "Plumber"},
				},
			})
			Expect(err).To(BeNil())

			job, err := svc.CreateJob(context.TODO(), mappers.JobCreateForm{Title: "Bathroom", ProjectID: project.ID.String()})
			Expect(err).To(BeNil())
			Expect(job.ScopeItems).To(HaveLen(2))
			Expect(job.ScopeItems[0].Key).To(Equal("project:part:101"))
			Expect(*job.ScopeItems[0].Qty).To(Equal(2.0))
		})

		It("fails for an unknown project", func() {
			_, err := svc.CreateJob(context.TODO(), mappers.JobCreateForm{Title: "x", ProjectID: uuid.NewString()})
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Context("guarded update", func() {
		It("keeps only non-gated fields of a draft patch and audits the rest", func() {
			job := newJob("2026-03-02")
			_, err := visits.CheckIn(context.TODO(), job.ID, alice.ID)
			Expect(err).To(BeNil())

			updated, err := svc.UpdateJob(context.TODO(), job.ID, alice, guardrail.Patch{
				"measurements":     map[string]any{"width": 120.0},
				"overview":         "Done",
				"outcome":          "completed",
				"completion_notes": "x",
			})
			Expect(err).To(BeNil())
			Expect(updated.Measurements).To(Equal(map[string]any{"width": 120.0}))
			Expect(updated.Overview).To(BeEmpty())
			Expect(updated.Outcome).To(BeEmpty())
			Expect(updated.CompletionNotes).To(BeEmpty())

			events := audit.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].BlockedFields).To(Equal([]string{"overview", "outcome", "completion_notes"}))
			Expect(events[0].ActorID).To(Equal("alice"))
			Expect(events[0].JobID).To(Equal(job.ID.String()))
		})

		It("rejects an outcome from a technician who is not the last on site", func() {
			job := newJob("2026-03-02")
			_, err := visits.CheckIn(context.TODO(), job.ID, "alice")
			Expect(err).To(BeNil())
			_, err = visits.CheckIn(context.TODO(), job.ID, "bob")
			Expect(err).To(BeNil())

			_, err = svc.UpdateJob(context.TODO(), job.ID, alice, guardrail.Patch{"outcome": "completed"})
			var notPermitted *service.ErrOutcomeNotPermitted
			Expect(errors.As(err, &notPermitted)).To(BeTrue())
			Expect(audit.Events()).To(BeEmpty())
		})

		It("does not overwrite a stored address", func() {
			job := newJob("2026-03-02")
			_, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"address_full": "123 Main St"})
			Expect(err).To(BeNil())

			updated, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"address_full": "456 Park Ave"})
			Expect(err).To(BeNil())
			Expect(updated.AddressFull).To(Equal("123 Main St"))
		})

		It("merges draft-safe and unclassified fields", func() {
			job := newJob("2026-03-02")
			_, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"photo_urls": []any{"a.jpg"}, "notes": "gate code 1234"})
			Expect(err).To(BeNil())

			updated, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{
				"photo_urls": []any{"b.jpg", "a.jpg"},
				"notes":      "  ",
				"title":      "Replace both taps",
			})
			Expect(err).To(BeNil())
			Expect(updated.PhotoURLs).To(Equal([]string{"a.jpg", "b.jpg"}))
			Expect(updated.Notes).To(Equal("gate code 1234"))
			Expect(updated.Title).To(Equal("Replace both taps"))
		})

		It("never blanks an unclassified field with an empty value", func() {
			job := newJob("2026-03-02")
			updated, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"title": ""})
			Expect(err).To(BeNil())
			Expect(updated.Title).To(Equal("Replace tap"))

			updated, err = svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"title": "   "})
			Expect(err).To(BeNil())
			Expect(updated.Title).To(Equal("Replace tap"))

			// an explicit null still clears
			updated, err = svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"notes": "x"})
			Expect(err).To(BeNil())
			Expect(updated.Notes).To(Equal("x"))
			updated, err = svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"notes": nil})
			Expect(err).To(BeNil())
			Expect(updated.Notes).To(BeEmpty())
		})

		It("rejects a value of the wrong shape", func() {
			job := newJob("2026-03-02")
			_, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"title": 5.0})
			var invalid *service.ErrInvalidField
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("title"))
		})

		It("re-derives the status when the date moves", func() {
			job := newJob("2026-03-02")
			updated, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"scheduled_date": "2026-04-01"})
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(string(lifecycle.StatusScheduled)))
		})

		It("rejects unknown and system fields", func() {
			job := newJob("2026-03-02")
			_, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"id": uuid.NewString()})
			var invalid *service.ErrInvalidField
			Expect(errors.As(err, &invalid)).To(BeTrue())

			_, err = svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"colour": "red"})
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})

		It("fails for a missing job", func() {
			_, err := svc.UpdateJob(context.TODO(), uuid.New(), office, guardrail.Patch{"notes": "x"})
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Context("safe draft update", func() {
		It("rejects values the field cannot hold", func() {
			job := newJob("2026-03-02")
			_, err := svc.SafeUpdateDraft(context.TODO(), job.ID, "alice", guardrail.Patch{"notes": 5.0})
			var invalid *service.ErrInvalidField
			Expect(errors.As(err, &invalid)).To(BeTrue())

			_, err = svc.SafeUpdateDraft(context.TODO(), job.ID, "alice", guardrail.Patch{"measurements": "x"})
			Expect(errors.As(err, &invalid)).To(BeTrue())

			got, err := svc.GetJob(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Notes).To(BeEmpty())
		})

		It("drops every key that is not draft-safe", func() {
			job := newJob("2026-03-02")
			updated, err := svc.SafeUpdateDraft(context.TODO(), job.ID, "alice", guardrail.Patch{
				"notes":    "leaking trap",
				"overview": "Done",
				"status":   "Completed",
				"title":    "renamed",
			})
			Expect(err).To(BeNil())
			Expect(updated.Notes).To(Equal("leaking trap"))
			Expect(updated.Overview).To(BeEmpty())
			Expect(updated.Status).To(Equal(string(lifecycle.StatusOpen)))
			Expect(updated.Title).To(Equal("Replace tap"))
		})

		It("never lets an empty value replace a stored one", func() {
			job := newJob("2026-03-02")
			_, err := svc.SafeUpdateDraft(context.TODO(), job.ID, "alice", guardrail.Patch{
				"measurements": map[string]any{"width": 120.0, "height": 80.0},
				"photo_urls":   []any{"a.jpg"},
				"resolution":   "replaced washer",
			})
			Expect(err).To(BeNil())

			updated, err := svc.SafeUpdateDraft(context.TODO(), job.ID, "alice", guardrail.Patch{
				"measurements": map[string]any{"width": "", "depth": 10.0},
				"photo_urls":   []any{},
				"resolution":   "",
			})
			Expect(err).To(BeNil())
			Expect(updated.Measurements).To(Equal(map[string]any{"width": 120.0, "height": 80.0, "depth": 10.0}))
			Expect(updated.PhotoURLs).To(Equal([]string{"a.jpg"}))
			Expect(updated.Resolution).To(Equal("replaced washer"))
		})

		It("does not write when nothing changes", func() {
			job := newJob("2026-03-02")
			first, err := svc.SafeUpdateDraft(context.TODO(), job.ID, "alice", guardrail.Patch{"notes": "n"})
			Expect(err).To(BeNil())
			Expect(first.UpdatedAt).NotTo(BeNil())

			second, err := svc.SafeUpdateDraft(context.TODO(), job.ID, "alice", guardrail.Patch{"notes": "n", "overview": "x"})
			Expect(err).To(BeNil())
			Expect(second.UpdatedAt.Equal(*first.UpdatedAt)).To(BeTrue())
		})
	})

	Context("address", func() {
		It("overwrites on a manual edit", func() {
			job := newJob("2026-03-02")
			_, err := svc.UpdateJob(context.TODO(), job.ID, office, guardrail.Patch{"address_full": "123 Main St"})
			Expect(err).To(BeNil())

			full := "456 Park Ave"
			updated, err := svc.UpdateAddress(context.TODO(), job.ID, mappers.AddressForm{Full: &full})
			Expect(err).To(BeNil())
			Expect(updated.AddressFull).To(Equal("456 Park Ave"))
		})
	})

	Context("reschedule and cancel", func() {
		It("moves a job to a future date", func() {
			job := newJob("2026-03-02")
			updated, err := svc.Reschedule(context.TODO(), job.ID, "2026-03-20", "09:30")
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(string(lifecycle.StatusScheduled)))
			Expect(updated.ScheduledTime).To(Equal("09:30"))

			updated, err = svc.Reschedule(context.TODO(), job.ID, "2026-03-01", "")
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(string(lifecycle.StatusOpen)))
		})

		It("keeps a cancelled job cancelled", func() {
			job := newJob("2026-03-02")
			cancelled, err := svc.Cancel(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(cancelled.Status).To(Equal(string(lifecycle.StatusCancelled)))

			again, err := svc.Cancel(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(again.Status).To(Equal(string(lifecycle.StatusCancelled)))

			_, err = svc.Reschedule(context.TODO(), job.ID, "2026-03-20", "")
			var closed *service.ErrJobClosed
			Expect(errors.As(err, &closed)).To(BeTrue())
		})
	})

	Context("list", func() {
		It("filters by status and technician", func() {
			_, err := svc.CreateJob(context.TODO(), mappers.JobCreateForm{Title: "a", ScheduledDate: "2026-03-10", AssignedTechnicians: []string{"alice"}})
			Expect(err).To(BeNil())
			_, err = svc.CreateJob(context.TODO(), mappers.JobCreateForm{Title: "b", ScheduledDate: "2026-03-02", AssignedTechnicians: []string{"bob"}})
			Expect(err).To(BeNil())

			jobs, err := svc.ListJobs(context.TODO(), service.JobFilter{Status: []string{"Scheduled"}})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Title).To(Equal("a"))

			jobs, err = svc.ListJobs(context.TODO(), service.JobFilter{Technician: "bob"})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Title).To(Equal("b"))
		})
	})
})
