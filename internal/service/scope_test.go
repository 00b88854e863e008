package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/config"
	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/internal/service"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
	"github.com/fieldservice/jobvisit/pkg/clock"
)

var _ = Describe("scope service", Ordered, func() {
	var (
		s       store.Store
		gormDB  *gorm.DB
		svc     *service.ScopeService
		project *model.Project
		p1      = scope.FromTemplate(scope.ItemPart, "101", "Mixer tap", nil)
		p2      = scope.FromTemplate(scope.ItemTrade, "7", "Plumber", nil)
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		s = store.NewStore(db)
		gormDB = db
		Expect(s.InitialMigration(context.TODO())).To(Succeed())
		svc = service.NewScopeService(s)
	})

	AfterAll(func() {
		s.Close()
	})

	BeforeEach(func() {
		var err error
		project, err = s.Project().Create(context.TODO(), model.Project{
			Name: "Bathroom",
			Template: []model.TemplateItem{
				{Type: scope.ItemPart, RefID: "101", Label: "Mixer tap"},
				{Type: scope.ItemTrade, RefID: "7", Label: "Plumber"},
			},
		})
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM visits;")
		gormDB.Exec("DELETE FROM jobs;")
		gormDB.Exec("DELETE FROM projects;")
	})

	newVisit := func(items []scope.Item) scope.Ref {
		job, err := s.Job().Create(context.TODO(), model.Job{Title: "Bathroom", Status: "Open", ScopeItems: items})
		Expect(err).To(BeNil())
		visit, err := svc.CreateVisit(context.TODO(), job.ID)
		Expect(err).To(BeNil())
		return scope.Ref{Kind: scope.RefVisit, ID: visit.ID.String()}
	}

	It("starts a visit with a copy of the job list", func() {
		ref := newVisit([]scope.Item{p1, p2})
		items, err := svc.GetScope(context.TODO(), ref)
		Expect(err).To(BeNil())
		Expect(items).To(Equal([]scope.Item{p1, p2}))
	})

	It("applies a patch idempotently", func() {
		ref := newVisit([]scope.Item{p1, p2})
		c1 := scope.Item{Key: "job:part:1772440200000", Label: "Teflon tape", Type: scope.ItemPart, Source: scope.SourceJob}
		patch := scope.Patch{Add: []scope.Item{c1}, RemoveKeys: []string{p1.Key}}

		first, err := svc.PatchScope(context.TODO(), ref, patch)
		Expect(err).To(BeNil())
		Expect(first).To(Equal([]scope.Item{p2, c1}))

		second, err := svc.PatchScope(context.TODO(), ref, patch)
		Expect(err).To(BeNil())
		Expect(second).To(Equal(first))

		visitID := uuid.MustParse(ref.ID)
		visit, err := s.Visit().Get(context.TODO(), visitID)
		Expect(err).To(BeNil())
		Expect(visit.Version).To(Equal(2))
	})

	It("rejects malformed patches and refs", func() {
		ref := newVisit(nil)

		_, err := svc.PatchScope(context.TODO(), ref, scope.Patch{Add: []scope.Item{{Label: "no key", Type: scope.ItemPart}}})
		var invalidPatch *service.ErrInvalidScopePatch
		Expect(errors.As(err, &invalidPatch)).To(BeTrue())

		_, err = svc.GetScope(context.TODO(), scope.Ref{Kind: "quote", ID: ref.ID})
		var invalidRef *service.ErrInvalidScopeRef
		Expect(errors.As(err, &invalidRef)).To(BeTrue())

		_, err = svc.GetScope(context.TODO(), scope.Ref{Kind: scope.RefVisit, ID: uuid.NewString()})
		var notFound *service.ErrResourceNotFound
		Expect(errors.As(err, &notFound)).To(BeTrue())
	})

	It("seeds only the template entries that are missing", func() {
		edited := p1
		edited.Used = true
		ref := newVisit([]scope.Item{edited})

		items, err := svc.SeedFromProject(context.TODO(), ref, project.ID)
		Expect(err).To(BeNil())
		Expect(items).To(Equal([]scope.Item{edited, p2}))

		again, err := svc.SeedFromProject(context.TODO(), ref, project.ID)
		Expect(err).To(BeNil())
		Expect(again).To(Equal(items))
	})

	It("saves a session's edits after the quiet period", func() {
		ref := newVisit([]scope.Item{p1, p2})
		server, err := svc.GetScope(context.TODO(), ref)
		Expect(err).To(BeNil())

		clk := clock.Fake(time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC))
		var patches []scope.Patch
		patcher := scope.PatcherFunc(func(ctx context.Context, ref scope.Ref, patch scope.Patch) ([]scope.Item, error) {
			patches = append(patches, patch)
			return svc.PatchScope(ctx, ref, patch)
		})
		session := scope.NewSession(ref, server, patcher, scope.WithClock(clk))
		defer session.Close()

		Expect(session.Remove(p1.Key)).To(Succeed())
		c1, err := session.AddAdHoc(scope.ItemPart, "Teflon tape")
		Expect(err).To(BeNil())

		clk.Advance(scope.DefaultQuietPeriod)
		Expect(patches).To(HaveLen(1))
		Expect(patches[0]).To(Equal(scope.Patch{Add: []scope.Item{c1}, RemoveKeys: []string{p1.Key}}))
		Expect(session.State()).To(Equal(scope.StateClean))

		stored, err := svc.GetScope(context.TODO(), ref)
		Expect(err).To(BeNil())
		Expect(stored).To(Equal([]scope.Item{p2, c1}))
	})
})
