package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/config"
	st "github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
)

var _ = Describe("job store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())
		store = st.NewStore(db)
		gormDB = db
		Expect(store.InitialMigration(context.TODO())).To(Succeed())
	})

	AfterAll(func() {
		store.Close()
	})

	Context("get", func() {
		It("returns not found", func() {
			_, err := store.Job().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(st.ErrRecordNotFound))
		})

		It("round trips json columns", func() {
			created, err := store.Job().Create(context.TODO(), model.Job{
				Title:               "Kitchen refit",
				Status:              "Scheduled",
				AssignedTechnicians: []string{"alice", "bob"},
				Measurements:        map[string]any{"width": 2.4},
				PhotoURLs:           []string{"a.jpg"},
			})
			Expect(err).To(BeNil())
			Expect(created.ID).NotTo(Equal(uuid.Nil))

			job, err := store.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.AssignedTechnicians).To(Equal([]string{"alice", "bob"}))
			Expect(job.Measurements).To(Equal(map[string]any{"width": 2.4}))
			Expect(job.PhotoURLs).To(Equal([]string{"a.jpg"}))
		})
	})

	Context("update", func() {
		It("writes only the patched columns", func() {
			created, err := store.Job().Create(context.TODO(), model.Job{
				Title:    "Kitchen refit",
				Status:   "InProgress",
				Notes:    "gas isolated",
				Overview: "draft overview",
			})
			Expect(err).To(BeNil())

			updated, err := store.Job().Update(context.TODO(), created.ID, map[string]any{
				"photo_urls":   []any{"a.jpg", "b.jpg"},
				"measurements": map[string]any{"height": 1.2},
			})
			Expect(err).To(BeNil())
			Expect(updated.PhotoURLs).To(Equal([]string{"a.jpg", "b.jpg"}))
			Expect(updated.UpdatedAt).NotTo(BeNil())

			job, err := store.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.PhotoURLs).To(Equal([]string{"a.jpg", "b.jpg"}))
			Expect(job.Measurements).To(Equal(map[string]any{"height": 1.2}))
			Expect(job.Notes).To(Equal("gas isolated"))
			Expect(job.Overview).To(Equal("draft overview"))
		})

		It("clears a column mapped to nil", func() {
			created, err := store.Job().Create(context.TODO(), model.Job{Title: "Deck", Status: "Open", NextSteps: "order timber"})
			Expect(err).To(BeNil())

			_, err = store.Job().Update(context.TODO(), created.ID, map[string]any{"next_steps": nil})
			Expect(err).To(BeNil())

			job, err := store.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(job.NextSteps).To(BeEmpty())
		})

		It("refuses system fields", func() {
			created, err := store.Job().Create(context.TODO(), model.Job{Title: "Deck", Status: "Open"})
			Expect(err).To(BeNil())

			_, err = store.Job().Update(context.TODO(), created.ID, map[string]any{"id": uuid.NewString()})
			Expect(err).To(MatchError(st.ErrInvalidField))
			_, err = store.Job().Update(context.TODO(), created.ID, map[string]any{"colour": "red"})
			Expect(err).To(MatchError(st.ErrInvalidField))
		})
	})

	Context("list", func() {
		It("filters by status and technician", func() {
			_, err := store.Job().Create(context.TODO(), model.Job{Title: "a", Status: "Open", AssignedTechnicians: []string{"alice"}, ScheduledDate: "2026-03-02"})
			Expect(err).To(BeNil())
			_, err = store.Job().Create(context.TODO(), model.Job{Title: "b", Status: "Completed", AssignedTechnicians: []string{"bob"}, ScheduledDate: "2026-03-01"})
			Expect(err).To(BeNil())

			jobs, err := store.Job().List(context.TODO(), st.NewJobQueryFilter().ByStatus("Open"), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Title).To(Equal("a"))

			jobs, err = store.Job().List(context.TODO(), st.NewJobQueryFilter().ByTechnician("bob"), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].Title).To(Equal("b"))

			jobs, err = store.Job().List(context.TODO(), nil, st.NewJobQueryOptions().WithSortOrder(st.SortByScheduledDate))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))
			Expect(jobs[0].Title).To(Equal("b"))
		})
	})

	AfterEach(func() {
		gormDB.Exec("DELETE from jobs;")
	})
})
