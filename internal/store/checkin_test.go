package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/config"
	st "github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
)

var _ = Describe("check-in store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
		jobID  uuid.UUID
		start  = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
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

	BeforeEach(func() {
		jobID = uuid.New()
	})

	It("lists records in check-in order", func() {
		_, err := store.CheckIn().Create(context.TODO(), model.CheckIn{JobID: jobID, Technician: "bob", CheckInTime: start.Add(time.Hour)})
		Expect(err).To(BeNil())
		_, err = store.CheckIn().Create(context.TODO(), model.CheckIn{JobID: jobID, Technician: "alice", CheckInTime: start})
		Expect(err).To(BeNil())
		_, err = store.CheckIn().Create(context.TODO(), model.CheckIn{JobID: uuid.New(), Technician: "carol", CheckInTime: start})
		Expect(err).To(BeNil())

		records, err := store.CheckIn().List(context.TODO(), jobID)
		Expect(err).To(BeNil())
		Expect(records).To(HaveLen(2))
		Expect(records[0].Technician).To(Equal("alice"))
		Expect(records[1].Technician).To(Equal("bob"))
	})

	It("closes a record once", func() {
		rec, err := store.CheckIn().Create(context.TODO(), model.CheckIn{JobID: jobID, Technician: "alice", CheckInTime: start})
		Expect(err).To(BeNil())
		Expect(rec.IsOpen()).To(BeTrue())

		closed, err := store.CheckIn().Close(context.TODO(), rec.ID, start.Add(30*time.Second), true)
		Expect(err).To(BeNil())
		Expect(closed.IsOpen()).To(BeFalse())
		Expect(closed.Trivial).To(BeTrue())

		_, err = store.CheckIn().Close(context.TODO(), rec.ID, start.Add(time.Hour), false)
		Expect(err).To(MatchError(st.ErrCheckInClosed))

		_, err = store.CheckIn().SetSelectedOutcome(context.TODO(), rec.ID, "completed")
		Expect(err).To(MatchError(st.ErrCheckInClosed))
	})

	It("stages an outcome on an open record", func() {
		rec, err := store.CheckIn().Create(context.TODO(), model.CheckIn{JobID: jobID, Technician: "alice", CheckInTime: start})
		Expect(err).To(BeNil())

		updated, err := store.CheckIn().SetSelectedOutcome(context.TODO(), rec.ID, "completed")
		Expect(err).To(BeNil())
		Expect(updated.SelectedOutcome).To(Equal("completed"))
		Expect(updated.IsOpen()).To(BeTrue())
	})

	It("returns not found for unknown records", func() {
		_, err := store.CheckIn().Close(context.TODO(), uuid.New(), start, false)
		Expect(err).To(MatchError(st.ErrRecordNotFound))
	})

	It("appends visit summaries", func() {
		rec, err := store.CheckIn().Create(context.TODO(), model.CheckIn{JobID: jobID, Technician: "alice", CheckInTime: start})
		Expect(err).To(BeNil())

		_, err = store.VisitSummary().Create(context.TODO(), model.VisitSummary{
			JobID:           jobID,
			CheckInID:       rec.ID,
			Technician:      "alice",
			Overview:        "Replaced tap",
			PhotoURLs:       []string{"a.jpg"},
			CheckInTime:     start,
			CheckOutTime:    start.Add(time.Hour),
			DurationSeconds: 3600,
		})
		Expect(err).To(BeNil())

		// one summary per check-in
		_, err = store.VisitSummary().Create(context.TODO(), model.VisitSummary{
			JobID:        jobID,
			CheckInID:    rec.ID,
			Technician:   "alice",
			CheckInTime:  start,
			CheckOutTime: start.Add(time.Hour),
		})
		Expect(err).To(MatchError(st.ErrDuplicateKey))

		summaries, err := store.VisitSummary().List(context.TODO(), jobID)
		Expect(err).To(BeNil())
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].PhotoURLs).To(Equal([]string{"a.jpg"}))
	})

	AfterEach(func() {
		gormDB.Exec("DELETE from check_ins;")
		gormDB.Exec("DELETE from visit_summaries;")
	})
})
