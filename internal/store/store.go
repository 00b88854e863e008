package store

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	CheckIn() CheckIn
	VisitSummary() VisitSummary
	Visit() Visit
	Project() Project
	Scope() Scope
	InitialMigration(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db           *gorm.DB
	log          logrus.FieldLogger
	job          Job
	checkIn      CheckIn
	visitSummary VisitSummary
	visit        Visit
	project      Project
	scope        Scope
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:           db,
		log:          logrus.WithField("component", "store"),
		job:          NewJobStore(db),
		checkIn:      NewCheckInStore(db),
		visitSummary: NewVisitSummaryStore(db),
		visit:        NewVisitStore(db),
		project:      NewProjectStore(db),
		scope:        NewScopeStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db, s.log)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) CheckIn() CheckIn {
	return s.checkIn
}

func (s *DataStore) VisitSummary() VisitSummary {
	return s.visitSummary
}

func (s *DataStore) Visit() Visit {
	return s.visit
}

func (s *DataStore) Project() Project {
	return s.project
}

func (s *DataStore) Scope() Scope {
	return s.scope
}

// InitialMigration creates the schema from the models. Production
// databases are migrated with the SQL files instead.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.Job{},
		&model.CheckIn{},
		&model.VisitSummary{},
		&model.Visit{},
		&model.Project{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
