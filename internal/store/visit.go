package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/store/model"
)

type Visit interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]model.Visit, error)
	Create(ctx context.Context, visit model.Visit) (*model.Visit, error)
}

type VisitStore struct {
	db *gorm.DB
}

// Make sure we conform to Visit interface
var _ Visit = (*VisitStore)(nil)

func NewVisitStore(db *gorm.DB) Visit {
	return &VisitStore{db: db}
}

func (v *VisitStore) Get(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var visit model.Visit
	result := v.getDB(ctx).First(&visit, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &visit, nil
}

func (v *VisitStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]model.Visit, error) {
	var visits []model.Visit
	if err := v.getDB(ctx).Where("job_id = ?", jobID).Order("created_at").Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

func (v *VisitStore) Create(ctx context.Context, visit model.Visit) (*model.Visit, error) {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	if err := v.getDB(ctx).Create(&visit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &visit, nil
}

func (v *VisitStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return v.db.WithContext(ctx)
}
