package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/store/model"
)

// VisitSummary is append-only: there is no update or delete.
type VisitSummary interface {
	Create(ctx context.Context, summary model.VisitSummary) (*model.VisitSummary, error)
	List(ctx context.Context, jobID uuid.UUID) (model.VisitSummaryList, error)
}

type VisitSummaryStore struct {
	db *gorm.DB
}

// Make sure we conform to VisitSummary interface
var _ VisitSummary = (*VisitSummaryStore)(nil)

func NewVisitSummaryStore(db *gorm.DB) VisitSummary {
	return &VisitSummaryStore{db: db}
}

func (v *VisitSummaryStore) Create(ctx context.Context, summary model.VisitSummary) (*model.VisitSummary, error) {
	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	if err := v.getDB(ctx).Create(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &summary, nil
}

func (v *VisitSummaryStore) List(ctx context.Context, jobID uuid.UUID) (model.VisitSummaryList, error) {
	var summaries model.VisitSummaryList
	result := v.getDB(ctx).Where("job_id = ?", jobID).Order("check_out_time").Find(&summaries)
	if result.Error != nil {
		return nil, result.Error
	}
	return summaries, nil
}

func (v *VisitSummaryStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return v.db.WithContext(ctx)
}
