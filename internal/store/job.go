package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/store/model"
)

type Job interface {
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	// Update writes only the columns named by the patch keys. A key mapped
	// to nil resets the column to its zero value.
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*model.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (j *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error) {
	var jobs model.JobList
	tx := j.getDB(ctx).Model(&jobs)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	} else {
		tx = tx.Order("created_at")
	}

	result := tx.Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}

func (j *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	result := j.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &job, nil
}

func (j *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	result := j.getDB(ctx).Create(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &job, nil
}

func (j *JobStore) Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*model.Job, error) {
	current, err := j.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return current, nil
	}

	rec, err := current.ToRecord()
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(patch)+1)
	for field, value := range patch {
		if !model.IsPatchableJobField(field) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidField, field)
		}
		rec[field] = value
		columns = append(columns, field)
	}

	updated, err := model.JobFromRecord(rec)
	if err != nil {
		return nil, err
	}
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	now := time.Now()
	updated.UpdatedAt = &now
	columns = append(columns, "updated_at")

	if err := j.getDB(ctx).Model(updated).Select(columns).Updates(updated).Error; err != nil {
		return nil, err
	}
	return updated, nil
}

func (j *JobStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := j.getDB(ctx).Delete(&model.Job{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (j *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return j.db.WithContext(ctx)
}
