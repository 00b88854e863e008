package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/store/model"
)

type CheckIn interface {
	// List returns the job's records ordered by check-in time.
	List(ctx context.Context, jobID uuid.UUID) (model.CheckInList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.CheckIn, error)
	Create(ctx context.Context, checkIn model.CheckIn) (*model.CheckIn, error)
	// Close sets the check-out time. Closed records are never written again.
	Close(ctx context.Context, id uuid.UUID, checkOut time.Time, trivial bool) (*model.CheckIn, error)
	SetSelectedOutcome(ctx context.Context, id uuid.UUID, outcome string) (*model.CheckIn, error)
}

type CheckInStore struct {
	db *gorm.DB
}

// Make sure we conform to CheckIn interface
var _ CheckIn = (*CheckInStore)(nil)

func NewCheckInStore(db *gorm.DB) CheckIn {
	return &CheckInStore{db: db}
}

func (c *CheckInStore) List(ctx context.Context, jobID uuid.UUID) (model.CheckInList, error) {
	var checkIns model.CheckInList
	result := c.getDB(ctx).Where("job_id = ?", jobID).Order("check_in_time").Find(&checkIns)
	if result.Error != nil {
		return nil, result.Error
	}
	return checkIns, nil
}

func (c *CheckInStore) Get(ctx context.Context, id uuid.UUID) (*model.CheckIn, error) {
	var checkIn model.CheckIn
	result := c.getDB(ctx).First(&checkIn, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &checkIn, nil
}

func (c *CheckInStore) Create(ctx context.Context, checkIn model.CheckIn) (*model.CheckIn, error) {
	if checkIn.ID == uuid.Nil {
		checkIn.ID = uuid.New()
	}
	if err := c.getDB(ctx).Create(&checkIn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &checkIn, nil
}

func (c *CheckInStore) Close(ctx context.Context, id uuid.UUID, checkOut time.Time, trivial bool) (*model.CheckIn, error) {
	return c.updateOpen(ctx, id, map[string]any{
		"check_out_time": checkOut,
		"trivial":        trivial,
	})
}

func (c *CheckInStore) SetSelectedOutcome(ctx context.Context, id uuid.UUID, outcome string) (*model.CheckIn, error) {
	return c.updateOpen(ctx, id, map[string]any{"selected_outcome": outcome})
}

func (c *CheckInStore) updateOpen(ctx context.Context, id uuid.UUID, values map[string]any) (*model.CheckIn, error) {
	result := c.getDB(ctx).Model(&model.CheckIn{}).
		Where("id = ? AND check_out_time IS NULL", id).
		Updates(values)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := c.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrCheckInClosed
	}

	return c.Get(ctx, id)
}

func (c *CheckInStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return c.db.WithContext(ctx)
}
