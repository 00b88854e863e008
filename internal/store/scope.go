package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/internal/store/model"
)

// Scope reads and writes the scope list of a visit, or of a job when no
// visit applies.
type Scope interface {
	Get(ctx context.Context, ref scope.Ref) ([]scope.Item, error)
	Replace(ctx context.Context, ref scope.Ref, items []scope.Item) ([]scope.Item, error)
}

type ScopeStore struct {
	db *gorm.DB
}

// Make sure we conform to Scope interface
var _ Scope = (*ScopeStore)(nil)

func NewScopeStore(db *gorm.DB) Scope {
	return &ScopeStore{db: db}
}

func (s *ScopeStore) Get(ctx context.Context, ref scope.Ref) ([]scope.Item, error) {
	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	switch ref.Kind {
	case scope.RefVisit:
		var visit model.Visit
		if err := s.getDB(ctx).Select("id", "scope_items").First(&visit, "id = ?", id).Error; err != nil {
			return nil, translate(err)
		}
		return nonNil(visit.ScopeItems), nil
	case scope.RefJob:
		var job model.Job
		if err := s.getDB(ctx).Select("id", "scope_items").First(&job, "id = ?", id).Error; err != nil {
			return nil, translate(err)
		}
		return nonNil(job.ScopeItems), nil
	default:
		return nil, fmt.Errorf("unknown scope owner %q", ref.Kind)
	}
}

func (s *ScopeStore) Replace(ctx context.Context, ref scope.Ref, items []scope.Item) ([]scope.Item, error) {
	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, ErrRecordNotFound
	}
	items = nonNil(items)
	now := time.Now()

	var result *gorm.DB
	switch ref.Kind {
	case scope.RefVisit:
		visit := model.Visit{ID: id, ScopeItems: items, UpdatedAt: &now}
		result = s.getDB(ctx).Model(&visit).Select("scope_items", "updated_at").Updates(&visit)
		if result.Error == nil && result.RowsAffected > 0 {
			if err := s.getDB(ctx).Model(&model.Visit{}).Where("id = ?", id).
				UpdateColumn("version", gorm.Expr("version + 1")).Error; err != nil {
				return nil, err
			}
		}
	case scope.RefJob:
		job := model.Job{ID: id, ScopeItems: items, UpdatedAt: &now}
		result = s.getDB(ctx).Model(&job).Select("scope_items", "updated_at").Updates(&job)
	default:
		return nil, fmt.Errorf("unknown scope owner %q", ref.Kind)
	}

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return items, nil
}

func (s *ScopeStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

func nonNil(items []scope.Item) []scope.Item {
	if items == nil {
		return []scope.Item{}
	}
	return items
}
