package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldservice/jobvisit/internal/store/model"
)

// Project templates are read-only once created.
type Project interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
	Create(ctx context.Context, project model.Project) (*model.Project, error)
}

type ProjectStore struct {
	db *gorm.DB
}

// Make sure we conform to Project interface
var _ Project = (*ProjectStore)(nil)

func NewProjectStore(db *gorm.DB) Project {
	return &ProjectStore{db: db}
}

func (p *ProjectStore) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	result := p.getDB(ctx).First(&project, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &project, nil
}

func (p *ProjectStore) Create(ctx context.Context, project model.Project) (*model.Project, error) {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if err := p.getDB(ctx).Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &project, nil
}

func (p *ProjectStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return p.db.WithContext(ctx)
}
