package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/service/mappers"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
	"github.com/fieldservice/jobvisit/pkg/log"
)

type ProjectService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewProjectService(store store.Store) *ProjectService {
	return &ProjectService{
		store:  store,
		logger: log.NewDebugLogger("project_service"),
	}
}

func (ps *ProjectService) CreateProject(ctx context.Context, form mappers.ProjectCreateForm) (*model.Project, error) {
	tracer := ps.logger.WithContext(ctx).Operation("create_project").
		WithString("name", form.Name).
		WithInt("template_items", len(form.Template)).
		Build()

	project, err := ps.store.Project().Create(ctx, form.ToModel())
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	tracer.Success().WithUUID("project_id", project.ID).Log()
	return project, nil
}

func (ps *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	tracer := ps.logger.WithContext(ctx).Operation("get_project").
		WithUUID("project_id", id).
		Build()

	project, err := ps.store.Project().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	tracer.Success().WithString("name", project.Name).Log()
	return project, nil
}
