package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
	"github.com/fieldservice/jobvisit/pkg/log"
)

// ScopeService is the server side of scope autosave. It satisfies the
// same Patcher and Fetcher contracts the client sessions use, so a session
// can run in process against it.
type ScopeService struct {
	store  store.Store
	logger *log.StructuredLogger
}

var (
	_ scope.Patcher = (*ScopeService)(nil)
	_ scope.Fetcher = (*ScopeService)(nil)
)

func NewScopeService(store store.Store) *ScopeService {
	return &ScopeService{
		store:  store,
		logger: log.NewDebugLogger("scope_service"),
	}
}

func (ss *ScopeService) GetScope(ctx context.Context, ref scope.Ref) ([]scope.Item, error) {
	tracer := ss.logger.WithContext(ctx).Operation("get_scope").
		WithString("ref", ref.String()).
		Build()

	if !ref.IsValid() {
		return nil, NewErrInvalidScopeRef(string(ref.Kind), ref.ID)
	}

	items, err := ss.store.Scope().Get(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrScopeOwnerNotFound(string(ref.Kind), ref.ID)
		}
		return nil, fmt.Errorf("failed to read scope: %w", err)
	}

	tracer.Success().WithInt("items", len(items)).Log()
	return items, nil
}

// PatchScope applies the patch to the stored list and returns the
// authoritative result. Re-sending a patch is harmless: adds of keys
// already present are ignored.
func (ss *ScopeService) PatchScope(ctx context.Context, ref scope.Ref, patch scope.Patch) ([]scope.Item, error) {
	tracer := ss.logger.WithContext(ctx).Operation("patch_scope").
		WithString("ref", ref.String()).
		WithInt("add", len(patch.Add)).
		WithInt("remove", len(patch.RemoveKeys)).
		WithInt("update", len(patch.Update)).
		Build()

	if !ref.IsValid() {
		return nil, NewErrInvalidScopeRef(string(ref.Kind), ref.ID)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	ctx, err := ss.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	current, err := ss.store.Scope().Get(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrScopeOwnerNotFound(string(ref.Kind), ref.ID)
		}
		return nil, fmt.Errorf("failed to read scope: %w", err)
	}

	if patch.IsEmpty() {
		tracer.Success().WithInt("items", len(current)).Log()
		return current, nil
	}

	items, err := ss.store.Scope().Replace(ctx, ref, scope.Apply(current, patch))
	if err != nil {
		return nil, fmt.Errorf("failed to write scope: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().WithInt("items", len(items)).Log()
	return items, nil
}

// SeedFromProject adds the project template entries that the list does
// not hold yet. Existing entries are left as they are.
func (ss *ScopeService) SeedFromProject(ctx context.Context, ref scope.Ref, projectID uuid.UUID) ([]scope.Item, error) {
	tracer := ss.logger.WithContext(ctx).Operation("seed_scope").
		WithString("ref", ref.String()).
		WithUUID("project_id", projectID).
		Build()

	if !ref.IsValid() {
		return nil, NewErrInvalidScopeRef(string(ref.Kind), ref.ID)
	}

	ctx, err := ss.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	project, err := ss.store.Project().Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrProjectNotFound(projectID)
		}
		return nil, err
	}

	current, err := ss.store.Scope().Get(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrScopeOwnerNotFound(string(ref.Kind), ref.ID)
		}
		return nil, fmt.Errorf("failed to read scope: %w", err)
	}

	items := scope.Apply(current, scope.Patch{Add: project.ScopeItems()})
	added := len(items) - len(current)
	if added == 0 {
		tracer.Success().WithInt("added", 0).Log()
		return current, nil
	}

	items, err = ss.store.Scope().Replace(ctx, ref, items)
	if err != nil {
		return nil, fmt.Errorf("failed to write scope: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().WithInt("added", added).Log()
	return items, nil
}

// CreateVisit opens a new visit on the job. Its scope list starts as a copy
// of the job's list.
func (ss *ScopeService) CreateVisit(ctx context.Context, jobID uuid.UUID) (*model.Visit, error) {
	tracer := ss.logger.WithContext(ctx).Operation("create_visit").
		WithUUID("job_id", jobID).
		Build()

	ctx, err := ss.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	items, err := ss.store.Scope().Get(ctx, scope.Ref{Kind: scope.RefJob, ID: jobID.String()})
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	visit, err := ss.store.Visit().Create(ctx, model.Visit{JobID: jobID, ScopeItems: items})
	if err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().WithUUID("visit_id", visit.ID).Log()
	return visit, nil
}

func (ss *ScopeService) ListVisits(ctx context.Context, jobID uuid.UUID) ([]model.Visit, error) {
	tracer := ss.logger.WithContext(ctx).Operation("list_visits").
		WithUUID("job_id", jobID).
		Build()

	if _, err := ss.store.Job().Get(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(jobID)
		}
		return nil, err
	}

	visits, err := ss.store.Visit().ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}

	tracer.Success().WithInt("count", len(visits)).Log()
	return visits, nil
}

func validatePatch(patch scope.Patch) error {
	for _, item := range append(append([]scope.Item{}, patch.Add...), patch.Update...) {
		if item.Key == "" {
			return NewErrInvalidScopePatch("scope item %q has no key", item.Label)
		}
		if !item.Type.IsValid() {
			return NewErrInvalidScopePatch("scope item %s has invalid type %q", item.Key, item.Type)
		}
	}
	for _, key := range patch.RemoveKeys {
		if key == "" {
			return NewErrInvalidScopePatch("empty key in remove_keys")
		}
	}
	return nil
}
