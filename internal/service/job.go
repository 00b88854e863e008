package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/guardrail"
	"github.com/fieldservice/jobvisit/internal/lifecycle"
	"github.com/fieldservice/jobvisit/internal/service/mappers"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
	"github.com/fieldservice/jobvisit/pkg/log"
)

const (
	AuditSourceJobUpdate   = "job_update"
	AuditSourceDraftUpdate = "draft_update"
)

type JobFilter struct {
	Status        []string
	ProjectID     string
	ScheduledDate string
	Technician    string
}

type JobService struct {
	store   store.Store
	engine  *guardrail.Engine
	deriver *lifecycle.StatusDeriver
	logger  *log.StructuredLogger
}

func NewJobService(store store.Store, engine *guardrail.Engine, deriver *lifecycle.StatusDeriver) *JobService {
	return &JobService{
		store:   store,
		engine:  engine,
		deriver: deriver,
		logger:  log.NewDebugLogger("job_service"),
	}
}

func (js *JobService) ListJobs(ctx context.Context, filter JobFilter) (model.JobList, error) {
	tracer := js.logger.WithContext(ctx).Operation("list_jobs").
		WithStrings("status", filter.Status).
		WithString("project_id", filter.ProjectID).
		WithString("scheduled_date", filter.ScheduledDate).
		WithString("technician", filter.Technician).
		Build()

	storeFilter := store.NewJobQueryFilter()
	if len(filter.Status) > 0 {
		storeFilter = storeFilter.ByStatus(filter.Status...)
	}
	if filter.ProjectID != "" {
		storeFilter = storeFilter.ByProjectID(filter.ProjectID)
	}
	if filter.ScheduledDate != "" {
		storeFilter = storeFilter.ByScheduledDate(filter.ScheduledDate)
	}
	if filter.Technician != "" {
		storeFilter = storeFilter.ByTechnician(filter.Technician)
	}

	jobs, err := js.store.Job().List(ctx, storeFilter, store.NewJobQueryOptions().WithSortOrder(store.SortByScheduledDate))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	tracer.Success().WithInt("count", len(jobs)).Log()
	return jobs, nil
}

func (js *JobService) GetJob(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	tracer := js.logger.WithContext(ctx).Operation("get_job").
		WithUUID("job_id", id).
		Build()

	job, err := js.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	tracer.Success().WithString("status", job.Status).Log()
	return job, nil
}

// CreateJob stores a new job. When the job belongs to a project its scope
// list starts as a copy of the project template.
func (js *JobService) CreateJob(ctx context.Context, form mappers.JobCreateForm) (*model.Job, error) {
	tracer := js.logger.WithContext(ctx).Operation("create_job").
		WithString("title", form.Title).
		WithString("project_id", form.ProjectID).
		WithString("scheduled_date", form.ScheduledDate).
		Build()

	if form.ScheduledDate != "" && !lifecycle.ValidDate(form.ScheduledDate) {
		return nil, NewErrInvalidDate(form.ScheduledDate)
	}

	job := form.ToModel()
	job.Status = string(js.deriver.Derive(lifecycle.StatusInput{
		ScheduledDate: job.ScheduledDate,
		CurrentStatus: lifecycle.StatusOpen,
	}))

	ctx, err := js.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	if form.ProjectID != "" {
		projectID, err := uuid.Parse(form.ProjectID)
		if err != nil {
			return nil, NewErrInvalidField("project_id")
		}
		project, err := js.store.Project().Get(ctx, projectID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, NewErrProjectNotFound(projectID)
			}
			return nil, err
		}
		job.ScopeItems = project.ScopeItems()
		tracer.Step("copy_project_template").WithInt("items", len(job.ScopeItems)).Log()
	}

	created, err := js.store.Job().Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().WithUUID("job_id", created.ID).WithString("status", created.Status).Log()
	return created, nil
}

func (js *JobService) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tracer := js.logger.WithContext(ctx).Operation("delete_job").
		WithUUID("job_id", id).
		Build()

	if err := js.store.Job().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	tracer.Success().Log()
	return nil
}

// UpdateJob is the guarded edit used while a visit is in progress. The patch
// goes through the guardrail in draft mode, so completion fields are dropped
// and audited. Address fields only fill blanks and every other field is
// merged, so an empty value never replaces a stored one. A new scheduled
// date re-derives the status.
func (js *JobService) UpdateJob(ctx context.Context, id uuid.UUID, actor auth.Actor, patch guardrail.Patch) (*model.Job, error) {
	tracer := js.logger.WithContext(ctx).Operation("update_job").
		WithUUID("job_id", id).
		WithString("actor_id", actor.ID).
		WithStrings("fields", patch.Keys()).
		Build()

	for _, field := range patch.Keys() {
		if !model.IsPatchableJobField(field) {
			return nil, NewErrInvalidField(field)
		}
	}
	if err := checkFieldValues(patch); err != nil {
		return nil, err
	}

	ctx, err := js.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, err := js.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	checkIns, err := js.store.CheckIn().List(ctx, id)
	if err != nil {
		return nil, err
	}

	if outcome, found := patch["outcome"]; found && actor.IsTechnician() && !guardrail.IsEmpty(outcome) {
		if !lifecycle.IsLastActiveTechnician(checkIns, actor.ID) {
			return nil, NewErrOutcomeNotPermitted(id, actor.ID)
		}
	}

	existing, err := job.ToRecord()
	if err != nil {
		return nil, err
	}

	res := js.engine.ApplyAndAudit(ctx, guardrail.AuditContext{
		JobID:   id.String(),
		ActorID: actor.ID,
		Source:  AuditSourceJobUpdate,
	}, existing, patch, guardrail.ModeDraft)
	if res.ShouldLog {
		tracer.Step("guardrail_blocked").WithStrings("blocked_fields", res.BlockedFields).Log()
	}

	classifier := js.engine.Classifier()
	update := map[string]any{}
	for _, field := range res.CleanPatch.Keys() {
		incoming := res.CleanPatch[field]
		switch {
		case classifier.IsAddress(field):
			update[field] = incoming
		default:
			// unclassified fields follow the draft-safe merge
			if merged, changed := guardrail.MergeValue(existing[field], incoming); changed {
				update[field] = merged
			}
		}
	}

	if date, found := update["scheduled_date"]; found {
		scheduled, ok := date.(string)
		if date != nil && (!ok || !lifecycle.ValidDate(scheduled)) {
			return nil, NewErrInvalidDate(fmt.Sprint(date))
		}
		status := js.deriver.Derive(lifecycle.StatusInput{
			ScheduledDate:    scheduled,
			Outcome:          lifecycle.Outcome(job.Outcome),
			CurrentStatus:    lifecycle.Status(job.Status),
			HasActiveCheckIn: len(lifecycle.OpenCheckIns(checkIns)) > 0,
		})
		if string(status) != job.Status {
			update["status"] = string(status)
		}
	}

	if len(update) == 0 {
		tracer.Success().WithInt("updated_fields", 0).Log()
		return job, nil
	}

	updated, err := js.store.Job().Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().WithInt("updated_fields", len(update)).Log()
	return updated, nil
}

func checkFieldValues(patch guardrail.Patch) error {
	for _, field := range patch.Keys() {
		if err := model.CheckJobFieldValue(field, patch[field]); err != nil {
			return NewErrInvalidFieldValue(field, patch[field])
		}
	}
	return nil
}

// SafeUpdateDraft writes draft-safe fields only, merged into what is stored.
// Every other key is dropped. Nothing is written when no field changes.
func (js *JobService) SafeUpdateDraft(ctx context.Context, id uuid.UUID, actorID string, patch guardrail.Patch) (*model.Job, error) {
	tracer := js.logger.WithContext(ctx).Operation("safe_update_draft").
		WithUUID("job_id", id).
		WithString("actor_id", actorID).
		WithStrings("fields", patch.Keys()).
		Build()

	ctx, err := js.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, err := js.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	existing, err := job.ToRecord()
	if err != nil {
		return nil, err
	}

	classifier := js.engine.Classifier()
	update := map[string]any{}
	dropped := []string{}
	for _, field := range patch.Keys() {
		if !classifier.IsDraftSafe(field) {
			dropped = append(dropped, field)
			continue
		}
		if err := model.CheckJobFieldValue(field, patch[field]); err != nil {
			return nil, NewErrInvalidFieldValue(field, patch[field])
		}
		if merged, changed := guardrail.MergeValue(existing[field], patch[field]); changed {
			update[field] = merged
		}
	}
	if len(dropped) > 0 {
		tracer.Step("drop_fields").WithStrings("fields", dropped).Log()
	}

	if len(update) == 0 {
		tracer.Success().WithInt("updated_fields", 0).Log()
		return job, nil
	}

	updated, err := js.store.Job().Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().WithInt("updated_fields", len(update)).Log()
	return updated, nil
}

// UpdateAddress is the manual address edit. Unlike every other write it
// overwrites address fields that already hold a value.
func (js *JobService) UpdateAddress(ctx context.Context, id uuid.UUID, form mappers.AddressForm) (*model.Job, error) {
	patch := form.ToPatch()
	tracer := js.logger.WithContext(ctx).Operation("update_address").
		WithUUID("job_id", id).
		WithInt("fields", len(patch)).
		Build()

	updated, err := js.store.Job().Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	tracer.Success().Log()
	return updated, nil
}

// Reschedule moves the job to a new date and re-derives its status.
func (js *JobService) Reschedule(ctx context.Context, id uuid.UUID, date, at string) (*model.Job, error) {
	tracer := js.logger.WithContext(ctx).Operation("reschedule_job").
		WithUUID("job_id", id).
		WithString("scheduled_date", date).
		WithString("scheduled_time", at).
		Build()

	if !lifecycle.ValidDate(date) {
		return nil, NewErrInvalidDate(date)
	}

	ctx, err := js.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, err := js.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}
	if isClosed(job) {
		return nil, NewErrJobClosed(id, job.Status)
	}

	checkIns, err := js.store.CheckIn().List(ctx, id)
	if err != nil {
		return nil, err
	}

	status := js.deriver.Derive(lifecycle.StatusInput{
		ScheduledDate:    date,
		Outcome:          lifecycle.Outcome(job.Outcome),
		CurrentStatus:    lifecycle.Status(job.Status),
		HasActiveCheckIn: len(lifecycle.OpenCheckIns(checkIns)) > 0,
	})
	tracer.Step("derive_status").WithString("status", string(status)).Log()

	updated, err := js.store.Job().Update(ctx, id, map[string]any{
		"scheduled_date": date,
		"scheduled_time": at,
		"status":         string(status),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule job: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().WithString("status", updated.Status).Log()
	return updated, nil
}

// Cancel marks the job Cancelled. A completed job cannot be cancelled.
func (js *JobService) Cancel(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	tracer := js.logger.WithContext(ctx).Operation("cancel_job").
		WithUUID("job_id", id).
		Build()

	ctx, err := js.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, err := js.store.Job().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobNotFound(id)
		}
		return nil, err
	}

	switch lifecycle.Status(job.Status) {
	case lifecycle.StatusCancelled:
		tracer.Success().WithBool("already_cancelled", true).Log()
		return job, nil
	case lifecycle.StatusCompleted:
		return nil, NewErrJobClosed(id, job.Status)
	}

	updated, err := js.store.Job().Update(ctx, id, map[string]any{"status": string(lifecycle.StatusCancelled)})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel job: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().Log()
	return updated, nil
}

func isClosed(job *model.Job) bool {
	s := lifecycle.Status(job.Status)
	return s == lifecycle.StatusCancelled || s == lifecycle.StatusCompleted
}
