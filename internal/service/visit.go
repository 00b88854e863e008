package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/guardrail"
	"github.com/fieldservice/jobvisit/internal/lifecycle"
	"github.com/fieldservice/jobvisit/internal/store"
	"github.com/fieldservice/jobvisit/internal/store/model"
	"github.com/fieldservice/jobvisit/pkg/clock"
	"github.com/fieldservice/jobvisit/pkg/log"
	"github.com/fieldservice/jobvisit/pkg/metrics"
)

type CheckoutResult struct {
	CheckIn *model.CheckIn
	// Summary is nil for a trivial visit.
	Summary *model.VisitSummary
	Job     *model.Job
	Trivial bool
}

type VisitServiceOption func(vs *VisitService)

func WithMinVisitDuration(d time.Duration) VisitServiceOption {
	return func(vs *VisitService) {
		if d > 0 {
			vs.minVisit = d
		}
	}
}

func WithVisitClock(c clock.Clock) VisitServiceOption {
	return func(vs *VisitService) {
		vs.clock = c
	}
}

type VisitService struct {
	store     store.Store
	engine    *guardrail.Engine
	deriver   *lifecycle.StatusDeriver
	validator *lifecycle.CheckoutValidator
	clock     clock.Clock
	minVisit  time.Duration
	logger    *log.StructuredLogger
}

func NewVisitService(store store.Store, engine *guardrail.Engine, deriver *lifecycle.StatusDeriver, opts ...VisitServiceOption) *VisitService {
	vs := &VisitService{
		store:     store,
		engine:    engine,
		deriver:   deriver,
		validator: lifecycle.NewCheckoutValidator(),
		clock:     clock.Real(),
		minVisit:  lifecycle.DefaultMinVisitDuration,
		logger:    log.NewDebugLogger("visit_service"),
	}
	for _, o := range opts {
		o(vs)
	}
	return vs
}

// CheckIn opens a visit record for the technician. The first technician on
// site moves a Scheduled or Open job to InProgress.
func (vs *VisitService) CheckIn(ctx context.Context, jobID uuid.UUID, technician string) (*model.CheckIn, error) {
	tracer := vs.logger.WithContext(ctx).Operation("check_in").
		WithUUID("job_id", jobID).
		WithString("technician", technician).
		Build()

	ctx, err := vs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, checkIns, err := vs.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if isClosed(job) {
		return nil, NewErrJobClosed(jobID, job.Status)
	}
	if _, found := lifecycle.OpenCheckInFor(checkIns, technician); found {
		return nil, NewErrAlreadyCheckedIn(jobID, technician)
	}

	checkIn, err := vs.store.CheckIn().Create(ctx, model.CheckIn{
		JobID:       jobID,
		Technician:  technician,
		CheckInTime: vs.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	status := lifecycle.Status(job.Status)
	if len(lifecycle.OpenCheckIns(checkIns)) == 0 && (status == lifecycle.StatusScheduled || status == lifecycle.StatusOpen) {
		if _, err := vs.store.Job().Update(ctx, jobID, map[string]any{"status": string(lifecycle.StatusInProgress)}); err != nil {
			return nil, fmt.Errorf("failed to update job status: %w", err)
		}
		tracer.Step("job_in_progress").Log()
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncreaseCheckInMetric()
	tracer.Success().WithUUID("checkin_id", checkIn.ID).Log()
	return checkIn, nil
}

// CheckOut closes the technician's open record. A visit shorter than the
// minimum duration is closed as trivial and nothing else changes. Otherwise
// the form is validated, a visit summary is appended, form photos are
// merged into the job and, for the last technician on site, the completion
// fields and the derived status are written.
func (vs *VisitService) CheckOut(ctx context.Context, jobID uuid.UUID, technician string, form lifecycle.CheckoutForm) (*CheckoutResult, error) {
	tracer := vs.logger.WithContext(ctx).Operation("check_out").
		WithUUID("job_id", jobID).
		WithString("technician", technician).
		Build()

	ctx, err := vs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	job, checkIns, err := vs.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	open, found := lifecycle.OpenCheckInFor(checkIns, technician)
	if !found {
		metrics.IncreaseCheckoutMetric(metrics.ResultRejected)
		return nil, NewErrNoOpenCheckIn(jobID, technician)
	}

	now := vs.clock.Now()
	if lifecycle.IsTrivial(open.CheckInTime, now, vs.minVisit) {
		closed, err := vs.store.CheckIn().Close(ctx, open.ID, now, true)
		if err != nil {
			return nil, fmt.Errorf("failed to close check-in: %w", err)
		}
		if _, err := store.Commit(ctx); err != nil {
			return nil, err
		}
		metrics.IncreaseCheckoutMetric(metrics.ResultTrivial)
		tracer.Success().WithBool("trivial", true).Log()
		return &CheckoutResult{CheckIn: closed, Job: job, Trivial: true}, nil
	}

	// a staged outcome only counts while the technician is still the last on site
	last := lifecycle.IsLastActiveTechnician(checkIns, technician)
	if strings.TrimSpace(form.Outcome) == "" {
		form.Outcome = ""
		if last {
			form.Outcome = open.SelectedOutcome
		}
	}
	if form.Outcome != "" {
		if !last {
			metrics.IncreaseCheckoutMetric(metrics.ResultRejected)
			return nil, NewErrOutcomeNotPermitted(jobID, technician)
		}
		if !lifecycle.Outcome(form.Outcome).IsValid() {
			return nil, NewErrInvalidOutcome(form.Outcome)
		}
	}

	formPhotos := lifecycle.NonBlank(form.PhotoURLs)
	photos := append(append([]string{}, job.PhotoURLs...), formPhotos...)
	if err := vs.validator.Validate(form, photos, last); err != nil {
		var incomplete *lifecycle.ErrCheckoutIncomplete
		if errors.As(err, &incomplete) {
			metrics.IncreaseCheckoutMetric(metrics.ResultFailure)
			tracer.Step("validation_failed").WithStrings("missing", incomplete.Missing).Log()
			return nil, NewErrCheckoutIncomplete(incomplete.Missing)
		}
		return nil, err
	}

	summary, err := vs.store.VisitSummary().Create(ctx, model.VisitSummary{
		CreatedAt:               now,
		JobID:                   jobID,
		CheckInID:               open.ID,
		Technician:              technician,
		Overview:                form.Overview,
		NextSteps:               form.NextSteps,
		CommunicationWithClient: form.CommunicationWithClient,
		CompletionNotes:         form.CompletionNotes,
		Outcome:                 form.Outcome,
		PhotoURLs:               formPhotos,
		CheckInTime:             open.CheckInTime,
		CheckOutTime:            now,
		DurationSeconds:         int64(now.Sub(open.CheckInTime).Seconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create visit summary: %w", err)
	}
	tracer.Step("summary_created").WithUUID("summary_id", summary.ID).Log()

	closed, err := vs.store.CheckIn().Close(ctx, open.ID, now, false)
	if err != nil {
		return nil, fmt.Errorf("failed to close check-in: %w", err)
	}

	existing, err := job.ToRecord()
	if err != nil {
		return nil, err
	}

	update := map[string]any{}
	if len(formPhotos) > 0 {
		if merged, changed := guardrail.MergeValue(existing["photo_urls"], toAnySlice(formPhotos)); changed {
			update["photo_urls"] = merged
		}
	}

	if last {
		status := vs.deriver.Derive(lifecycle.StatusInput{
			ScheduledDate: job.ScheduledDate,
			Outcome:       lifecycle.Outcome(form.Outcome),
			CurrentStatus: lifecycle.Status(job.Status),
		})
		res := vs.engine.Apply(existing, guardrail.Patch{
			"overview":                  form.Overview,
			"next_steps":                form.NextSteps,
			"communication_with_client": form.CommunicationWithClient,
			"completion_notes":          form.CompletionNotes,
			"outcome":                   form.Outcome,
			"status":                    string(status),
		}, guardrail.ModeFinal)
		for field, v := range res.CleanPatch {
			update[field] = v
		}
		tracer.Step("apply_completion").WithString("status", string(status)).Log()
	}

	updated := job
	if len(update) > 0 {
		if updated, err = vs.store.Job().Update(ctx, jobID, update); err != nil {
			return nil, fmt.Errorf("failed to update job: %w", err)
		}
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncreaseCheckoutMetric(metrics.ResultSuccess)
	tracer.Success().
		WithBool("last_technician", last).
		WithString("status", updated.Status).
		Log()
	return &CheckoutResult{CheckIn: closed, Summary: summary, Job: updated}, nil
}

// SelectOutcome stages an outcome on the technician's open record. Only
// the last technician on site may pick one.
func (vs *VisitService) SelectOutcome(ctx context.Context, jobID uuid.UUID, technician string, outcome string) (*model.CheckIn, error) {
	tracer := vs.logger.WithContext(ctx).Operation("select_outcome").
		WithUUID("job_id", jobID).
		WithString("technician", technician).
		WithString("outcome", outcome).
		Build()

	if !lifecycle.Outcome(outcome).IsValid() {
		return nil, NewErrInvalidOutcome(outcome)
	}

	ctx, err := vs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = store.Rollback(ctx)
	}()

	_, checkIns, err := vs.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	open, found := lifecycle.OpenCheckInFor(checkIns, technician)
	if !found {
		return nil, NewErrNoOpenCheckIn(jobID, technician)
	}
	if !lifecycle.IsLastActiveTechnician(checkIns, technician) {
		return nil, NewErrOutcomeNotPermitted(jobID, technician)
	}

	checkIn, err := vs.store.CheckIn().SetSelectedOutcome(ctx, open.ID, outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to stage outcome: %w", err)
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().Log()
	return checkIn, nil
}

func (vs *VisitService) ListCheckIns(ctx context.Context, jobID uuid.UUID) (model.CheckInList, error) {
	tracer := vs.logger.WithContext(ctx).Operation("list_checkins").
		WithUUID("job_id", jobID).
		Build()

	_, checkIns, err := vs.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	tracer.Success().WithInt("count", len(checkIns)).Log()
	return checkIns, nil
}

func (vs *VisitService) ListSummaries(ctx context.Context, jobID uuid.UUID) (*model.Job, model.VisitSummaryList, error) {
	tracer := vs.logger.WithContext(ctx).Operation("list_summaries").
		WithUUID("job_id", jobID).
		Build()

	job, err := vs.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil, NewErrJobNotFound(jobID)
		}
		return nil, nil, err
	}

	summaries, err := vs.store.VisitSummary().List(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list visit summaries: %w", err)
	}

	tracer.Success().WithInt("count", len(summaries)).Log()
	return job, summaries, nil
}

func (vs *VisitService) loadJob(ctx context.Context, jobID uuid.UUID) (*model.Job, model.CheckInList, error) {
	job, err := vs.store.Job().Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil, NewErrJobNotFound(jobID)
		}
		return nil, nil, err
	}

	checkIns, err := vs.store.CheckIn().List(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return job, checkIns, nil
}

func toAnySlice(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
