package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data"
	domainjob "github.com/hausmate/hausmate-core/internal/domain/job"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	"github.com/hausmate/hausmate-core/internal/domain/payroll"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

// LifecycleOptions groups dependencies for LifecycleService.
type LifecycleOptions struct {
	Jobs    core.JobRepository    // Required: job record store
	Workers core.WorkerRepository // Required: worker directory
	Events  domainjob.Publisher   // Optional: committed-transition observer
	Rates   *core.RateTableCache  // Optional: earnings breakdown on completion
	Clock   core.Clock            // Optional: injectable time source
	Logger  *slog.Logger          // Optional: structured logger
}

// LifecycleService drives a job through its lifecycle.
//
// Transitions are committed through status-guarded conditional writes in the
// store. When a guard fails the service re-reads the job once, only to decide
// whether the caller gets a not-found or a conflict; it never retries the
// write on the caller's behalf. Events go out strictly after the commit.
type LifecycleService struct {
	jobs    core.JobRepository
	workers core.WorkerRepository
	events  domainjob.Publisher
	rates   *core.RateTableCache
	clock   core.Clock
	logger  *slog.Logger
}

// NewLifecycleService constructs a new LifecycleService.
func NewLifecycleService(opts LifecycleOptions) (*LifecycleService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Workers == nil {
		return nil, errors.New("WorkerRepository is required")
	}
	events := opts.Events
	if events == nil {
		events = domainjob.PublisherFunc(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = core.ClockFunc(time.Now)
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "lifecycle_service")
	}

	return &LifecycleService{
		jobs:    opts.Jobs,
		workers: opts.Workers,
		events:  events,
		rates:   opts.Rates,
		clock:   clock,
		logger:  logger,
	}, nil
}

// MustNewLifecycleService constructs a new LifecycleService and panics on error.
func MustNewLifecycleService(opts LifecycleOptions) *LifecycleService {
	svc, err := NewLifecycleService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create LifecycleService: %v", err))
	}
	return svc
}

// CreateJob posts a new job in pending status. No event fires; pending jobs
// are invisible until approved.
func (s *LifecycleService) CreateJob(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "job created",
			"id", job.ID,
			"service_type", job.ServiceType,
			"household_id", job.HouseholdID,
		)
	}
	return job, nil
}

// GetJob fetches a job by id.
func (s *LifecycleService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if errors.Is(err, data.ErrJobNotFound) {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs matching the given filters.
func (s *LifecycleService) ListJobs(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	jobs, err := s.jobs.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// JobStats returns per-status job counts.
func (s *LifecycleService) JobStats(ctx context.Context) (*model.JobStats, error) {
	stats, err := s.jobs.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return stats, nil
}

// ApproveJob transitions a pending job to open and notifies the household.
func (s *LifecycleService) ApproveJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.jobs.Approve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("approve job: %w", err)
	}
	if !ok {
		return nil, s.transitionConflict(ctx, id, "approve", model.JobStatusPending)
	}

	job.Status = model.JobStatusOpen
	s.publish(domainjob.Event{
		Type:        domainjob.EventApproved,
		JobID:       job.ID,
		JobTitle:    job.Title,
		HouseholdID: job.HouseholdID,
	})
	return job, nil
}

// AssignWorker commits a worker to an open job. The conditional write is the
// arbiter under concurrency: of two racing commits exactly one sees the open
// row, the other gets a conflict.
func (s *LifecycleService) AssignWorker(ctx context.Context, jobID, workerID string) (*model.Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, apperrors.ValidationField("job_id", "job id is required")
	}
	if strings.TrimSpace(workerID) == "" {
		return nil, apperrors.ValidationField("worker_id", "worker id is required")
	}

	worker, err := s.workers.GetByID(ctx, workerID)
	if errors.Is(err, data.ErrWorkerNotFound) {
		return nil, apperrors.NotFoundf("worker %s not found", workerID)
	}
	if err != nil {
		return nil, fmt.Errorf("get worker: %w", err)
	}
	if worker.Status != model.WorkerStatusActive {
		return nil, apperrors.Conflictf("worker %s is not active", workerID)
	}

	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	ok, err := s.jobs.Assign(ctx, core.AssignParams{
		JobID:      jobID,
		WorkerID:   worker.ID,
		WorkerName: worker.FullName,
	})
	if err != nil {
		return nil, fmt.Errorf("assign worker: %w", err)
	}
	if !ok {
		return nil, s.transitionConflict(ctx, jobID, "assign", model.JobStatusOpen)
	}

	job.Status = model.JobStatusAssigned
	job.WorkerID = &worker.ID
	job.WorkerName = &worker.FullName

	if s.logger != nil {
		s.logger.InfoContext(ctx, "worker assigned",
			"job_id", jobID,
			"worker_id", workerID,
		)
	}
	s.publish(domainjob.Event{
		Type:        domainjob.EventAssigned,
		JobID:       job.ID,
		JobTitle:    job.Title,
		HouseholdID: job.HouseholdID,
		WorkerID:    worker.ID,
		WorkerName:  worker.FullName,
	})
	return job, nil
}

// CompletedJob pairs a completed job with the worker's earnings breakdown,
// recomputed from the job's canonical gross at completion time. Nothing
// derived is persisted.
type CompletedJob struct {
	Job      *model.Job
	Earnings *payroll.WorkerPayout
}

// CompleteJob transitions an assigned job to completed and attaches the
// earnings breakdown. A missing rate table leaves Earnings nil; it never
// rolls back the committed transition.
func (s *LifecycleService) CompleteJob(ctx context.Context, id string) (*CompletedJob, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.jobs.Complete(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("complete job: %w", err)
	}
	if !ok {
		return nil, s.transitionConflict(ctx, id, "complete", model.JobStatusAssigned)
	}

	job.Status = model.JobStatusCompleted
	job.CompletedAt = &now
	s.publish(domainjob.Event{
		Type:        domainjob.EventCompleted,
		JobID:       job.ID,
		JobTitle:    job.Title,
		HouseholdID: job.HouseholdID,
		WorkerID:    deref(job.WorkerID),
		WorkerName:  deref(job.WorkerName),
	})
	return &CompletedJob{Job: job, Earnings: s.earningsFor(ctx, job)}, nil
}

// earningsFor computes the worker payout for a job's gross amount. Returns
// nil when no rate source is wired or the breakdown cannot be computed.
func (s *LifecycleService) earningsFor(ctx context.Context, job *model.Job) *payroll.WorkerPayout {
	if s.rates == nil {
		return nil
	}
	table, err := s.rates.Get(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "rate table unavailable, skipping earnings breakdown",
				"job_id", job.ID,
				"error", err,
			)
		}
		return nil
	}
	payout, err := payroll.WorkerBreakdown(job.GrossAmount, table)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "earnings breakdown failed",
				"job_id", job.ID,
				"error", err,
			)
		}
		return nil
	}
	return &payout
}

// CancelJob transitions any non-terminal job to cancelled. Cancelling an
// already-cancelled or completed job is a conflict, not a no-op.
func (s *LifecycleService) CancelJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ok, err := s.jobs.Cancel(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	if !ok {
		// any non-terminal status passes the guard, so a failed guard on an
		// existing row can only mean the job already ended
		fresh, ferr := s.GetJob(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, apperrors.Conflictf("cannot cancel job in status %s", fresh.Status)
	}

	job.Status = model.JobStatusCancelled
	job.CancelledAt = &now
	s.publish(domainjob.Event{
		Type:        domainjob.EventCancelled,
		JobID:       job.ID,
		JobTitle:    job.Title,
		HouseholdID: job.HouseholdID,
		WorkerID:    deref(job.WorkerID),
		WorkerName:  deref(job.WorkerName),
	})
	return job, nil
}

// RescheduleJob updates the schedule of an assigned job. Status stays
// assigned; the pending-reschedule flag marks the change for the worker to
// acknowledge.
func (s *LifecycleService) RescheduleJob(ctx context.Context, id string, req *model.RescheduleRequest) (*model.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.jobs.Reschedule(ctx, core.RescheduleParams{
		JobID: id,
		Date:  req.Date,
		Time:  req.Time,
	})
	if err != nil {
		return nil, fmt.Errorf("reschedule job: %w", err)
	}
	if !ok {
		return nil, s.transitionConflict(ctx, id, "reschedule", model.JobStatusAssigned)
	}

	job.ScheduledDate = &req.Date
	job.ScheduledTime = &req.Time
	job.PendingReschedule = true
	s.publish(domainjob.Event{
		Type:        domainjob.EventRescheduled,
		JobID:       job.ID,
		JobTitle:    job.Title,
		HouseholdID: job.HouseholdID,
		WorkerID:    deref(job.WorkerID),
		WorkerName:  deref(job.WorkerName),
		NewDate:     req.Date,
		NewTime:     req.Time,
	})
	return job, nil
}

// DeleteJob removes a job permanently (admin hard delete, no undo).
func (s *LifecycleService) DeleteJob(ctx context.Context, id string) error {
	err := s.jobs.Delete(ctx, id)
	if errors.Is(err, data.ErrJobNotFound) {
		return apperrors.NotFoundf("job %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job deleted", "id", id)
	}
	return nil
}

// ApplyForJob records a worker's application to an open job. The application
// snapshots the worker's name, skills, and rating at application time.
func (s *LifecycleService) ApplyForJob(ctx context.Context, req *model.ApplyRequest) (*model.Application, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	worker, err := s.workers.GetByID(ctx, req.WorkerID)
	if errors.Is(err, data.ErrWorkerNotFound) {
		return nil, apperrors.NotFoundf("worker %s not found", req.WorkerID)
	}
	if err != nil {
		return nil, fmt.Errorf("get worker: %w", err)
	}
	if worker.Status != model.WorkerStatusActive {
		return nil, apperrors.Conflictf("worker %s is not active", req.WorkerID)
	}

	app := &model.Application{
		ID:          uuid.NewString(),
		JobID:       req.JobID,
		WorkerID:    worker.ID,
		WorkerName:  worker.FullName,
		Skills:      worker.Skills,
		Rating:      worker.Rating,
		CoverLetter: req.CoverLetter,
		Status:      model.ApplicationStatusPending,
		AppliedAt:   s.now(),
	}

	err = s.jobs.AddApplication(ctx, app)
	switch {
	case errors.Is(err, data.ErrJobNotFound):
		return nil, apperrors.NotFoundf("job %s not found", req.JobID)
	case errors.Is(err, data.ErrJobNotOpen):
		return nil, apperrors.Conflict("job is not open for applications")
	case err != nil:
		return nil, fmt.Errorf("add application: %w", err)
	}
	return app, nil
}

// ListApplications returns the applications for a job.
func (s *LifecycleService) ListApplications(ctx context.Context, jobID string) ([]*model.Application, error) {
	apps, err := s.jobs.ListApplications(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// transitionConflict turns a failed guard into the error the caller should
// see: not-found when the job vanished, otherwise a conflict naming the
// current status.
func (s *LifecycleService) transitionConflict(ctx context.Context, id, verb string, expected model.JobStatus) error {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.DebugContext(ctx, "transition guard failed",
			"id", id,
			"verb", verb,
			"expected_status", expected,
			"actual_status", job.Status,
		)
	}
	return apperrors.Conflictf("cannot %s job in status %s", verb, job.Status)
}

func (s *LifecycleService) publish(event domainjob.Event) {
	event.OccurredAt = s.now()
	s.events.Publish(event)
}

func (s *LifecycleService) now() time.Time {
	return s.clock.Now().UTC()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
