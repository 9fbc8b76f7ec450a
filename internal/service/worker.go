package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

// WorkerOptions groups dependencies for WorkerService.
type WorkerOptions struct {
	Workers core.WorkerRepository // Required: worker directory
	Logger  *slog.Logger          // Optional: structured logger
}

// WorkerService manages worker profiles and their admin transitions. The
// transitions follow the same guarded-write discipline as the job lifecycle:
// a failed guard is resolved into not-found or conflict, never retried.
type WorkerService struct {
	workers core.WorkerRepository
	logger  *slog.Logger
}

// NewWorkerService constructs a new WorkerService.
func NewWorkerService(opts WorkerOptions) (*WorkerService, error) {
	if opts.Workers == nil {
		return nil, errors.New("WorkerRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "worker_service")
	}

	return &WorkerService{workers: opts.Workers, logger: logger}, nil
}

// MustNewWorkerService constructs a new WorkerService and panics on error.
func MustNewWorkerService(opts WorkerOptions) *WorkerService {
	svc, err := NewWorkerService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create WorkerService: %v", err))
	}
	return svc
}

// Register creates a worker profile in pending status.
func (s *WorkerService) Register(ctx context.Context, req *model.CreateWorkerRequest) (*model.Worker, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	worker, err := s.workers.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create worker: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "worker registered",
			"id", worker.ID,
			"skills", worker.Skills,
		)
	}
	return worker, nil
}

// GetWorker fetches a worker profile by id.
func (s *WorkerService) GetWorker(ctx context.Context, id string) (*model.Worker, error) {
	worker, err := s.workers.GetByID(ctx, id)
	if errors.Is(err, data.ErrWorkerNotFound) {
		return nil, apperrors.NotFoundf("worker %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get worker: %w", err)
	}
	return worker, nil
}

// ListWorkers returns workers matching the given filters.
func (s *WorkerService) ListWorkers(ctx context.Context, opts model.WorkerListOptions) ([]*model.Worker, error) {
	workers, err := s.workers.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return workers, nil
}

// ApproveWorker transitions pending → active.
func (s *WorkerService) ApproveWorker(ctx context.Context, id string) error {
	return s.transition(ctx, id, "approve", s.workers.Approve)
}

// SuspendWorker transitions active → suspended.
func (s *WorkerService) SuspendWorker(ctx context.Context, id string) error {
	return s.transition(ctx, id, "suspend", s.workers.Suspend)
}

// ReinstateWorker transitions suspended → active.
func (s *WorkerService) ReinstateWorker(ctx context.Context, id string) error {
	return s.transition(ctx, id, "reinstate", s.workers.Reinstate)
}

// DeleteWorker removes a worker profile permanently.
func (s *WorkerService) DeleteWorker(ctx context.Context, id string) error {
	err := s.workers.Delete(ctx, id)
	if errors.Is(err, data.ErrWorkerNotFound) {
		return apperrors.NotFoundf("worker %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("delete worker: %w", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "worker deleted", "id", id)
	}
	return nil
}

func (s *WorkerService) transition(
	ctx context.Context,
	id, verb string,
	op func(context.Context, string) (bool, error),
) error {
	ok, err := op(ctx, id)
	if err != nil {
		return fmt.Errorf("%s worker: %w", verb, err)
	}
	if ok {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "worker status changed", "id", id, "verb", verb)
		}
		return nil
	}

	worker, err := s.GetWorker(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.Conflictf("cannot %s worker in status %s", verb, worker.Status)
}
