package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data"
	"github.com/hausmate/hausmate-core/internal/domain/payroll"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

// BillingOptions groups dependencies for BillingService.
type BillingOptions struct {
	Jobs   core.JobRepository   // Required: job record store
	Rates  *core.RateTableCache // Required: current deduction/fee rates
	Logger *slog.Logger         // Optional: structured logger
}

// BillingService answers money questions about a job. Breakdowns are always
// recomputed from the job's canonical gross amount and the current rate
// table; nothing here is stored, so a rate change is reflected on the next
// call without data migration.
type BillingService struct {
	jobs   core.JobRepository
	rates  *core.RateTableCache
	logger *slog.Logger
}

// NewBillingService constructs a new BillingService.
func NewBillingService(opts BillingOptions) (*BillingService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Rates == nil {
		return nil, errors.New("RateTableCache is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "billing_service")
	}

	return &BillingService{
		jobs:   opts.Jobs,
		rates:  opts.Rates,
		logger: logger,
	}, nil
}

// MustNewBillingService constructs a new BillingService and panics on error.
func MustNewBillingService(opts BillingOptions) *BillingService {
	svc, err := NewBillingService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create BillingService: %v", err))
	}
	return svc
}

// WorkerEarnings returns the worker's payout breakdown for a job.
func (s *BillingService) WorkerEarnings(ctx context.Context, jobID string) (*payroll.WorkerPayout, error) {
	gross, err := s.jobGross(ctx, jobID)
	if err != nil {
		return nil, err
	}
	rates, err := s.rates.Get(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "load rate table")
	}
	payout, err := payroll.WorkerBreakdown(gross, rates)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	return &payout, nil
}

// HouseholdBill returns the household's bill breakdown for a job.
func (s *BillingService) HouseholdBill(ctx context.Context, jobID string) (*payroll.HouseholdBill, error) {
	gross, err := s.jobGross(ctx, jobID)
	if err != nil {
		return nil, err
	}
	rates, err := s.rates.Get(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "load rate table")
	}
	bill, err := payroll.BillBreakdown(gross, rates)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	return &bill, nil
}

func (s *BillingService) jobGross(ctx context.Context, jobID string) (int64, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if errors.Is(err, data.ErrJobNotFound) {
		return 0, apperrors.NotFoundf("job %s not found", jobID)
	}
	if err != nil {
		return 0, fmt.Errorf("get job: %w", err)
	}
	return job.GrossAmount, nil
}
