package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
)

const defaultCandidateTTL = 2 * time.Minute

// MatchingOptions groups dependencies for MatchingService.
type MatchingOptions struct {
	Jobs      core.JobRepository    // Required: job record store
	Workers   core.WorkerRepository // Required: worker directory
	Scorer    core.ScoringService   // Required: external candidate scorer
	Lifecycle *LifecycleService     // Required: assignment goes through the lifecycle engine
	Cache     core.CacheRepository  // Optional: candidate memoization
	CacheTTL  time.Duration         // Optional: memoization TTL
	Logger    *slog.Logger          // Optional: structured logger
}

// MatchingService suggests ranked candidates for open jobs and commits the
// chosen one.
//
// FindCandidates is read-only and repeatable: calling it twice changes
// nothing and returns equivalently ordered results. CommitAssignment is the
// only write path, and it delegates to the lifecycle engine so the
// status-guarded store update stays the single arbiter under concurrency.
type MatchingService struct {
	jobs      core.JobRepository
	workers   core.WorkerRepository
	scorer    core.ScoringService
	lifecycle *LifecycleService
	cache     core.CacheRepository
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewMatchingService constructs a new MatchingService.
func NewMatchingService(opts MatchingOptions) (*MatchingService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Workers == nil {
		return nil, errors.New("WorkerRepository is required")
	}
	if opts.Scorer == nil {
		return nil, errors.New("ScoringService is required")
	}
	if opts.Lifecycle == nil {
		return nil, errors.New("LifecycleService is required")
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCandidateTTL
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "matching_service")
	}

	return &MatchingService{
		jobs:      opts.Jobs,
		workers:   opts.Workers,
		scorer:    opts.Scorer,
		lifecycle: opts.Lifecycle,
		cache:     opts.Cache,
		cacheTTL:  ttl,
		logger:    logger,
	}, nil
}

// MustNewMatchingService constructs a new MatchingService and panics on error.
func MustNewMatchingService(opts MatchingOptions) *MatchingService {
	svc, err := NewMatchingService(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create MatchingService: %v", err))
	}
	return svc
}

// FindCandidates returns ranked candidate suggestions for an open job.
//
// An empty eligible pool yields an empty list and no scorer call. A scorer
// failure or timeout yields an empty list and an Upstream error; no state
// changes either way.
func (s *MatchingService) FindCandidates(ctx context.Context, jobID string) ([]model.MatchResult, error) {
	// the job fetch and the memo lookup are independent; run them together
	var (
		job    *model.Job
		cached []model.MatchResult
		hit    bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		j, err := s.jobs.GetByID(gctx, jobID)
		if errors.Is(err, data.ErrJobNotFound) {
			return apperrors.NotFoundf("job %s not found", jobID)
		}
		if err != nil {
			return fmt.Errorf("get job: %w", err)
		}
		job = j
		return nil
	})
	g.Go(func() error {
		cached, hit = s.cachedCandidates(gctx, jobID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusOpen {
		return nil, apperrors.Conflictf("cannot match job in status %s", job.Status)
	}
	if hit {
		return cached, nil
	}

	pool, err := s.workers.FindEligible(ctx, job.ServiceType)
	if err != nil {
		return nil, fmt.Errorf("find eligible workers: %w", err)
	}
	if len(pool) == 0 {
		return []model.MatchResult{}, nil
	}

	results, err := s.scorer.Rank(ctx, job, pool)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "scoring failed",
				"job_id", jobID,
				"pool_size", len(pool),
				"error", err,
			)
		}
		if apperrors.IsUpstream(err) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "scoring service failed")
	}

	sortCandidates(results)
	s.memoizeCandidates(ctx, jobID, results)
	return results, nil
}

// CommitAssignment assigns the chosen candidate through the lifecycle engine
// and drops the job's memoized candidate list.
func (s *MatchingService) CommitAssignment(ctx context.Context, jobID, workerID string) (*model.Job, error) {
	job, err := s.lifecycle.AssignWorker(ctx, jobID, workerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if _, cerr := s.cache.Delete(ctx, candidateKey(jobID)); cerr != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "candidate cache invalidation failed",
				"job_id", jobID,
				"error", cerr,
			)
		}
	}
	return job, nil
}

// sortCandidates orders by descending score; equal scores break by ascending
// worker id so repeated calls agree on the order.
func sortCandidates(results []model.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].WorkerID < results[j].WorkerID
	})
}

func candidateKey(jobID string) string {
	return "match:candidates:" + jobID
}

func (s *MatchingService) cachedCandidates(ctx context.Context, jobID string) ([]model.MatchResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, candidateKey(jobID))
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "candidate cache read failed", "job_id", jobID, "error", err)
		}
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var results []model.MatchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (s *MatchingService) memoizeCandidates(ctx context.Context, jobID string, results []model.MatchResult) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, candidateKey(jobID), raw, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "candidate cache write failed", "job_id", jobID, "error", err)
	}
}
