package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hausmate/hausmate-core/internal/data"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
	"github.com/hausmate/hausmate-core/internal/mocks"
	"github.com/hausmate/hausmate-core/internal/testutil"
)

type matchingFixture struct {
	jobs    *mocks.MockJobRepository
	workers *mocks.MockWorkerRepository
	scorer  *mocks.MockScoringService
	cache   *mocks.MockCacheRepository
	svc     *MatchingService
}

func newMatchingFixture(t *testing.T, withCache bool) *matchingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &matchingFixture{
		jobs:    mocks.NewMockJobRepository(ctrl),
		workers: mocks.NewMockWorkerRepository(ctrl),
		scorer:  mocks.NewMockScoringService(ctrl),
	}
	opts := MatchingOptions{
		Jobs:    f.jobs,
		Workers: f.workers,
		Scorer:  f.scorer,
		Lifecycle: MustNewLifecycleService(LifecycleOptions{
			Jobs:    f.jobs,
			Workers: f.workers,
		}),
	}
	if withCache {
		f.cache = mocks.NewMockCacheRepository(ctrl)
		opts.Cache = f.cache
	}
	f.svc = MustNewMatchingService(opts)
	return f
}

func TestFindCandidates_RanksAndBreaksTiesByWorkerID(t *testing.T) {
	f := newMatchingFixture(t, false)
	job := testutil.NewJob().Build()
	pool := []*model.Worker{
		testutil.NewWorker().WithID("w-a").Build(),
		testutil.NewWorker().WithID("w-b").Build(),
		testutil.NewWorker().WithID("w-c").Build(),
	}

	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.workers.EXPECT().FindEligible(gomock.Any(), job.ServiceType).Return(pool, nil)
	f.scorer.EXPECT().Rank(gomock.Any(), job, pool).Return([]model.MatchResult{
		{WorkerID: "w-c", Score: 0.8},
		{WorkerID: "w-a", Score: 0.8},
		{WorkerID: "w-b", Score: 0.9},
	}, nil)

	results, err := f.svc.FindCandidates(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "w-b", results[0].WorkerID)
	// equal scores resolve by ascending worker id
	assert.Equal(t, "w-a", results[1].WorkerID)
	assert.Equal(t, "w-c", results[2].WorkerID)
}

func TestFindCandidates_IsRepeatable(t *testing.T) {
	f := newMatchingFixture(t, false)
	job := testutil.NewJob().Build()
	pool := []*model.Worker{testutil.NewWorker().WithID("w-a").Build()}
	ranking := []model.MatchResult{{WorkerID: "w-a", Score: 0.7}}

	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil).Times(2)
	f.workers.EXPECT().FindEligible(gomock.Any(), job.ServiceType).Return(pool, nil).Times(2)
	f.scorer.EXPECT().Rank(gomock.Any(), job, pool).Return(ranking, nil).Times(2)

	first, err := f.svc.FindCandidates(context.Background(), job.ID)
	require.NoError(t, err)
	second, err := f.svc.FindCandidates(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFindCandidates_NonOpenJobIsConflict(t *testing.T) {
	f := newMatchingFixture(t, false)
	job := testutil.NewJob().WithStatus(model.JobStatusAssigned).Build()

	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	_, err := f.svc.FindCandidates(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestFindCandidates_MissingJobIsNotFound(t *testing.T) {
	f := newMatchingFixture(t, false)
	f.jobs.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, data.ErrJobNotFound)

	_, err := f.svc.FindCandidates(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindCandidates_EmptyPoolSkipsScorer(t *testing.T) {
	f := newMatchingFixture(t, false)
	job := testutil.NewJob().Build()

	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.workers.EXPECT().FindEligible(gomock.Any(), job.ServiceType).Return(nil, nil)
	// no scorer expectation: it must not be called

	results, err := f.svc.FindCandidates(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindCandidates_ScorerFailureIsUpstream(t *testing.T) {
	f := newMatchingFixture(t, false)
	job := testutil.NewJob().Build()
	pool := []*model.Worker{testutil.NewWorker().Build()}

	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.workers.EXPECT().FindEligible(gomock.Any(), job.ServiceType).Return(pool, nil)
	f.scorer.EXPECT().Rank(gomock.Any(), job, pool).
		Return(nil, apperrors.Upstream("scoring service timed out"))

	results, err := f.svc.FindCandidates(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.Empty(t, results)
}

func TestFindCandidates_ServesMemoizedResults(t *testing.T) {
	f := newMatchingFixture(t, true)
	job := testutil.NewJob().Build()
	cached := []model.MatchResult{{WorkerID: "w-a", WorkerName: "Ada Obi", Score: 0.7}}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)

	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.cache.EXPECT().Get(gomock.Any(), "match:candidates:"+job.ID).Return(raw, nil)
	// no pool fetch, no scorer call

	results, ferr := f.svc.FindCandidates(context.Background(), job.ID)
	require.NoError(t, ferr)
	assert.Equal(t, cached, results)
}

func TestFindCandidates_CacheMissFallsThroughAndMemoizes(t *testing.T) {
	f := newMatchingFixture(t, true)
	job := testutil.NewJob().Build()
	pool := []*model.Worker{testutil.NewWorker().WithID("w-a").Build()}

	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.cache.EXPECT().Get(gomock.Any(), "match:candidates:"+job.ID).Return(nil, nil)
	f.workers.EXPECT().FindEligible(gomock.Any(), job.ServiceType).Return(pool, nil)
	f.scorer.EXPECT().Rank(gomock.Any(), job, pool).
		Return([]model.MatchResult{{WorkerID: "w-a", Score: 0.7}}, nil)
	f.cache.EXPECT().Set(gomock.Any(), "match:candidates:"+job.ID, gomock.Any(), defaultCandidateTTL).Return(nil)

	results, err := f.svc.FindCandidates(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestCommitAssignment_InvalidatesMemo(t *testing.T) {
	f := newMatchingFixture(t, true)
	job := testutil.NewJob().Build()
	worker := testutil.NewWorker().Build()

	f.workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)
	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.jobs.EXPECT().Assign(gomock.Any(), gomock.Any()).Return(true, nil)
	f.cache.EXPECT().Delete(gomock.Any(), "match:candidates:"+job.ID).Return(true, nil)

	assigned, err := f.svc.CommitAssignment(context.Background(), job.ID, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusAssigned, assigned.Status)
}

func TestCommitAssignment_LifecycleConflictPropagates(t *testing.T) {
	f := newMatchingFixture(t, true)
	job := testutil.NewJob().WithStatus(model.JobStatusAssigned).WithWorker("w-z", "Zed").Build()
	worker := testutil.NewWorker().Build()

	f.workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)
	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil).Times(2)
	f.jobs.EXPECT().Assign(gomock.Any(), gomock.Any()).Return(false, nil)
	// no cache invalidation when nothing committed

	_, err := f.svc.CommitAssignment(context.Background(), job.ID, worker.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}
