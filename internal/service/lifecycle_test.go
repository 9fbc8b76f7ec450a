package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hausmate/hausmate-core/internal/core"
	"github.com/hausmate/hausmate-core/internal/data"
	domainjob "github.com/hausmate/hausmate-core/internal/domain/job"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	"github.com/hausmate/hausmate-core/internal/domain/payroll"
	apperrors "github.com/hausmate/hausmate-core/internal/errors"
	"github.com/hausmate/hausmate-core/internal/mocks"
	"github.com/hausmate/hausmate-core/internal/testutil"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []domainjob.Event
}

func (r *eventRecorder) Publish(event domainjob.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []domainjob.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domainjob.Event(nil), r.events...)
}

func newLifecycleForTest(t *testing.T, jobs core.JobRepository, workers core.WorkerRepository) (*LifecycleService, *eventRecorder) {
	t.Helper()
	rec := &eventRecorder{}
	svc, err := NewLifecycleService(LifecycleOptions{
		Jobs:    jobs,
		Workers: workers,
		Events:  rec,
		Rates: core.NewRateTableCache(core.RateTableCacheOptions{
			Source: core.StaticRateSource(payroll.DefaultRateTable()),
		}),
		Clock: core.ClockFunc(func() time.Time { return time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC) }),
	})
	require.NoError(t, err)
	return svc, rec
}

func TestLifecycleCreateJob_RejectsInvalidBeforeStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no expectations: the store must not be touched
	jobs := mocks.NewMockJobRepository(ctrl)
	workers := mocks.NewMockWorkerRepository(ctrl)
	svc, _ := newLifecycleForTest(t, jobs, workers)

	req := testutil.NewJobRequest().WithTitle("").Build()
	_, err := svc.CreateJob(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestLifecycleApproveJob_PublishesEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().WithStatus(model.JobStatusPending).Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	jobs.EXPECT().Approve(gomock.Any(), job.ID).Return(true, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	approved, err := svc.ApproveJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusOpen, approved.Status)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domainjob.EventApproved, events[0].Type)
	assert.Equal(t, job.HouseholdID, events[0].HouseholdID)
}

func TestLifecycleApproveJob_GuardFailureIsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().WithStatus(model.JobStatusOpen).Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil).Times(2)
	jobs.EXPECT().Approve(gomock.Any(), job.ID).Return(false, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	_, err := svc.ApproveJob(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, rec.all(), "no event for a transition that did not commit")
}

func TestLifecycleApproveJob_MissingJobIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, data.ErrJobNotFound)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc, _ := newLifecycleForTest(t, jobs, workers)
	_, err := svc.ApproveJob(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLifecycleAssignWorker_Succeeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().Build()
	worker := testutil.NewWorker().Build()

	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	jobs.EXPECT().Assign(gomock.Any(), core.AssignParams{
		JobID:      job.ID,
		WorkerID:   worker.ID,
		WorkerName: worker.FullName,
	}).Return(true, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	assigned, err := svc.AssignWorker(context.Background(), job.ID, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.WorkerID)
	assert.Equal(t, worker.ID, *assigned.WorkerID)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domainjob.EventAssigned, events[0].Type)
	assert.Equal(t, worker.ID, events[0].WorkerID)
	assert.Equal(t, worker.FullName, events[0].WorkerName)
}

func TestLifecycleAssignWorker_RejectsEmptyIDsBeforeStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no expectations: neither directory nor store may be touched
	jobs := mocks.NewMockJobRepository(ctrl)
	workers := mocks.NewMockWorkerRepository(ctrl)
	svc, rec := newLifecycleForTest(t, jobs, workers)

	_, err := svc.AssignWorker(context.Background(), "job-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "worker_id", apperrors.GetField(err))

	_, err = svc.AssignWorker(context.Background(), "  ", "worker-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "job_id", apperrors.GetField(err))

	assert.Empty(t, rec.all())
}

func TestLifecycleAssignWorker_SuspendedWorkerIsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	worker := testutil.NewWorker().WithStatus(model.WorkerStatusSuspended).Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	_, err := svc.AssignWorker(context.Background(), "job-1", worker.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, rec.all())
}

func TestLifecycleAssignWorker_LostRaceIsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	open := testutil.NewJob().Build()
	taken := testutil.NewJob().WithStatus(model.JobStatusAssigned).WithWorker("worker-2", "Bola Ade").Build()
	worker := testutil.NewWorker().Build()

	jobs := mocks.NewMockJobRepository(ctrl)
	gomock.InOrder(
		jobs.EXPECT().GetByID(gomock.Any(), open.ID).Return(open, nil),
		jobs.EXPECT().Assign(gomock.Any(), gomock.Any()).Return(false, nil),
		jobs.EXPECT().GetByID(gomock.Any(), open.ID).Return(taken, nil),
	)
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	_, err := svc.AssignWorker(context.Background(), open.ID, worker.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), "assigned")
	assert.Empty(t, rec.all())
}

func TestLifecycleCompleteJob_PublishesEventWithWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().WithStatus(model.JobStatusAssigned).WithWorker("worker-1", "Ada Obi").Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	jobs.EXPECT().Complete(gomock.Any(), job.ID, gomock.Any()).Return(true, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	completed, err := svc.CompleteJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, completed.Job.Status)
	require.NotNil(t, completed.Job.CompletedAt)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domainjob.EventCompleted, events[0].Type)
	assert.Equal(t, "worker-1", events[0].WorkerID)
}

func TestLifecycleCompleteJob_AttachesEarningsBreakdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().WithStatus(model.JobStatusAssigned).
		WithWorker("worker-1", "Ada Obi").WithGrossAmount(25000).Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	jobs.EXPECT().Complete(gomock.Any(), job.ID, gomock.Any()).Return(true, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc, _ := newLifecycleForTest(t, jobs, workers)
	completed, err := svc.CompleteJob(context.Background(), job.ID)
	require.NoError(t, err)

	// the breakdown rides along with the result; nothing derived is stored
	require.NotNil(t, completed.Earnings)
	assert.Equal(t, int64(25000), completed.Earnings.Gross)
	assert.Equal(t, int64(18750), completed.Earnings.Net)
	assert.Equal(t, completed.Earnings.Gross,
		completed.Earnings.Net+completed.Earnings.TotalDeductions())
}

func TestLifecycleCompleteJob_NoRateSourceLeavesEarningsNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().WithStatus(model.JobStatusAssigned).WithWorker("worker-1", "Ada Obi").Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	jobs.EXPECT().Complete(gomock.Any(), job.ID, gomock.Any()).Return(true, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc := MustNewLifecycleService(LifecycleOptions{Jobs: jobs, Workers: workers})
	completed, err := svc.CompleteJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, completed.Job.Status)
	assert.Nil(t, completed.Earnings)
}

func TestLifecycleCancelJob_TerminalStatusIsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().WithStatus(model.JobStatusCompleted).Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil).Times(2)
	jobs.EXPECT().Cancel(gomock.Any(), job.ID, gomock.Any()).Return(false, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	_, err := svc.CancelJob(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), "completed")
	assert.Empty(t, rec.all())
}

func TestLifecycleRescheduleJob_SetsPendingFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	job := testutil.NewJob().WithStatus(model.JobStatusAssigned).WithWorker("worker-1", "Ada Obi").Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	jobs.EXPECT().Reschedule(gomock.Any(), core.RescheduleParams{
		JobID: job.ID,
		Date:  "2025-06-10",
		Time:  "09:00",
	}).Return(true, nil)
	workers := mocks.NewMockWorkerRepository(ctrl)

	svc, rec := newLifecycleForTest(t, jobs, workers)
	updated, err := svc.RescheduleJob(context.Background(), job.ID, &model.RescheduleRequest{
		Date: "2025-06-10",
		Time: "09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusAssigned, updated.Status, "reschedule keeps the job assigned")
	assert.True(t, updated.PendingReschedule)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, domainjob.EventRescheduled, events[0].Type)
	assert.Equal(t, "2025-06-10", events[0].NewDate)
}

func TestLifecycleApplyForJob_SnapshotsWorker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	worker := testutil.NewWorker().WithRating(4.9).Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().AddApplication(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, app *model.Application) error {
			assert.Equal(t, worker.FullName, app.WorkerName)
			assert.Equal(t, worker.Skills, app.Skills)
			assert.InDelta(t, 4.9, app.Rating, 1e-9)
			assert.Equal(t, model.ApplicationStatusPending, app.Status)
			return nil
		})
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)

	svc, _ := newLifecycleForTest(t, jobs, workers)
	app, err := svc.ApplyForJob(context.Background(), &model.ApplyRequest{
		JobID:    "job-1",
		WorkerID: worker.ID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, app.ID)
}

func TestLifecycleApplyForJob_DuplicateIsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	worker := testutil.NewWorker().Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().AddApplication(gomock.Any(), gomock.Any()).
		Return(apperrors.Conflict("You have already applied for this job."))
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)

	svc, _ := newLifecycleForTest(t, jobs, workers)
	_, err := svc.ApplyForJob(context.Background(), &model.ApplyRequest{
		JobID:    "job-1",
		WorkerID: worker.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestLifecycleApplyForJob_ClosedJobIsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	worker := testutil.NewWorker().Build()
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().AddApplication(gomock.Any(), gomock.Any()).Return(data.ErrJobNotOpen)
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().GetByID(gomock.Any(), worker.ID).Return(worker, nil)

	svc, _ := newLifecycleForTest(t, jobs, workers)
	_, err := svc.ApplyForJob(context.Background(), &model.ApplyRequest{
		JobID:    "job-1",
		WorkerID: worker.ID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

// raceJobRepo is an in-memory JobRepository with the same conditional-write
// semantics as the store. Only the methods the race test needs do real work.
type raceJobRepo struct {
	mocks.MockJobRepository // panics if an unstubbed method is hit

	mu  sync.Mutex
	job *model.Job
}

func (r *raceJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil || r.job.ID != id {
		return nil, data.ErrJobNotFound
	}
	clone := *r.job
	return &clone, nil
}

func (r *raceJobRepo) Assign(_ context.Context, params core.AssignParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil || r.job.ID != params.JobID {
		return false, nil
	}
	if r.job.Status != model.JobStatusOpen || r.job.WorkerID != nil {
		return false, nil
	}
	r.job.Status = model.JobStatusAssigned
	r.job.WorkerID = &params.WorkerID
	r.job.WorkerName = &params.WorkerName
	return true, nil
}

func TestLifecycleAssignWorker_ConcurrentCommitsHaveOneWinner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := &raceJobRepo{job: testutil.NewJob().Build()}
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().GetByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id string) (*model.Worker, error) {
			return testutil.NewWorker().WithID(id).WithName("Worker " + id).Build(), nil
		}).AnyTimes()

	svc, rec := newLifecycleForTest(t, repo, workers)

	const contenders = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.AssignWorker(context.Background(), "job-1", string(rune('a'+n)))
			if err == nil {
				successes.Add(1)
			} else if !apperrors.IsConflict(err) {
				t.Errorf("loser must see a conflict, got %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load(), "exactly one commit wins")
	assert.Len(t, rec.all(), 1, "exactly one assigned event")
}
