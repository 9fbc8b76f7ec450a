package service

import (
	"context"
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

func TestWorkerRegister_RejectsMissingSkills(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workers := mocks.NewMockWorkerRepository(ctrl)
	svc := MustNewWorkerService(WorkerOptions{Workers: workers})

	_, err := svc.Register(context.Background(), &model.CreateWorkerRequest{
		FullName: "Ada Obi",
		Phone:    "+2348012345678",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestWorkerApprove_GuardFailureResolvesToConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	active := testutil.NewWorker().Build()
	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().Approve(gomock.Any(), active.ID).Return(false, nil)
	workers.EXPECT().GetByID(gomock.Any(), active.ID).Return(active, nil)

	svc := MustNewWorkerService(WorkerOptions{Workers: workers})
	err := svc.ApproveWorker(context.Background(), active.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Contains(t, err.Error(), "active")
}

func TestWorkerSuspendAndReinstate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().Suspend(gomock.Any(), "worker-1").Return(true, nil)
	workers.EXPECT().Reinstate(gomock.Any(), "worker-1").Return(true, nil)

	svc := MustNewWorkerService(WorkerOptions{Workers: workers})
	require.NoError(t, svc.SuspendWorker(context.Background(), "worker-1"))
	require.NoError(t, svc.ReinstateWorker(context.Background(), "worker-1"))
}

func TestWorkerDelete_MissingIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	workers := mocks.NewMockWorkerRepository(ctrl)
	workers.EXPECT().Delete(gomock.Any(), "missing").Return(data.ErrWorkerNotFound)

	svc := MustNewWorkerService(WorkerOptions{Workers: workers})
	err := svc.DeleteWorker(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
