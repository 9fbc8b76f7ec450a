package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
	}{
		{NotFound("gone"), ErrCodeNotFound},
		{Conflict("taken"), ErrCodeConflict},
		{Validation("bad"), ErrCodeValidation},
		{Upstream("down"), ErrCodeUpstream},
		{ForeignKey("in use"), ErrCodeForeignKey},
		{Internal("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
	}
}

func TestPredicatesMatchThroughWrapping(t *testing.T) {
	base := Conflict("job was just taken")
	wrapped := fmt.Errorf("assign worker: %w", base)

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, ErrCodeConflict, GetCode(wrapped))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeUpstream, "scoring service failed")

	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "scoring service failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidationFieldIsRecoverable(t *testing.T) {
	err := ValidationField("title", "title is required")
	assert.Equal(t, "title", GetField(err))
	assert.True(t, IsValidation(err))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(Conflict("status moved")), "refresh")
	assert.NotEmpty(t, UserMessage(Upstream("scorer down")))
	assert.NotEmpty(t, UserMessage(errors.New("opaque")))
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(fmt.Errorf("get job: %w", pgx.ErrNoRows))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMapDBError_ContextErrors(t *testing.T) {
	assert.True(t, IsTimeout(MapDBError(context.DeadlineExceeded)))
	assert.True(t, IsCanceled(MapDBError(context.Canceled)))
}

func TestMapDBError_DuplicateApplication(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "applications_job_worker",
		Detail:         "Key (job_id, worker_id)=(j1, w1) already exists.",
	}
	err := MapDBError(pgErr)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "already applied")
	assert.Equal(t, "job_id, worker_id", GetField(err))
}

func TestMapDBError_ForeignKeyNamesDomain(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:      pgerrcode.ForeignKeyViolation,
		TableName: "workers",
	}
	err := MapDBError(pgErr)
	require.Error(t, err)
	assert.True(t, IsForeignKey(err))
	assert.Contains(t, err.Error(), "Worker")
}

func TestMapDBError_PassesThroughUnknown(t *testing.T) {
	opaque := errors.New("some driver hiccup")
	assert.Equal(t, opaque, MapDBError(opaque))
	assert.NoError(t, MapDBError(nil))
}
