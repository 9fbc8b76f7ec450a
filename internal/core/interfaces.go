// Package core defines the ports between the service layer and the external
// collaborators (job record store, worker directory, scoring service, cache).
// Services depend on these interfaces, never on concrete implementations.
package core

import (
	"context"
	"time"

	"github.com/hausmate/hausmate-core/internal/domain/model"
)

// JobRepository is the Job Record Store port.
//
// The transition methods are conditional writes: each one is guarded by the
// expected prior status and reports false when the guard no longer holds.
// That compare-and-swap shape is what makes at-most-one-assignment-per-job
// enforceable; callers must never fall back to read-then-write.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	Stats(ctx context.Context) (*model.JobStats, error)

	// Approve transitions pending → open.
	Approve(ctx context.Context, id string) (bool, error)
	// Assign transitions open → assigned, writing worker id and name together.
	Assign(ctx context.Context, params AssignParams) (bool, error)
	// Complete transitions assigned → completed and stamps completedAt.
	Complete(ctx context.Context, id string, completedAt time.Time) (bool, error)
	// Cancel transitions any non-terminal status → cancelled and stamps cancelledAt.
	Cancel(ctx context.Context, id string, cancelledAt time.Time) (bool, error)
	// Reschedule updates schedule fields of an assigned job and raises the
	// pending-reschedule flag; status stays assigned.
	Reschedule(ctx context.Context, params RescheduleParams) (bool, error)

	// Delete removes the job unconditionally (admin hard delete, no undo).
	Delete(ctx context.Context, id string) error

	// AddApplication appends a worker's application to a job. A duplicate
	// (job, worker) pair fails with a Conflict error.
	AddApplication(ctx context.Context, app *model.Application) error
	ListApplications(ctx context.Context, jobID string) ([]*model.Application, error)
}

// AssignParams groups parameters for JobRepository.Assign.
type AssignParams struct {
	JobID      string
	WorkerID   string
	WorkerName string
}

// RescheduleParams groups parameters for JobRepository.Reschedule.
type RescheduleParams struct {
	JobID string
	Date  string
	Time  string
}

// WorkerRepository is the Worker Directory port.
type WorkerRepository interface {
	Create(ctx context.Context, req *model.CreateWorkerRequest) (*model.Worker, error)
	GetByID(ctx context.Context, id string) (*model.Worker, error)
	List(ctx context.Context, opts model.WorkerListOptions) ([]*model.Worker, error)

	// FindEligible returns active workers whose skill set covers the service type.
	FindEligible(ctx context.Context, serviceType model.ServiceType) ([]*model.Worker, error)

	// Approve transitions pending → active.
	Approve(ctx context.Context, id string) (bool, error)
	// Suspend transitions active → suspended.
	Suspend(ctx context.Context, id string) (bool, error)
	// Reinstate transitions suspended → active.
	Reinstate(ctx context.Context, id string) (bool, error)

	// Delete removes the profile (admin hard delete).
	Delete(ctx context.Context, id string) error
}

// ScoringService ranks a candidate pool against a job. Implementations call
// an external (typically AI-backed) system and may fail or time out; those
// failures surface as Upstream errors.
type ScoringService interface {
	Rank(ctx context.Context, job *model.Job, pool []*model.Worker) ([]model.MatchResult, error)
}

// CacheRepository is the cache port backing candidate memoization and the
// rate-table cache.
type CacheRepository interface {
	// Set stores a value with the given TTL. A TTL of 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns nil if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Returns true if the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	// SetIfNotExists atomically sets a key only when absent.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Health checks the cache connection.
	Health(ctx context.Context) error
}

// Clock abstracts time for components that need an injectable source.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements the Clock interface.
func (f ClockFunc) Now() time.Time {
	return f()
}
