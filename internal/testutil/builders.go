// Package testutil provides testing utilities and helpers for the hausmate core.
package testutil

import (
	"time"

	"github.com/hausmate/hausmate-core/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			Title:       "Weekly cleaning",
			ServiceType: model.ServiceTypeCleaning,
			HouseholdID: "household-1",
			GrossAmount: 25000,
			Currency:    "NGN",
			Frequency:   "weekly",
			Location:    "Lekki, Lagos",
		},
	}
}

// WithTitle sets the job title.
func (b *JobRequestBuilder) WithTitle(title string) *JobRequestBuilder {
	b.req.Title = title
	return b
}

// WithServiceType sets the service type.
func (b *JobRequestBuilder) WithServiceType(t model.ServiceType) *JobRequestBuilder {
	b.req.ServiceType = t
	return b
}

// WithHouseholdID sets the posting household.
func (b *JobRequestBuilder) WithHouseholdID(id string) *JobRequestBuilder {
	b.req.HouseholdID = id
	return b
}

// WithGrossAmount sets the gross amount in minor currency units.
func (b *JobRequestBuilder) WithGrossAmount(amount int64) *JobRequestBuilder {
	b.req.GrossAmount = amount
	return b
}

// WithPackageID sets the package reference.
func (b *JobRequestBuilder) WithPackageID(id string) *JobRequestBuilder {
	b.req.PackageID = &id
	return b
}

// Build returns the constructed CreateJobRequest.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	return b.req
}

// JobBuilder provides a fluent interface for building Job objects for testing.
type JobBuilder struct {
	job *model.Job
}

// NewJob creates a new JobBuilder with sensible defaults: an open cleaning
// job with no worker.
func NewJob() *JobBuilder {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return &JobBuilder{
		job: &model.Job{
			ID:          "job-1",
			Title:       "Weekly cleaning",
			ServiceType: model.ServiceTypeCleaning,
			HouseholdID: "household-1",
			GrossAmount: 25000,
			Currency:    "NGN",
			Frequency:   "weekly",
			Location:    "Lekki, Lagos",
			Status:      model.JobStatusOpen,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// WithID sets the job id.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithStatus sets the lifecycle status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// WithServiceType sets the service type.
func (b *JobBuilder) WithServiceType(t model.ServiceType) *JobBuilder {
	b.job.ServiceType = t
	return b
}

// WithGrossAmount sets the gross amount.
func (b *JobBuilder) WithGrossAmount(amount int64) *JobBuilder {
	b.job.GrossAmount = amount
	return b
}

// WithWorker sets the assigned worker reference.
func (b *JobBuilder) WithWorker(id, name string) *JobBuilder {
	b.job.WorkerID = &id
	b.job.WorkerName = &name
	return b
}

// Build returns the constructed Job.
func (b *JobBuilder) Build() *model.Job {
	return b.job
}

// WorkerBuilder provides a fluent interface for building Worker objects for testing.
type WorkerBuilder struct {
	worker *model.Worker
}

// NewWorker creates a new WorkerBuilder with sensible defaults: an active
// cleaner with a solid rating.
func NewWorker() *WorkerBuilder {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return &WorkerBuilder{
		worker: &model.Worker{
			ID:          "worker-1",
			FullName:    "Ada Obi",
			Phone:       "+2348012345678",
			Status:      model.WorkerStatusActive,
			Skills:      []model.ServiceType{model.ServiceTypeCleaning},
			Rating:      4.6,
			ReviewCount: 12,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// WithID sets the worker id.
func (b *WorkerBuilder) WithID(id string) *WorkerBuilder {
	b.worker.ID = id
	return b
}

// WithName sets the full name.
func (b *WorkerBuilder) WithName(name string) *WorkerBuilder {
	b.worker.FullName = name
	return b
}

// WithStatus sets the worker status.
func (b *WorkerBuilder) WithStatus(status model.WorkerStatus) *WorkerBuilder {
	b.worker.Status = status
	return b
}

// WithSkills sets the skill list.
func (b *WorkerBuilder) WithSkills(skills ...model.ServiceType) *WorkerBuilder {
	b.worker.Skills = skills
	return b
}

// WithRating sets the rating.
func (b *WorkerBuilder) WithRating(rating float64) *WorkerBuilder {
	b.worker.Rating = rating
	return b
}

// Build returns the constructed Worker.
func (b *WorkerBuilder) Build() *model.Worker {
	return b.worker
}
