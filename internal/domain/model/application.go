package model

import (
	"errors"
	"strings"
	"time"
)

// ApplicationStatus represents the state of a worker's application to a job.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Valid returns true if the ApplicationStatus is one of the known states.
func (s ApplicationStatus) Valid() bool {
	return s == ApplicationStatusPending || s == ApplicationStatusAccepted ||
		s == ApplicationStatusRejected
}

// Application is a worker's request to be considered for a specific job.
// It snapshots the worker's identity, skills, and rating at application time
// so later profile edits do not rewrite history. At most one application
// exists per (job, worker) pair.
type Application struct {
	ID          string            `json:"id"                     db:"id"`
	JobID       string            `json:"job_id"                 db:"job_id"`
	WorkerID    string            `json:"worker_id"              db:"worker_id"`
	WorkerName  string            `json:"worker_name"            db:"worker_name"`
	Skills      []ServiceType     `json:"skills"                 db:"skills"`
	Rating      float64           `json:"rating"                 db:"rating"`
	CoverLetter *string           `json:"cover_letter,omitempty" db:"cover_letter"`
	Status      ApplicationStatus `json:"status"                 db:"status"`
	AppliedAt   time.Time         `json:"applied_at"             db:"applied_at"`
}

// ApplyRequest represents a worker applying for a job.
type ApplyRequest struct {
	JobID       string  `json:"job_id"`
	WorkerID    string  `json:"worker_id"`
	CoverLetter *string `json:"cover_letter,omitempty"`
}

// Validate validates the ApplyRequest fields.
func (r *ApplyRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return errors.New("job id is required")
	}
	if strings.TrimSpace(r.WorkerID) == "" {
		return errors.New("worker id is required")
	}
	return nil
}
