// Package model defines the core data types shared by the hausmate matching
// and lifecycle services. Status enums live here so the state machine has a
// single source of truth instead of per-file string unions.
package model

import (
	"errors"
	"strings"
	"time"
)

// JobStatus represents the current lifecycle status of a job.
type JobStatus string

const (
	// JobStatusPending indicates a job awaiting admin approval.
	JobStatusPending JobStatus = "pending"
	// JobStatusOpen indicates an approved job accepting applications and assignment.
	JobStatusOpen JobStatus = "open"
	// JobStatusAssigned indicates a job with a committed worker.
	JobStatusAssigned JobStatus = "assigned"
	// JobStatusCompleted indicates finished work. Terminal.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusCancelled indicates a cancelled job. Terminal.
	JobStatusCancelled JobStatus = "cancelled"
)

// Valid returns true if the JobStatus is one of the known states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusOpen, JobStatusAssigned, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// ServiceType identifies the category of household work a job requests.
type ServiceType string

const (
	ServiceTypeCleaning   ServiceType = "cleaning"
	ServiceTypeCooking    ServiceType = "cooking"
	ServiceTypeChildcare  ServiceType = "childcare"
	ServiceTypeEldercare  ServiceType = "eldercare"
	ServiceTypeGardening  ServiceType = "gardening"
	ServiceTypeHandywork  ServiceType = "handywork"
	ServiceTypeLaundering ServiceType = "laundering"
)

// Valid returns true if the ServiceType is one of the known categories.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypeCleaning, ServiceTypeCooking, ServiceTypeChildcare,
		ServiceTypeEldercare, ServiceTypeGardening, ServiceTypeHandywork,
		ServiceTypeLaundering:
		return true
	}
	return false
}

// Job represents a unit of requested household work.
//
// WorkerID and WorkerName are both set or both absent; the assignment
// transition writes them together.
type Job struct {
	ID                string      `json:"id"                           db:"id"`
	Title             string      `json:"title"                        db:"title"`
	ServiceType       ServiceType `json:"service_type"                 db:"service_type"`
	HouseholdID       string      `json:"household_id"                 db:"household_id"`
	WorkerID          *string     `json:"worker_id,omitempty"          db:"worker_id"`
	WorkerName        *string     `json:"worker_name,omitempty"        db:"worker_name"`
	PackageID         *string     `json:"package_id,omitempty"         db:"package_id"`
	GrossAmount       int64       `json:"gross_amount"                 db:"gross_amount"`
	Currency          string      `json:"currency"                     db:"currency"`
	Frequency         string      `json:"frequency"                    db:"frequency"`
	Location          string      `json:"location"                     db:"location"`
	Status            JobStatus   `json:"status"                       db:"status"`
	ScheduledDate     *string     `json:"scheduled_date,omitempty"     db:"scheduled_date"`
	ScheduledTime     *string     `json:"scheduled_time,omitempty"     db:"scheduled_time"`
	PendingReschedule bool        `json:"pending_reschedule"           db:"pending_reschedule"`
	CreatedAt         time.Time   `json:"created_at"                   db:"created_at"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"       db:"completed_at"`
	CancelledAt       *time.Time  `json:"cancelled_at,omitempty"       db:"cancelled_at"`
	UpdatedAt         time.Time   `json:"updated_at"                   db:"updated_at"`
}

// Assigned reports whether the job carries a committed worker reference.
func (j *Job) Assigned() bool {
	return j.WorkerID != nil && *j.WorkerID != ""
}

// CreateJobRequest represents a household's request to post a new job.
// Jobs are created in pending status and become open on admin approval.
type CreateJobRequest struct {
	Title       string      `json:"title"`
	ServiceType ServiceType `json:"service_type"`
	HouseholdID string      `json:"household_id"`
	PackageID   *string     `json:"package_id,omitempty"`
	GrossAmount int64       `json:"gross_amount"`
	Currency    string      `json:"currency"`
	Frequency   string      `json:"frequency,omitempty"`
	Location    string      `json:"location,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if !r.ServiceType.Valid() {
		return errors.New("invalid service type")
	}
	if strings.TrimSpace(r.HouseholdID) == "" {
		return errors.New("household id is required")
	}
	if r.GrossAmount < 0 {
		return errors.New("gross amount must be >= 0")
	}
	return nil
}

// RescheduleRequest carries the new schedule for an assigned job.
type RescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Validate validates the RescheduleRequest fields.
func (r *RescheduleRequest) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return errors.New("date is required")
	}
	if strings.TrimSpace(r.Time) == "" {
		return errors.New("time is required")
	}
	return nil
}

// JobListOptions holds filters for job listing queries.
type JobListOptions struct {
	Status      *JobStatus
	ServiceType *ServiceType
	HouseholdID *string
	WorkerID    *string
	Limit       int
	Offset      int
}

// JobStats represents counts of jobs per lifecycle state.
type JobStats struct {
	Pending   int `json:"pending"`
	Open      int `json:"open"`
	Assigned  int `json:"assigned"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}
