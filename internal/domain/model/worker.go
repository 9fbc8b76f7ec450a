package model

import (
	"errors"
	"strings"
	"time"
)

// WorkerStatus represents the current standing of a worker profile.
type WorkerStatus string

const (
	// WorkerStatusPending indicates a registered worker awaiting admin approval.
	WorkerStatusPending WorkerStatus = "pending"
	// WorkerStatusActive indicates an approved worker eligible for matching.
	WorkerStatusActive WorkerStatus = "active"
	// WorkerStatusSuspended indicates a suspended worker. Reversible.
	WorkerStatusSuspended WorkerStatus = "suspended"
)

// Valid returns true if the WorkerStatus is one of the known states.
func (s WorkerStatus) Valid() bool {
	return s == WorkerStatusPending || s == WorkerStatusActive || s == WorkerStatusSuspended
}

// Worker represents a service provider profile in the directory.
type Worker struct {
	ID                string        `json:"id"                            db:"id"`
	FullName          string        `json:"full_name"                     db:"full_name"`
	Phone             string        `json:"phone"                         db:"phone"`
	Email             *string       `json:"email,omitempty"               db:"email"`
	Status            WorkerStatus  `json:"status"                        db:"status"`
	Skills            []ServiceType `json:"skills"                        db:"skills"`
	Rating            float64       `json:"rating"                        db:"rating"`
	ReviewCount       int           `json:"review_count"                  db:"review_count"`
	HourlyRate        *int64        `json:"hourly_rate,omitempty"         db:"hourly_rate"`
	ProfilePictureURL *string       `json:"profile_picture_url,omitempty" db:"profile_picture_url"`
	CreatedAt         time.Time     `json:"created_at"                    db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"                    db:"updated_at"`
}

// HasSkill reports whether the worker offers the given service type.
func (w *Worker) HasSkill(t ServiceType) bool {
	for _, s := range w.Skills {
		if s == t {
			return true
		}
	}
	return false
}

// Validate checks the invariants the directory guarantees for a profile.
func (w *Worker) Validate() error {
	if strings.TrimSpace(w.FullName) == "" {
		return errors.New("full name is required")
	}
	if !w.Status.Valid() {
		return errors.New("invalid worker status")
	}
	if w.Rating < 0 || w.Rating > 5 {
		return errors.New("rating must be between 0 and 5")
	}
	if w.ReviewCount < 0 {
		return errors.New("review count must be >= 0")
	}
	return nil
}

// CreateWorkerRequest represents a worker registration. New workers start in
// pending status until an admin approves them.
type CreateWorkerRequest struct {
	FullName   string        `json:"full_name"`
	Phone      string        `json:"phone"`
	Email      *string       `json:"email,omitempty"`
	Skills     []ServiceType `json:"skills"`
	HourlyRate *int64        `json:"hourly_rate,omitempty"`
}

// Validate validates the CreateWorkerRequest fields.
func (r *CreateWorkerRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return errors.New("full name is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return errors.New("phone is required")
	}
	if len(r.Skills) == 0 {
		return errors.New("at least one skill is required")
	}
	for _, s := range r.Skills {
		if !s.Valid() {
			return errors.New("invalid skill: " + string(s))
		}
	}
	if r.HourlyRate != nil && *r.HourlyRate < 0 {
		return errors.New("hourly rate must be >= 0")
	}
	return nil
}

// WorkerListOptions holds filters for worker directory queries.
type WorkerListOptions struct {
	Status *WorkerStatus
	Skill  *ServiceType
	Limit  int
	Offset int
}
