package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is returned when a job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrWorkerNotFound is returned when a worker profile does not exist.
	ErrWorkerNotFound = errors.New("worker not found")
	// ErrJobNotOpen is returned when an application targets a job that is not
	// accepting applications.
	ErrJobNotOpen = errors.New("job is not open for applications")
)
