// Package job defines the domain events emitted by the job lifecycle engine.
// The engine emits events instead of calling the notification sink inline;
// a separate dispatcher consumes them, keeping the failure domains apart.
package job

import "time"

// EventType identifies a lifecycle transition that observers may react to.
type EventType string

const (
	// EventApproved fires on pending → open.
	EventApproved EventType = "approved"
	// EventAssigned fires on open → assigned.
	EventAssigned EventType = "assigned"
	// EventCompleted fires on assigned → completed.
	EventCompleted EventType = "completed"
	// EventCancelled fires on any non-terminal state → cancelled.
	EventCancelled EventType = "cancelled"
	// EventRescheduled fires when an assigned job's schedule changes.
	EventRescheduled EventType = "rescheduled"
)

// Event captures a committed lifecycle transition. Events are emitted only
// after the conditional store update succeeds, so observers never see a
// transition that lost its race.
type Event struct {
	Type        EventType
	JobID       string
	JobTitle    string
	HouseholdID string
	WorkerID    string
	WorkerName  string
	// NewDate and NewTime are set for EventRescheduled only.
	NewDate    string
	NewTime    string
	OccurredAt time.Time
}

// Publisher receives committed lifecycle events. Implementations must not
// block the transition path; slow or failing delivery is their problem.
type Publisher interface {
	Publish(event Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(event Event)

// Publish implements the Publisher interface.
func (f PublisherFunc) Publish(event Event) {
	if f != nil {
		f(event)
	}
}
