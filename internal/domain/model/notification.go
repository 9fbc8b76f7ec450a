package model

import "time"

// NotificationKind categorizes a notification for portal rendering.
type NotificationKind string

const (
	NotificationKindJobApproved   NotificationKind = "job_approved"
	NotificationKindNewAssignment NotificationKind = "new_assignment"
	NotificationKindJobCompleted  NotificationKind = "job_completed"
	NotificationKindJobCancelled  NotificationKind = "job_cancelled"
	NotificationKindRescheduled   NotificationKind = "job_rescheduled"
)

// Valid returns true if the NotificationKind is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationKindJobApproved, NotificationKindNewAssignment,
		NotificationKindJobCompleted, NotificationKindJobCancelled,
		NotificationKindRescheduled:
		return true
	}
	return false
}

// Notification is a fire-and-forget message targeted at a user id. Delivery
// failure never blocks or rolls back the state transition that produced it.
type Notification struct {
	ID          string           `json:"id"          db:"id"`
	UserID      string           `json:"user_id"     db:"user_id"`
	Title       string           `json:"title"       db:"title"`
	Description string           `json:"description" db:"description"`
	Kind        NotificationKind `json:"kind"        db:"kind"`
	Read        bool             `json:"read"        db:"read"`
	CreatedAt   time.Time        `json:"created_at"  db:"created_at"`
}
