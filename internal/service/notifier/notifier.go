// Package notifier fans lifecycle events out to notification sinks. It is the
// only consumer of job.Event in the core: the lifecycle engine publishes and
// moves on, so a slow or failing sink can never abort a status transition.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainjob "github.com/hausmate/hausmate-core/internal/domain/job"
	"github.com/hausmate/hausmate-core/internal/domain/model"
	"github.com/hausmate/hausmate-core/internal/notify"
)

const defaultDispatchTimeout = 10 * time.Second

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the event dispatcher.
type Options struct {
	Logger  *slog.Logger
	Sinks   []SinkRegistration
	Timeout time.Duration
}

// Dispatcher consumes lifecycle events and delivers notifications to all
// registered sinks. It implements domainjob.Publisher.
type Dispatcher struct {
	logger  *slog.Logger
	sinks   []SinkRegistration
	timeout time.Duration

	wg sync.WaitGroup
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "notifier")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}

	return &Dispatcher{
		logger:  logger,
		sinks:   sinks,
		timeout: timeout,
	}
}

// Publish implements domainjob.Publisher. Delivery happens on a background
// goroutine detached from the caller's context so a request cancel cannot
// drop a notification for a transition that already committed.
func (d *Dispatcher) Publish(event domainjob.Event) {
	if len(d.sinks) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.Dispatch(ctx, event)
	}()
}

// Wait blocks until all in-flight deliveries finish. Used by tests and
// graceful shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch delivers the event's messages to every sink synchronously.
// Failures are logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, event domainjob.Event) {
	messages := MessagesFor(event)
	if len(messages) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, entry := range d.sinks {
		for _, msg := range messages {
			wg.Add(1)
			go func(entry SinkRegistration, msg notify.Message) {
				defer wg.Done()
				if err := entry.Sink.Send(ctx, msg); err != nil {
					d.logger.ErrorContext(ctx, "notification delivery failed",
						"sink", entry.Name,
						"job_id", event.JobID,
						"event", event.Type,
						"user_id", msg.UserID,
						"error", err,
					)
				}
			}(entry, msg)
		}
	}
	wg.Wait()
}

// Enabled reports whether the dispatcher has any active sinks.
func (d *Dispatcher) Enabled() bool {
	return len(d.sinks) > 0
}

// MessagesFor renders the notification messages a lifecycle event fans out to.
func MessagesFor(event domainjob.Event) []notify.Message {
	switch event.Type {
	case domainjob.EventApproved:
		return []notify.Message{{
			UserID:      event.HouseholdID,
			Title:       "Job approved",
			Description: fmt.Sprintf("Your job %q was approved and is now open for applications.", event.JobTitle),
			Kind:        model.NotificationKindJobApproved,
		}}
	case domainjob.EventAssigned:
		return []notify.Message{
			{
				UserID:      event.WorkerID,
				Title:       "New assignment",
				Description: fmt.Sprintf("You have been assigned to %q.", event.JobTitle),
				Kind:        model.NotificationKindNewAssignment,
			},
			{
				UserID:      event.HouseholdID,
				Title:       "Worker assigned",
				Description: fmt.Sprintf("%s was assigned to your job %q.", event.WorkerName, event.JobTitle),
				Kind:        model.NotificationKindNewAssignment,
			},
		}
	case domainjob.EventCompleted:
		return []notify.Message{{
			UserID:      event.HouseholdID,
			Title:       "Job completed",
			Description: fmt.Sprintf("Your job %q was marked as completed.", event.JobTitle),
			Kind:        model.NotificationKindJobCompleted,
		}}
	case domainjob.EventCancelled:
		messages := []notify.Message{{
			UserID:      event.HouseholdID,
			Title:       "Job cancelled",
			Description: fmt.Sprintf("Your job %q was cancelled.", event.JobTitle),
			Kind:        model.NotificationKindJobCancelled,
		}}
		if event.WorkerID != "" {
			messages = append(messages, notify.Message{
				UserID:      event.WorkerID,
				Title:       "Job cancelled",
				Description: fmt.Sprintf("The job %q you were assigned to was cancelled.", event.JobTitle),
				Kind:        model.NotificationKindJobCancelled,
			})
		}
		return messages
	case domainjob.EventRescheduled:
		description := fmt.Sprintf("The job %q was rescheduled to %s %s.",
			event.JobTitle, event.NewDate, event.NewTime)
		messages := []notify.Message{{
			UserID:      event.HouseholdID,
			Title:       "Job rescheduled",
			Description: description,
			Kind:        model.NotificationKindRescheduled,
		}}
		if event.WorkerID != "" {
			messages = append(messages, notify.Message{
				UserID:      event.WorkerID,
				Title:       "Job rescheduled",
				Description: description,
				Kind:        model.NotificationKindRescheduled,
			})
		}
		return messages
	default:
		return nil
	}
}
