/*
Package assign commits task assignments through external systems.

PURPOSE:
  Everything else in the engine derives state from an immutable snapshot.
  This facade is the one place that writes: it persists an assignment in
  the external task store, notifies the assignee, and triggers
  re-derivation so views catch up.

SEQUENCE (AssignTask):
  1. Persist via the TaskStore port. A failure aborts the whole operation;
     the store is the system of record.
  2. Notify via the Notifier port. A failure here is non-fatal: the
     assignment stands, the failure is logged and counted.
  3. Trigger re-derivation through the Rebuild hook.
  4. Return a transient status message that views auto-expire.

  There is no (task, employee) deduplication; retrying a successful
  assignment re-persists the same fact. Delivery is at-least-once.

SEE ALSO:
  - errors.go: ExternalCallError, sentinels
  - store/sqlite: TaskStore implementation
  - planner/store: in-memory TaskStore implementation
*/
package assign

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/workforce-engine/logger"
	"github.com/warp/workforce-engine/metrics"
	"github.com/warp/workforce-engine/planner"
)

// TaskStore persists assignments. Implementations report ErrTaskNotFound
// when the target task is not in the persisted snapshot.
type TaskStore interface {
	Assign(ctx context.Context, taskID planner.TaskID, employeeID planner.EmployeeID, employeeName string) error
}

// Facade coordinates one assignment across the external ports.
type Facade struct {
	Store    TaskStore
	Notifier Notifier

	// Rebuild triggers re-derivation after a committed assignment. May be
	// nil in tests.
	Rebuild func()

	// MessageTTL bounds how long returned status messages stay live.
	// Zero means DefaultMessageTTL.
	MessageTTL time.Duration

	Log  logger.Logger
	Sink metrics.Sink

	// Now is the clock; swapped in tests.
	Now func() time.Time
}

// NewFacade wires a facade with safe defaults for the optional fields.
func NewFacade(store TaskStore, notifier Notifier) *Facade {
	return &Facade{
		Store:    store,
		Notifier: notifier,
		Log:      logger.Nop{},
		Sink:     metrics.NopSink{},
		Now:      time.Now,
	}
}

// AssignTask commits one assignment. The returned status message is
// populated for both outcomes; err is non-nil only when the store rejected
// the assignment.
func (f *Facade) AssignTask(ctx context.Context, task planner.Task, employee planner.Employee) (StatusMessage, error) {
	now := f.clock()

	if err := f.Store.Assign(ctx, task.ID, employee.ID, employee.Name); err != nil {
		f.Sink.AssignmentFailed()
		f.Log.Errorf("assign %s to %s: %v", task.ID, employee.ID, err)
		msg := newStatusMessage(StatusError,
			fmt.Sprintf("Could not assign %q to %s", task.Name, employee.Name),
			task.ID, employee.ID, now, f.MessageTTL)
		return msg, &ExternalCallError{Op: "assign", Err: err}
	}

	if err := f.notify(ctx, task, employee); err != nil {
		// Non-fatal: the assignment is committed. Counted separately so a
		// flapping notification service is visible without failing writes.
		f.Sink.NotificationFailed()
		f.Log.Warnf("notify %s about %s: %v", employee.ID, task.ID, err)
	}

	if f.Rebuild != nil {
		f.Rebuild()
	}

	f.Sink.AssignmentCommitted()
	f.Log.Infof("assigned %s to %s (%s)", task.ID, employee.ID, employee.Name)

	msg := newStatusMessage(StatusSuccess,
		fmt.Sprintf("Assigned %q to %s", task.Name, employee.Name),
		task.ID, employee.ID, now, f.MessageTTL)
	return msg, nil
}

func (f *Facade) notify(ctx context.Context, task planner.Task, employee planner.Employee) error {
	if f.Notifier == nil {
		return nil
	}
	err := f.Notifier.Notify(ctx, Notification{
		EmployeeID:       employee.ID,
		Role:             employee.Role,
		Type:             "task_assigned",
		Title:            "New task assignment",
		Message:          fmt.Sprintf("You have been assigned %q", task.Name),
		RelatedTaskID:    task.ID,
		RelatedProjectID: task.ProjectID,
	})
	if err != nil {
		return &ExternalCallError{Op: "notify", Err: err}
	}
	return nil
}

func (f *Facade) clock() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}
