/*
Package store provides the in-memory snapshot store.

PURPOSE:
  Backs tests and the --store.driver=memory development runtime. Implements
  the same three ports as the sqlite store: planner.Store for snapshots,
  assign.TaskStore for assignment writes, assign.Notifier as a capturing
  notification outbox.

SEE ALSO:
  - store/sqlite: the persistent implementation
*/
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/workforce-engine/assign"
	"github.com/warp/workforce-engine/planner"
)

// AssignmentRecord is one committed assignment, kept for audit parity with
// the sqlite store's assignments table.
type AssignmentRecord struct {
	TaskID       planner.TaskID
	EmployeeID   planner.EmployeeID
	EmployeeName string
	At           time.Time
}

// Memory is the in-memory store.
type Memory struct {
	mu            sync.RWMutex
	snapshot      *planner.Snapshot
	assignments   []AssignmentRecord
	notifications []assign.Notification
}

func NewMemory() *Memory {
	return &Memory{}
}

// =============================================================================
// planner.Store
// =============================================================================

// SaveSnapshot replaces the stored snapshot. Rows are copied at the slice
// level; callers must not mutate rows they handed in afterwards.
func (m *Memory) SaveSnapshot(_ context.Context, snap *planner.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = cloneSnapshot(snap)
	return nil
}

func (m *Memory) LoadSnapshot(_ context.Context) (*planner.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil, planner.ErrNoSnapshot
	}
	return cloneSnapshot(m.snapshot), nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	m.assignments = nil
	m.notifications = nil
	return nil
}

// =============================================================================
// assign.TaskStore
// =============================================================================

// Assign updates the task row in the stored snapshot and records the
// assignment. Unknown task ids are rejected with assign.ErrTaskNotFound.
func (m *Memory) Assign(_ context.Context, taskID planner.TaskID, employeeID planner.EmployeeID, employeeName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snapshot == nil {
		return planner.ErrNoSnapshot
	}
	for i := range m.snapshot.Tasks {
		if m.snapshot.Tasks[i].ID != taskID {
			continue
		}
		m.snapshot.Tasks[i].EmployeeID = employeeID
		m.snapshot.Tasks[i].Resource = employeeName
		m.assignments = append(m.assignments, AssignmentRecord{
			TaskID:       taskID,
			EmployeeID:   employeeID,
			EmployeeName: employeeName,
			At:           time.Now().UTC(),
		})
		return nil
	}
	return assign.ErrTaskNotFound
}

// Assignments returns the audit trail of committed assignments.
func (m *Memory) Assignments() []AssignmentRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AssignmentRecord, len(m.assignments))
	copy(out, m.assignments)
	return out
}

// =============================================================================
// assign.Notifier
// =============================================================================

// Notify records the notification in the outbox. Nothing is delivered;
// delivery is an external concern.
func (m *Memory) Notify(_ context.Context, n assign.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

// Notifications returns the captured outbox.
func (m *Memory) Notifications() []assign.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]assign.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// cloneSnapshot copies the snapshot at the slice level so the store's copy
// and the caller's copy diverge safely.
func cloneSnapshot(snap *planner.Snapshot) *planner.Snapshot {
	if snap == nil {
		return nil
	}
	out := &planner.Snapshot{TakenAt: snap.TakenAt}
	out.Employees = append([]planner.Employee(nil), snap.Employees...)
	out.Tasks = append([]planner.Task(nil), snap.Tasks...)
	out.Projects = append([]planner.Project(nil), snap.Projects...)
	out.Portfolios = append([]planner.Portfolio(nil), snap.Portfolios...)
	out.QCTasks = append([]planner.QCTask(nil), snap.QCTasks...)
	return out
}
