package assign_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/assign"
	"github.com/warp/workforce-engine/planner"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type assignCall struct {
	taskID     planner.TaskID
	employeeID planner.EmployeeID
	name       string
}

type fakeStore struct {
	calls []assignCall
	err   error
}

func (s *fakeStore) Assign(_ context.Context, taskID planner.TaskID, employeeID planner.EmployeeID, name string) error {
	s.calls = append(s.calls, assignCall{taskID, employeeID, name})
	return s.err
}

type fakeNotifier struct {
	sent []assign.Notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, payload assign.Notification) error {
	n.sent = append(n.sent, payload)
	return n.err
}

type countingSink struct {
	committed, failed, notifyFailed int
}

func (s *countingSink) SnapshotIngested(int, int)         {}
func (s *countingSink) DerivationCompleted(time.Duration) {}
func (s *countingSink) AssignmentCommitted()              { s.committed++ }
func (s *countingSink) AssignmentFailed()                 { s.failed++ }
func (s *countingSink) NotificationFailed()               { s.notifyFailed++ }

var testClock = time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)

func newTestFacade(store *fakeStore, notifier *fakeNotifier) (*assign.Facade, *countingSink, *int) {
	rebuilds := 0
	sink := &countingSink{}
	f := assign.NewFacade(store, notifier)
	f.Sink = sink
	f.Rebuild = func() { rebuilds++ }
	f.Now = func() time.Time { return testClock }
	return f, sink, &rebuilds
}

func sampleTask() planner.Task {
	return planner.Task{ID: "t-1", Name: "Build ingest", ProjectID: "proj-a"}
}

func sampleEmployee() planner.Employee {
	return planner.Employee{ID: "emp-1", Name: "Alice Chen", Role: "Engineer"}
}

// =============================================================================
// ASSIGNMENT SEQUENCE
// =============================================================================

func TestAssignTask_CommitNotifyRebuild(t *testing.T) {
	// GIVEN: a healthy store and notifier
	// WHEN: assigning a task
	// THEN: persist, notify, rebuild happen in order and the status message
	//       reports success

	store := &fakeStore{}
	notifier := &fakeNotifier{}
	f, sink, rebuilds := newTestFacade(store, notifier)

	msg, err := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, assignCall{"t-1", "emp-1", "Alice Chen"}, store.calls[0])

	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, "task_assigned", n.Type)
	assert.Equal(t, planner.EmployeeID("emp-1"), n.EmployeeID)
	assert.Equal(t, planner.TaskID("t-1"), n.RelatedTaskID)
	assert.Equal(t, planner.ProjectID("proj-a"), n.RelatedProjectID)

	assert.Equal(t, 1, *rebuilds)
	assert.Equal(t, 1, sink.committed)
	assert.Equal(t, 0, sink.failed)

	assert.Equal(t, assign.StatusSuccess, msg.Kind)
	assert.NotEmpty(t, msg.ID)
	assert.Contains(t, msg.Text, "Build ingest")
	assert.Contains(t, msg.Text, "Alice Chen")
}

func TestAssignTask_StoreFailureAborts(t *testing.T) {
	// GIVEN: a task store that rejects the write
	// WHEN: assigning
	// THEN: the error surfaces, nothing is notified, nothing rebuilds, and
	//       the status message reports the failure

	boom := errors.New("connection reset")
	store := &fakeStore{err: boom}
	notifier := &fakeNotifier{}
	f, sink, rebuilds := newTestFacade(store, notifier)

	msg, err := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())

	require.Error(t, err)
	assert.True(t, assign.IsExternalCall(err))
	assert.True(t, errors.Is(err, boom))

	assert.Empty(t, notifier.sent)
	assert.Equal(t, 0, *rebuilds)
	assert.Equal(t, 0, sink.committed)
	assert.Equal(t, 1, sink.failed)

	assert.Equal(t, assign.StatusError, msg.Kind)
	assert.Contains(t, msg.Text, "Could not assign")
}

func TestAssignTask_MissingTaskDetectable(t *testing.T) {
	// GIVEN: a store reporting the task id is unknown
	// THEN: callers can tell "bad target" apart from "store down"

	store := &fakeStore{err: assign.ErrTaskNotFound}
	f, _, _ := newTestFacade(store, &fakeNotifier{})

	_, err := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())

	require.Error(t, err)
	assert.True(t, assign.IsTaskMissing(err))
	assert.True(t, assign.IsExternalCall(err))
}

func TestAssignTask_NotifyFailureIsNonFatal(t *testing.T) {
	// GIVEN: a notifier that always fails
	// WHEN: assigning
	// THEN: the assignment still commits and rebuilds; the failure is only
	//       counted

	store := &fakeStore{}
	notifier := &fakeNotifier{err: errors.New("smtp timeout")}
	f, sink, rebuilds := newTestFacade(store, notifier)

	msg, err := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())

	require.NoError(t, err)
	assert.Equal(t, assign.StatusSuccess, msg.Kind)
	assert.Equal(t, 1, *rebuilds)
	assert.Equal(t, 1, sink.committed)
	assert.Equal(t, 1, sink.notifyFailed)
}

func TestAssignTask_NoDeduplication(t *testing.T) {
	// GIVEN: the same assignment submitted twice
	// THEN: both hit the store; the external contract is at-least-once

	store := &fakeStore{}
	f, sink, _ := newTestFacade(store, &fakeNotifier{})

	_, err1 := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())
	_, err2 := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Len(t, store.calls, 2)
	assert.Equal(t, 2, sink.committed)
}

// =============================================================================
// STATUS MESSAGE LIFETIME
// =============================================================================

func TestStatusMessage_AutoExpires(t *testing.T) {
	// GIVEN: a committed assignment with a 2-second TTL
	// THEN: the message is live until, and not after, the TTL elapses

	f, _, _ := newTestFacade(&fakeStore{}, &fakeNotifier{})
	f.MessageTTL = 2 * time.Second

	msg, err := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())
	require.NoError(t, err)

	assert.False(t, msg.Expired(testClock))
	assert.False(t, msg.Expired(testClock.Add(1999*time.Millisecond)))
	assert.True(t, msg.Expired(testClock.Add(2*time.Second)))
}

func TestStatusMessage_DefaultTTLWhenUnset(t *testing.T) {
	f, _, _ := newTestFacade(&fakeStore{}, &fakeNotifier{})

	msg, err := f.AssignTask(context.Background(), sampleTask(), sampleEmployee())
	require.NoError(t, err)

	assert.Equal(t, testClock.Add(assign.DefaultMessageTTL), msg.ExpiresAt)
}
