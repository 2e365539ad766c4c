/*
Package metrics records planner telemetry.

PURPOSE:
  One narrow Sink interface for everything the engine wants counted:
  snapshot ingests, derivation timings, assignment outcomes, notification
  failures. Callers hold a Sink and never know whether it is Prometheus,
  a test double, or nothing at all.

SEE ALSO:
  - prom.go: Prometheus-backed sink
  - http.go: scrape endpoint server
*/
package metrics

import "time"

// Sink records engine telemetry. Implementations must be safe for
// concurrent use.
type Sink interface {
	// SnapshotIngested records one accepted feed document and the entity
	// counts it produced.
	SnapshotIngested(tasks, employees int)

	// DerivationCompleted records one full recomputation of the derived
	// aggregates.
	DerivationCompleted(d time.Duration)

	// AssignmentCommitted counts an assignment accepted by the task store.
	AssignmentCommitted()

	// AssignmentFailed counts an assignment the task store rejected.
	AssignmentFailed()

	// NotificationFailed counts a notification that could not be delivered
	// after a committed assignment.
	NotificationFailed()
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) SnapshotIngested(int, int)         {}
func (NopSink) DerivationCompleted(time.Duration) {}
func (NopSink) AssignmentCommitted()              {}
func (NopSink) AssignmentFailed()                 {}
func (NopSink) NotificationFailed()               {}
