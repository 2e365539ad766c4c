/*
store.go - Persistence interface for source snapshots

PURPOSE:
  The engine itself never persists anything; a Store supplies the snapshot
  and accepts replacements when a new feed arrives. Implementations:
  store/sqlite (durable) and planner/store (in-memory).
*/
package planner

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been ingested.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store persists whole snapshots. Save replaces the previous snapshot
// atomically; partial snapshots are never observable.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	Reset(ctx context.Context) error
}
