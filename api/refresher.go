/*
refresher.go - Periodic snapshot refresh

PURPOSE:
  Reloads the persisted snapshot at a fixed interval and rebuilds the
  derivation, so a store written by another process (ingest CLI, external
  sync job) becomes visible without a feed POST.

DESIGN:
  - Background goroutine driven by a ticker
  - Refresh runs once immediately on Start
  - Rebuilds go through the handler's generation-stamped publish, so a
    slow periodic refresh never overwrites a newer feed ingest
  - An empty store is not an error; the refresh is simply skipped

CONFIGURATION:
  - Interval: how often to refresh; zero or negative disables the loop

USAGE:
  refresher := api.NewRefresher(handler, cfg.Refresh.Interval())
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - handlers.go: Rebuild and the derivation cache
  - cmd/workforce: wiring and shutdown order
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warp/workforce-engine/logger"
	"github.com/warp/workforce-engine/planner"
)

// Refresher periodically reloads the snapshot and rebuilds the derivation.
type Refresher struct {
	Handler  *Handler
	Interval time.Duration
	Log      logger.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefresher creates a refresher. Start must be called to begin the loop.
func NewRefresher(h *Handler, interval time.Duration) *Refresher {
	return &Refresher{
		Handler:  h,
		Interval: interval,
		Log:      logger.Nop{},
		stop:     make(chan struct{}),
	}
}

// Start begins the refresh loop.
func (rf *Refresher) Start() {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.Interval <= 0 {
		rf.Log.Infof("refresher disabled, not starting")
		return
	}
	if rf.ticker != nil {
		return
	}

	rf.ticker = time.NewTicker(rf.Interval)
	rf.wg.Add(1)
	go rf.run()

	rf.Log.Infof("refresher started with interval %v", rf.Interval)
}

// Stop halts the refresh loop and waits for an in-flight refresh.
func (rf *Refresher) Stop() {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.ticker != nil {
		rf.ticker.Stop()
		close(rf.stop)
		rf.wg.Wait()
		rf.ticker = nil
		rf.Log.Infof("refresher stopped")
	}
}

func (rf *Refresher) run() {
	defer rf.wg.Done()

	// Refresh immediately on start
	rf.RunNow()

	for {
		select {
		case <-rf.ticker.C:
			rf.RunNow()
		case <-rf.stop:
			return
		}
	}
}

// RunNow triggers an immediate refresh (for tests/admin).
func (rf *Refresher) RunNow() {
	if err := rf.Handler.Rebuild(context.Background()); err != nil {
		if errors.Is(err, planner.ErrNoSnapshot) {
			rf.Log.Debugf("refresh skipped: nothing ingested")
			return
		}
		rf.Log.Errorf("refresh failed: %v", err)
		return
	}
	rf.Log.Debugf("refresh complete")
}
