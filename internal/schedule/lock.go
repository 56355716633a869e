package schedule

import "sync"

// runLock is the mutual-exclusion primitive the pipeline cycle, the daily
// target loop, and a user-triggered run-now all share, so at most one
// pipeline pass executes at a time regardless of who started it.
type runLock struct {
	mu sync.Mutex
}

func newRunLock() *runLock {
	return &runLock{}
}

// TryAcquire reports whether the lock was free and is now held.
func (l *runLock) TryAcquire() bool {
	return l.mu.TryLock()
}

// Release frees the lock. Must only be called by the holder.
func (l *runLock) Release() {
	l.mu.Unlock()
}
