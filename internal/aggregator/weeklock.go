package aggregator

import "sync"

// weekLocks serializes computations per week bucket. Two simultaneous
// triggers for the same week must not interleave partial writes; different
// weeks may run side by side.
type weekLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newWeekLocks() *weekLocks {
	return &weekLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the week's lock is held and returns its release func.
func (w *weekLocks) acquire(weekKey string) func() {
	w.mu.Lock()
	l, ok := w.locks[weekKey]
	if !ok {
		l = &sync.Mutex{}
		w.locks[weekKey] = l
	}
	w.mu.Unlock()

	l.Lock()
	return l.Unlock
}
