package trader

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"sigbridge/internal/logger"
)

// MonitorSet owns the running monitor goroutines. It enforces two rules:
// at most one monitor per order, and a global cap on concurrent monitors
// so a burst of signals cannot pile up unbounded pollers.
type MonitorSet struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	active map[string]struct{}
	wg     sync.WaitGroup
}

func NewMonitorSet(maxMonitors int) *MonitorSet {
	if maxMonitors <= 0 {
		maxMonitors = 1
	}
	return &MonitorSet{
		sem:    semaphore.NewWeighted(int64(maxMonitors)),
		active: make(map[string]struct{}),
	}
}

// Spawn starts run on its own goroutine, keyed by orderID. Returns false
// without running anything when the order already has a monitor or the
// cap is reached; the caller decides how loudly to complain.
func (s *MonitorSet) Spawn(ctx context.Context, orderID string, run func(ctx context.Context)) bool {
	s.mu.Lock()
	if _, dup := s.active[orderID]; dup {
		s.mu.Unlock()
		return false
	}
	if !s.sem.TryAcquire(1) {
		s.mu.Unlock()
		logger.Warnf("monitor cap reached, order %s left unsupervised", orderID)
		return false
	}
	s.active[orderID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.active, orderID)
			s.mu.Unlock()
			s.sem.Release(1)
			s.wg.Done()
		}()
		run(ctx)
	}()
	return true
}

// Watching reports whether orderID currently has a monitor.
func (s *MonitorSet) Watching(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[orderID]
	return ok
}

// Len returns the number of running monitors.
func (s *MonitorSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Wait blocks until every running monitor has returned. Used on shutdown
// after the shared context is cancelled.
func (s *MonitorSet) Wait() {
	s.wg.Wait()
}
