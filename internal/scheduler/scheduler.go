package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Scheduler coalesces bursts of activity per folder.
type Scheduler struct {
	window time.Duration
	ready  func(folder string)

	mu      sync.Mutex
	pending map[string]*entry
	stopped bool
}

type entry struct {
	timer *time.Timer
}

// New constructs a Scheduler that calls ready after window of quiet.
func New(window time.Duration, ready func(folder string)) *Scheduler {
	return &Scheduler{
		window:  window,
		ready:   ready,
		pending: make(map[string]*entry),
	}
}

// Observe records activity for folder, restarting its timer. It reports
// whether the folder was already pending.
func (s *Scheduler) Observe(folder string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}

	prev, existed := s.pending[folder]
	if existed {
		prev.timer.Stop()
	}
	e := &entry{}
	e.timer = time.AfterFunc(s.window, func() { s.fire(folder, e) })
	s.pending[folder] = e
	return existed
}

// fire runs the callback unless e was superseded or cancelled after its timer
// had already started.
func (s *Scheduler) fire(folder string, e *entry) {
	s.mu.Lock()
	if current, ok := s.pending[folder]; !ok || current != e {
		s.mu.Unlock()
		return
	}
	delete(s.pending, folder)
	s.mu.Unlock()

	if s.ready != nil {
		s.ready(folder)
	}
}

// Cancel drops folder's pending timer, if any.
func (s *Scheduler) Cancel(folder string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.pending[folder]; ok {
		e.timer.Stop()
		delete(s.pending, folder)
	}
}

// CancelAll drops every pending timer.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for folder, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, folder)
	}
}

// Stop cancels all timers and ignores later observations.
func (s *Scheduler) Stop() {
	s.CancelAll()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// IsPending reports whether folder is waiting out its window.
func (s *Scheduler) IsPending(folder string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[folder]
	return ok
}

// Pending returns the waiting folders in sorted order.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pending))
	for folder := range s.pending {
		out = append(out, folder)
	}
	sort.Strings(out)
	return out
}

// Window returns the quiet period.
func (s *Scheduler) Window() time.Duration {
	return s.window
}
