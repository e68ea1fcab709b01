package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiescence window before a debounced run starts.
const DefaultDebounce = 150 * time.Millisecond

// Task describes one kind of background work for a Scheduler.
//
// Prepare captures an immutable snapshot at dispatch time, together with the
// generation it belongs to. Run does the work on that snapshot and must not
// touch shared state. Commit publishes the result; it returns false when the
// generation is no longer current and the result was discarded.
type Task[S, R any] struct {
	Prepare func() (S, uint64)
	Run     func(S) (R, error)
	Commit  func(gen uint64, result R, err error) bool
}

// Scheduler runs a Task with debouncing and at most one run in flight.
//
// Trigger restarts the quiescence window, so a burst of calls produces a
// single run once the burst settles. A request that arrives while a run is
// active is queued and starts as soon as that run completes; runs never
// overlap. An active run is never interrupted: a result that lost the race
// with a newer change is discarded by Commit.
type Scheduler[S, R any] struct {
	task  Task[S, R]
	delay time.Duration
	log   logrus.FieldLogger

	mu       sync.Mutex
	timer    *time.Timer
	timerSeq uint64
	running  bool
	pending  bool
	closed   bool
	idle     chan struct{}
}

// NewScheduler returns an idle scheduler.
func NewScheduler[S, R any](task Task[S, R], delay time.Duration, log logrus.FieldLogger) *Scheduler[S, R] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	idle := make(chan struct{})
	close(idle)
	return &Scheduler[S, R]{task: task, delay: delay, log: log, idle: idle}
}

// Trigger schedules a run after the debounce window, restarting the window
// if one is already open.
func (s *Scheduler[S, R]) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.markBusy()
	s.stopTimer()
	seq := s.timerSeq
	s.timer = time.AfterFunc(s.delay, func() { s.fire(seq) })
}

// Now requests a run without waiting for the debounce window. Any open
// window is cancelled since this run supersedes it. It returns false if the
// scheduler is closed.
func (s *Scheduler[S, R]) Now() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.markBusy()
	s.stopTimer()
	start := s.dispatchLocked()
	s.mu.Unlock()
	if start {
		go s.loop()
	}
	return true
}

// Wait blocks until no run is active, queued or waiting out the debounce
// window.
func (s *Scheduler[S, R]) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether a run is active or scheduled.
func (s *Scheduler[S, R]) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running || s.pending || s.timer != nil
}

// Close drops any scheduled run. An active run completes, but nothing
// queued behind it starts.
func (s *Scheduler[S, R]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = false
	s.stopTimer()
	if !s.running {
		s.markIdle()
	}
}

func (s *Scheduler[S, R]) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.timerSeq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	start := s.dispatchLocked()
	s.mu.Unlock()
	if start {
		s.loop()
	}
}

// dispatchLocked either claims the run slot or queues behind the active run.
func (s *Scheduler[S, R]) dispatchLocked() bool {
	if s.running {
		s.pending = true
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler[S, R]) loop() {
	for {
		snapshot, gen := s.task.Prepare()
		result, err := s.task.Run(snapshot)
		if !s.task.Commit(gen, result, err) {
			s.log.WithField("generation", gen).Debug("Discarded superseded result")
		}

		s.mu.Lock()
		if s.pending && !s.closed {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.running = false
		if s.timer == nil {
			s.markIdle()
		}
		s.mu.Unlock()
		return
	}
}

// stopTimer invalidates any armed timer. A timer that already fired sees a
// stale sequence number and does nothing.
func (s *Scheduler[S, R]) stopTimer() {
	s.timerSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler[S, R]) markBusy() {
	select {
	case <-s.idle:
		s.idle = make(chan struct{})
	default:
	}
}

func (s *Scheduler[S, R]) markIdle() {
	select {
	case <-s.idle:
	default:
		close(s.idle)
	}
}
