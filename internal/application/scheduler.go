package application

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Refresher interface {
	Refresh(ctx context.Context) error
}

// AutoRefresh is the handle of a running refresh loop.
type AutoRefresh struct {
	cancel context.CancelFunc
	done   chan struct{}
	reset  chan time.Duration
}

// Stop cancels the pending tick and waits for the loop to exit. A cycle that is
// already running is cancelled through its context. Afterwards the scheduler
// reports not running and can be started again.
func (a *AutoRefresh) Stop() {
	a.cancel()
	<-a.done
}

// Done is closed once the loop has exited.
func (a *AutoRefresh) Done() <-chan struct{} { return a.done }

type Scheduler struct {
	log       *zap.Logger
	use       Refresher
	pauseFile string

	mu     sync.Mutex
	every  time.Duration
	active *AutoRefresh
}

func NewScheduler(l *zap.Logger, u Refresher, every time.Duration, pauseFile string) *Scheduler {
	return &Scheduler{
		log: l, use: u, every: every, pauseFile: pauseFile,
	}
}

// SetInterval changes the period; a running loop picks it up on its next select.
func (s *Scheduler) SetInterval(every time.Duration) {
	if every <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if every == s.every {
		return
	}
	s.every = every
	if s.active != nil {
		select {
		case s.active.reset <- every:
		default:
			// drain the stale value so the newest interval wins
			select {
			case <-s.active.reset:
			default:
			}
			s.active.reset <- every
		}
	}
	s.log.Info("refresh interval changed", zap.Duration("every", every))
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.every
}

// Start begins ticking. The first refresh happens one interval from now.
// Starting an already running scheduler returns the existing handle.
func (s *Scheduler) Start(ctx context.Context) *AutoRefresh {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return s.active
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &AutoRefresh{
		cancel: cancel,
		done:   make(chan struct{}),
		reset:  make(chan time.Duration, 1),
	}
	s.active = a
	go s.loop(ctx, a, s.every)
	return a
}

// Stop halts auto refresh if it is running and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	a := s.active
	s.active = nil
	s.mu.Unlock()
	if a != nil {
		a.Stop()
	}
}

// Toggle flips auto refresh and reports whether it is now running.
func (s *Scheduler) Toggle(ctx context.Context) bool {
	if s.Running() {
		s.Stop()
		s.log.Info("auto refresh stopped")
		return false
	}
	s.Start(ctx)
	s.log.Info("auto refresh started", zap.Duration("every", s.Interval()))
	return true
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Run refreshes once, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx)
	a := s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	<-a.Done()
}

func (s *Scheduler) loop(ctx context.Context, a *AutoRefresh, every time.Duration) {
	defer close(a.done)
	// Runs before done is closed, so a stopped handle is never handed out again.
	defer func() {
		s.mu.Lock()
		if s.active == a {
			s.active = nil
		}
		s.mu.Unlock()
	}()

	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-a.reset:
			t.Reset(d)
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.isPaused() {
		s.log.Debug("paused: skipping refresh")
		return
	}
	if err := s.use.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) isPaused() bool {
	if s.pauseFile == "" {
		return false
	}
	_, err := os.Stat(s.pauseFile)
	return err == nil
}
