package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestScheduler_StopLeavesNoPendingTick(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(zap.NewNop(), r, 5*time.Millisecond, "")

	h := s.Start(context.Background())
	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, time.Millisecond)

	s.Stop()
	select {
	case <-h.Done():
	default:
		t.Fatal("loop still running after Stop")
	}

	n := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, r.calls.Load())
	assert.False(t, s.Running())
}

func TestScheduler_RestartAfterHandleStop(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(zap.NewNop(), r, 5*time.Millisecond, "")

	h := s.Start(context.Background())
	require.Eventually(t, func() bool { return r.calls.Load() >= 1 }, time.Second, time.Millisecond)

	h.Stop()
	assert.False(t, s.Running())

	h2 := s.Start(context.Background())
	defer s.Stop()
	assert.NotSame(t, h, h2)
	assert.True(t, s.Running())

	n := r.calls.Load()
	require.Eventually(t, func() bool { return r.calls.Load() >= n+2 }, time.Second, time.Millisecond)
}

func TestScheduler_ParentCancelClearsRunning(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(zap.NewNop(), r, time.Hour, "")

	ctx, cancel := context.WithCancel(context.Background())
	h := s.Start(ctx)
	cancel()
	<-h.Done()

	assert.False(t, s.Running())
}

func TestScheduler_FailuresDoNotStopTicking(t *testing.T) {
	r := &countingRefresher{err: errors.New("boom")}
	s := NewScheduler(zap.NewNop(), r, 5*time.Millisecond, "")

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestScheduler_Toggle(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(zap.NewNop(), r, time.Hour, "")

	assert.True(t, s.Toggle(context.Background()))
	assert.True(t, s.Running())
	assert.False(t, s.Toggle(context.Background()))
	assert.False(t, s.Running())
	assert.Equal(t, int32(0), r.calls.Load(), "starting does not refresh immediately")
}

func TestScheduler_StartTwiceReturnsSameHandle(t *testing.T) {
	s := NewScheduler(zap.NewNop(), &countingRefresher{}, time.Hour, "")
	defer s.Stop()

	a := s.Start(context.Background())
	b := s.Start(context.Background())
	assert.Same(t, a, b)
}

func TestScheduler_SetIntervalAppliesToRunningLoop(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(zap.NewNop(), r, time.Hour, "")
	s.Start(context.Background())
	defer s.Stop()

	s.SetInterval(5 * time.Millisecond)

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, s.Interval())
}

func TestScheduler_PauseFileSkipsTicks(t *testing.T) {
	pause := filepath.Join(t.TempDir(), "paused")
	require.NoError(t, os.WriteFile(pause, nil, 0o644))

	r := &countingRefresher{}
	s := NewScheduler(zap.NewNop(), r, 2*time.Millisecond, pause)
	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), r.calls.Load())
}

func TestScheduler_RunRefreshesImmediatelyAndStopsWithContext(t *testing.T) {
	r := &countingRefresher{}
	s := NewScheduler(zap.NewNop(), r, time.Hour, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, s.Running())
}
