package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"depenses/internal/log"
)

type countingSaver struct {
	calls   atomic.Int32
	trigger atomic.Value
	err     error
	block   chan struct{}
}

func (s *countingSaver) Save(ctx context.Context, trigger string) error {
	s.calls.Add(1)
	s.trigger.Store(trigger)
	if s.block != nil {
		<-s.block
	}
	return s.err
}

func quietLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestAutosaver_SavesPeriodically(t *testing.T) {
	saver := &countingSaver{}
	a := NewAutosaver(saver, time.Second, "autosave", quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	waitFor(t, 3*time.Second, func() bool { return saver.calls.Load() >= 1 })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := saver.trigger.Load(); got != "autosave" {
		t.Fatalf("trigger = %v", got)
	}
}

func TestAutosaver_KeepsRunningAfterFailure(t *testing.T) {
	saver := &countingSaver{err: errors.New("store unavailable")}
	a := NewAutosaver(saver, time.Second, "autosave", quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = a.Run(ctx) }()

	waitFor(t, 4*time.Second, func() bool { return saver.calls.Load() >= 2 })
}

func TestAutosaver_SkipsOverlappingRuns(t *testing.T) {
	saver := &countingSaver{block: make(chan struct{})}
	a := NewAutosaver(saver, time.Second, "autosave", quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	waitFor(t, 3*time.Second, func() bool { return saver.calls.Load() == 1 })
	time.Sleep(2500 * time.Millisecond)
	if got := saver.calls.Load(); got != 1 {
		t.Fatalf("overlapping run started: %d calls", got)
	}
	cancel()
	close(saver.block)
	<-done
}
