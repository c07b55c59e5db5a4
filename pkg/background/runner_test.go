package background

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smartparking/pkg/logger"
)

func TestRunner_GoDoesNotBlockCaller(t *testing.T) {
	runner := NewRunner(time.Second, logger.Discard())
	release := make(chan struct{})

	start := time.Now()
	runner.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-release
		return nil
	})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("Go should return before the task completes")
	}

	close(release)
	if err := runner.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
}

func TestRunner_TaskSurvivesParentCancellation(t *testing.T) {
	runner := NewRunner(time.Second, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	var ranWithLiveCtx atomic.Bool
	started := make(chan struct{})
	runner.Go(ctx, "detached", func(taskCtx context.Context) error {
		<-started
		ranWithLiveCtx.Store(taskCtx.Err() == nil)
		return nil
	})

	cancel()
	close(started)
	_ = runner.Wait(context.Background())

	if !ranWithLiveCtx.Load() {
		t.Error("task context should not inherit the parent's cancellation")
	}
}

func TestRunner_TaskTimeout(t *testing.T) {
	runner := NewRunner(20*time.Millisecond, logger.Discard())

	var gotErr atomic.Value
	runner.Go(context.Background(), "timeout", func(ctx context.Context) error {
		<-ctx.Done()
		gotErr.Store(ctx.Err())
		return ctx.Err()
	})
	_ = runner.Wait(context.Background())

	if err, _ := gotErr.Load().(error); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRunner_LogsFailuresAndPanics(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf})
	runner := NewRunner(time.Second, log)

	runner.Go(context.Background(), "send-email", func(ctx context.Context) error {
		return errors.New("smtp unavailable")
	})
	runner.Go(context.Background(), "explode", func(ctx context.Context) error {
		panic("boom")
	})
	_ = runner.Wait(context.Background())

	out := buf.String()
	if !strings.Contains(out, "send-email") || !strings.Contains(out, "smtp unavailable") {
		t.Errorf("expected failure to be logged, got %s", out)
	}
	if !strings.Contains(out, "explode") {
		t.Errorf("expected panic to be logged, got %s", out)
	}
}

func TestRunner_WaitRespectsContext(t *testing.T) {
	runner := NewRunner(time.Second, logger.Discard())
	release := make(chan struct{})
	defer close(release)

	runner.Go(context.Background(), "stuck", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := runner.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRunner_FailureLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRunner(time.Second, logger.New(logger.Config{Output: &buf}))

	ctx := logger.ContextWithRequestID(context.Background(), "req-9")
	runner.Go(ctx, "notify-payment", func(context.Context) error {
		return errors.New("smtp: connection refused")
	})
	if err := runner.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if !strings.Contains(buf.String(), `"request_id":"req-9"`) {
		t.Errorf("expected failure log to carry the request id, got %s", buf.String())
	}
}

func TestRunner_GoAfterCloseIsDropped(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRunner(time.Second, logger.New(logger.Config{Output: &buf}))

	if err := runner.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ran := make(chan struct{}, 1)
	runner.Go(context.Background(), "late-notify", func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	if err := runner.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	select {
	case <-ran:
		t.Fatal("expected task handed to a closed runner not to run")
	default:
	}
	if !strings.Contains(buf.String(), "Background task dropped") || !strings.Contains(buf.String(), "late-notify") {
		t.Errorf("expected dropped task to be logged, got %s", buf.String())
	}
}

func TestRunner_WaitIsReusable(t *testing.T) {
	runner := NewRunner(time.Second, logger.Discard())

	var count atomic.Int32
	for round := 0; round < 3; round++ {
		runner.Go(context.Background(), "tick", func(context.Context) error {
			count.Add(1)
			return nil
		})
		if err := runner.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if got := count.Load(); got != int32(round+1) {
			t.Fatalf("round %d: expected %d tasks done, got %d", round, round+1, got)
		}
	}
}

func TestRunner_GoConcurrentWithClose(t *testing.T) {
	runner := NewRunner(time.Second, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Go(context.Background(), "burst", func(context.Context) error { return nil })
		}()
	}
	if err := runner.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	wg.Wait()
}
