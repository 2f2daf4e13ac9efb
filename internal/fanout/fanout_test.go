package fanout_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/palantir/compute-module-people-directory/internal/fanout"
)

func TestRun_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	items := []int{5, 4, 3, 2, 1}
	fn := func(_ context.Context, n int) (int, error) {
		// Later items finish first.
		time.Sleep(time.Duration(n) * 5 * time.Millisecond)
		return n * 10, nil
	}

	out, err := fanout.Run(context.Background(), items, fn, fanout.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(out))
	}
	for i, r := range out {
		if r.Input != items[i] || r.Output != items[i]*10 || r.Err != nil {
			t.Fatalf("unexpected out[%d]: %#v", i, r)
		}
	}
}

func TestRun_FailureIsIsolated(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fn := func(_ context.Context, s string) (string, error) {
		calls.Add(1)
		if s == "bad" {
			return "", errors.New("boom")
		}
		return "ok:" + s, nil
	}

	out, err := fanout.Run(context.Background(), []string{"a", "bad", "c"}, fn, fanout.Options{MaxConcurrency: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if out[0].Err != nil || out[0].Output != "ok:a" {
		t.Fatalf("unexpected out[0]: %#v", out[0])
	}
	if out[1].Err == nil || out[1].Err.Error() != "boom" {
		t.Fatalf("unexpected out[1]: %#v", out[1])
	}
	if out[2].Err != nil || out[2].Output != "ok:c" {
		t.Fatalf("unexpected out[2]: %#v", out[2])
	}
}

func TestRun_RunsConcurrently(t *testing.T) {
	t.Parallel()

	const n = 8
	const delay = 100 * time.Millisecond
	fn := func(ctx context.Context, _ int) (struct{}, error) {
		select {
		case <-time.After(delay):
			return struct{}{}, nil
		case <-ctx.Done():
			return struct{}{}, ctx.Err()
		}
	}

	start := time.Now()
	out, err := fanout.Run(context.Background(), make([]int, n), fn, fanout.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed >= n*delay/2 {
		t.Fatalf("expected overlapping tasks, took %s", elapsed)
	}
	for i, r := range out {
		if r.Err != nil {
			t.Fatalf("unexpected out[%d] error: %v", i, r.Err)
		}
	}
}

func TestRun_MaxConcurrencyBoundsInFlight(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	fn := func(_ context.Context, _ int) (int, error) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	}

	if _, err := fanout.Run(context.Background(), make([]int, 12), fn, fanout.Options{MaxConcurrency: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 in flight, saw %d", peak.Load())
	}
}

func TestRun_TimeoutIsPerTask(t *testing.T) {
	t.Parallel()

	fn := func(ctx context.Context, slow bool) (string, error) {
		if !slow {
			return "fast", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	}

	out, err := fanout.Run(context.Background(), []bool{false, true, false}, fn, fanout.Options{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Err != nil || out[2].Err != nil {
		t.Fatalf("fast tasks should succeed: %#v", out)
	}
	if !errors.Is(out[1].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded for slow task, got %v", out[1].Err)
	}
}

func TestRun_IgnoredDeadlineStillFails(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, _ int) (int, error) {
		time.Sleep(30 * time.Millisecond)
		return 1, nil
	}
	out, err := fanout.Run(context.Background(), []int{0}, fn, fanout.Options{Timeout: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(out[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", out[0].Err)
	}
}

func TestRun_CancelledParent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	fn := func(_ context.Context, _ int) (int, error) {
		calls.Add(1)
		return 0, nil
	}
	out, err := fanout.Run(ctx, []int{1, 2}, fn, fanout.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(out) != 2 || calls.Load() != 0 {
		t.Fatalf("expected no calls and 2 slots, got calls=%d out=%#v", calls.Load(), out)
	}
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	out, err := fanout.Run(context.Background(), nil, func(context.Context, int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	}, fanout.Options{})
	if err != nil || len(out) != 0 {
		t.Fatalf("unexpected result: out=%#v err=%v", out, err)
	}
}

func TestRun_RateLimit(t *testing.T) {
	t.Parallel()

	fn := func(_ context.Context, _ int) (int, error) { return 0, nil }
	start := time.Now()
	// Burst 1 at 50 rps: 4 tasks need at least ~60ms.
	if _, err := fanout.Run(context.Background(), make([]int, 4), fn, fanout.Options{RateLimitRPS: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("rate limit not applied, took %s", elapsed)
	}
}

func TestRun_RateLimitWaitDoesNotCountAgainstTimeout(t *testing.T) {
	t.Parallel()

	fn := func(ctx context.Context, n int) (int, error) {
		select {
		case <-time.After(time.Millisecond):
			return n, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	// 10 tasks at 20 rps queue for ~450ms, well past the 200ms per-task timeout.
	out, err := fanout.Run(context.Background(), []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, fn,
		fanout.Options{Timeout: 200 * time.Millisecond, RateLimitRPS: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range out {
		if r.Err != nil {
			t.Fatalf("result[%d]: fast task failed after waiting on the limiter: %v", i, r.Err)
		}
		if r.Output != i {
			t.Fatalf("result[%d]: want %d, got %d", i, i, r.Output)
		}
	}
}
