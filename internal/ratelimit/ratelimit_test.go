package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestJitterDurationBounds(t *testing.T) {
	j := NewJitterWithSource(func(n int64) int64 { return n - 1 }, nil)
	if got := j.Duration(2*time.Second, 4*time.Second); got != 4*time.Second {
		t.Errorf("max draw = %v, want 4s", got)
	}

	j = NewJitterWithSource(func(n int64) int64 { return 0 }, nil)
	if got := j.Duration(2*time.Second, 4*time.Second); got != 2*time.Second {
		t.Errorf("min draw = %v, want 2s", got)
	}

	if got := j.Duration(3*time.Second, time.Second); got != 3*time.Second {
		t.Errorf("inverted range = %v, want 3s", got)
	}
}

func TestJitterPauseUsesSleeper(t *testing.T) {
	var slept time.Duration
	j := NewJitterWithSource(
		func(n int64) int64 { return int64(500 * time.Millisecond) },
		func(ctx context.Context, d time.Duration) error { slept = d; return nil },
	)
	if err := j.Pause(context.Background(), time.Second, 2*time.Second); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if slept != 1500*time.Millisecond {
		t.Errorf("slept %v, want 1.5s", slept)
	}
}

func TestJitterPauseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := NewJitter().Pause(ctx, time.Minute, 2*time.Minute); err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled pause should return immediately")
	}
}

func TestSleepCtxInterrupted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := sleepCtx(ctx, time.Minute); err != context.DeadlineExceeded {
		t.Errorf("sleepCtx err = %v, want deadline exceeded", err)
	}
}

func TestDomainLimiterPerHost(t *testing.T) {
	dl := NewDomainLimiter(1, 1)

	if !dl.Allow("https://generativelanguage.googleapis.com/v1beta/models") {
		t.Fatal("first call should be allowed")
	}
	if dl.Allow("https://generativelanguage.googleapis.com/v1beta/other") {
		t.Error("second call to the same host should be throttled")
	}
	if !dl.Allow("https://example.com/") {
		t.Error("a different host has its own bucket")
	}
	if !dl.Allow("::not a url") {
		t.Error("unparseable URLs are not throttled")
	}
}

func TestDomainLimiterWaitHonoursContext(t *testing.T) {
	dl := NewDomainLimiter(0.001, 1)
	url := "https://api.example.com/x"
	if err := dl.Wait(context.Background(), url); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := dl.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail when the bucket cannot refill before the deadline")
	}
}
