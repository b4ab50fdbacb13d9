package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	got, err := Do(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 2, BaseDelay: time.Millisecond}

	calls := 0
	_, err := Do(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, errors.New("always failing")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDoPermanentErrorShortCircuits(t *testing.T) {
	cfg := Config{MaxAttempts: 5, BaseDelay: time.Millisecond}

	calls := 0
	sentinel := errors.New("bad request")
	_, err := Do(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, Permanent(sentinel)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want wrapped sentinel", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent)", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	cfg := Config{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, cfg, func() (int, error) {
		return 0, errors.New("transient")
	})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
