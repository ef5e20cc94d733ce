package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiket-dev/dispatch/ratelimit"
)

func TestAllowWithinLimit(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 5; i++ {
		if !l.Allow("log_event", 5) {
			t.Fatalf("call %d denied within burst", i)
		}
	}
}

func TestAllowExhaustsBucket(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 3; i++ {
		l.Allow("notify", 3)
	}
	if l.Allow("notify", 3) {
		t.Error("call allowed after bucket exhausted")
	}
}

func TestZeroMeansUnlimited(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 1000; i++ {
		if !l.Allow("anything", 0) {
			t.Fatal("unlimited key denied")
		}
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 2; i++ {
		l.Allow("a", 2)
	}
	if l.Allow("a", 2) {
		t.Error("exhausted key still allowed")
	}
	if !l.Allow("b", 2) {
		t.Error("fresh key denied")
	}
}

func TestReset(t *testing.T) {
	l := ratelimit.New()

	for i := 0; i < 2; i++ {
		l.Allow("metrics", 2)
	}
	l.Reset("metrics")
	if !l.Allow("metrics", 2) {
		t.Error("reset key should start with a full bucket")
	}
}

func TestWaitCancelled(t *testing.T) {
	l := ratelimit.New()
	// Exhaust the bucket so Wait has to block.
	l.Allow("slow", 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "slow", 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestWaitRefills(t *testing.T) {
	l := ratelimit.New()
	l.Allow("refill", 50)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// At 50/s a token appears within ~20ms.
	if err := l.Wait(ctx, "refill", 50); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}
