package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestIntervalSpacesRequests(t *testing.T) {
	l := NewInterval(50 * time.Millisecond)

	if !l.Allow() {
		t.Fatal("Expected first request to be allowed")
	}
	if l.Allow() {
		t.Error("Expected second immediate request to be denied")
	}

	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Expected Wait to block for roughly the interval, blocked %v", elapsed)
	}
}

func TestZeroIntervalNeverBlocks(t *testing.T) {
	l := NewInterval(0)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := NewInterval(time.Hour)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Expected Wait to fail when the context cannot outlive the interval")
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if err := Unlimited().Wait(cancelled); err == nil {
		t.Error("Expected unlimited Wait to report a cancelled context")
	}
}

func TestNewPerMinuteBurst(t *testing.T) {
	l := NewPerMinute(60, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Errorf("Expected burst request %d to be allowed", i+1)
		}
	}
	if l.Allow() {
		t.Error("Expected request beyond burst to be denied")
	}
}
