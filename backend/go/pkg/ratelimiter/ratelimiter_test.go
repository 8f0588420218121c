package ratelimiter

import (
	"testing"
	"time"
)

func TestTokenBucket_BurstUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(0.001, 3)
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if tb.Allow() {
		t.Error("request beyond capacity should be rejected")
	}
}

func TestFixedWindowCounter_ResetsAfterWindow(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFixedWindowCounter(2, time.Minute)
	f.now = func() time.Time { return now }
	f.windowStart = now

	if !f.Allow() || !f.Allow() {
		t.Fatal("first two requests should be allowed")
	}
	if f.Allow() {
		t.Error("third request in the same window should be rejected")
	}

	now = now.Add(time.Minute)
	if !f.Allow() {
		t.Error("request in a new window should be allowed")
	}
}
