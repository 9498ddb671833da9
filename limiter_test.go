package sitekit

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewRateLimiter(2, 200*time.Millisecond)
	key := "203.0.113.10"

	if !limiter.Allow(key) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.Allow(key) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.Allow(key) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewRateLimiter(1, 150*time.Millisecond)
	key := "203.0.113.20"

	if !limiter.Allow(key) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if limiter.Allow(key) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(key) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestRateLimiterIsPerKey(t *testing.T) {
	limiter := NewRateLimiter(1, 200*time.Millisecond)

	if !limiter.Allow("203.0.113.30|post-1") {
		t.Fatalf("expected first key to be allowed")
	}
	if !limiter.Allow("203.0.113.30|post-2") {
		t.Fatalf("expected second key to be allowed independently")
	}
	if limiter.Allow("203.0.113.30|post-1") {
		t.Fatalf("expected first key to be blocked after max")
	}
}

func TestRateLimiterCheckDoesNotConsume(t *testing.T) {
	limiter := NewRateLimiter(1, 200*time.Millisecond)
	key := "203.0.113.40"

	if !limiter.Check(key) {
		t.Fatalf("expected budget before any record")
	}
	if !limiter.Check(key) {
		t.Fatalf("Check must not consume budget")
	}
	limiter.Record(key)
	if limiter.Check(key) {
		t.Fatalf("expected no budget after record")
	}
}
