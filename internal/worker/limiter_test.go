package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "gw.vnexpress.net"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "vnexpress.net"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	host := "gw.vnexpress.net"

	if err := limiter.Wait(ctx, host); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1 is consumed
	if limiter.Allow(host) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if !limiter.Allow("vnexpress.net") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	host := "gw.vnexpress.net"
	_ = limiter.Wait(context.Background(), host)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, host); err == nil {
		t.Error("expected wait to fail when the next token is beyond the deadline")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("gw.vnexpress.net") {
			t.Fatalf("expected unlimited limiter to allow request %d", i)
		}
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	host := "slow.example"

	limiter.SetHostRate(host, 0.1, 1)

	if !limiter.Allow(host) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow(host) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("fast.example") {
		t.Errorf("other host should pass")
	}
}
