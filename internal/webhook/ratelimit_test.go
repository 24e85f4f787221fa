package webhook

import (
	"context"
	"testing"

	"vida_smart_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeWebhookConfig struct{}

func (fakeWebhookConfig) GetEvolutionWebhookSecret() string  { return "test-secret" }
func (fakeWebhookConfig) GetWebhookRegisteredPerMinute() int { return 10 }
func (fakeWebhookConfig) GetWebhookAnonymousPerMinute() int  { return 3 }

func newTestLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRateLimiter(rdb, fakeWebhookConfig{}, logger.New("test")), mr
}

func TestRateLimiterAnonymousBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "+5511999990000", false) {
			t.Fatalf("message %d should be allowed", i+1)
		}
	}
	if limiter.Allow(ctx, "+5511999990000", false) {
		t.Error("4th anonymous message in the window should be denied")
	}
}

func TestRateLimiterRegisteredBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if !limiter.Allow(ctx, "+5511999990000", true) {
			t.Fatalf("message %d should be allowed for a registered user", i+1)
		}
	}
	if limiter.Allow(ctx, "+5511999990000", true) {
		t.Error("11th registered message in the window should be denied")
	}
}

func TestRateLimiterIsolatedPerPhone(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Allow(ctx, "+5511999990000", false)
	}
	if !limiter.Allow(ctx, "+5511888880000", false) {
		t.Error("a different phone must have its own budget")
	}
}

func TestRateLimiterWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Allow(ctx, "+5511999990000", false)
	}
	if limiter.Allow(ctx, "+5511999990000", false) {
		t.Fatal("budget should be exhausted")
	}

	mr.FastForward(2 * rateLimitWindow)
	if !limiter.Allow(ctx, "+5511999990000", false) {
		t.Error("budget should reset after the window passes")
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRateLimiter(rdb, fakeWebhookConfig{}, logger.New("test"))
	mr.Close()

	if !limiter.Allow(context.Background(), "+5511999990000", false) {
		t.Error("backend failure must not block messages")
	}

	var nilLimiter *RateLimiter
	if !nilLimiter.Allow(context.Background(), "+5511999990000", false) {
		t.Error("nil limiter must allow everything")
	}
}
