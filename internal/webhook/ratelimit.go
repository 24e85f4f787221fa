package webhook

import (
	"context"
	"strconv"
	"time"

	"vida_smart_backend/platform/config"
	"vida_smart_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimiter enforces a per-phone rolling window in Redis. Registered
// users get a higher budget than anonymous senders. Redis failures never
// block a message (fail-open).
type RateLimiter struct {
	rdb        *redis.Client
	registered int
	anonymous  int
	log        *logger.Logger
}

// NewRateLimiter creates the limiter from webhook config.
func NewRateLimiter(rdb *redis.Client, cfg config.WebhookConfig, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:        rdb,
		registered: cfg.GetWebhookRegisteredPerMinute(),
		anonymous:  cfg.GetWebhookAnonymousPerMinute(),
		log:        log,
	}
}

// Allow records one message for the phone and reports whether it fits in
// the current window.
func (l *RateLimiter) Allow(ctx context.Context, phone string, isRegistered bool) bool {
	if l == nil || l.rdb == nil {
		return true
	}

	limit := l.anonymous
	if isRegistered {
		limit = l.registered
	}

	key := "webhook:ratelimit:" + phone
	now := time.Now()
	windowStart := now.Add(-rateLimitWindow)

	if err := l.rdb.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10)).Err(); err != nil {
		l.log.Warn("rate limit backend error, allowing message", "error", err)
		return true
	}

	count, err := l.rdb.ZCard(ctx, key).Result()
	if err != nil {
		l.log.Warn("rate limit backend error, allowing message", "error", err)
		return true
	}
	if count >= int64(limit) {
		l.log.RateLimitExceeded(phone, "/api/v1/webhook/evolution")
		return false
	}

	member := redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	}
	if err := l.rdb.ZAdd(ctx, key, member).Err(); err != nil {
		l.log.Warn("rate limit backend error, allowing message", "error", err)
		return true
	}
	l.rdb.Expire(ctx, key, 2*rateLimitWindow)

	return true
}

// LimitMessage is the Portuguese notice sent when the limit is hit.
func LimitMessage(isRegistered bool) string {
	base := "⏸️ Você está enviando mensagens muito rápido.\n\n" +
		"Por favor, aguarde 1 minuto antes de continuar.\n\n"
	if isRegistered {
		return base + "💡 Usuários cadastrados têm limite maior (10 msgs/min)."
	}
	return base + "💡 Cadastre-se no app para ter limite maior!"
}
