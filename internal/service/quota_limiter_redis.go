package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisQuotaAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// redisQuotaLimiter cuenta requests de contenido por consumidor en una ventana
// fija. INCR+EXPIRE corren en un script para que el primer request arme el TTL
// sin carrera.
type redisQuotaLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisQuotaLimiter(client *redis.Client, window time.Duration, max int) QuotaLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	if max <= 0 {
		max = 1
	}
	return &redisQuotaLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "quota:content:",
	}
}

func (l *redisQuotaLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.TrimSpace(key)
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	redisKey := l.prefix + normalizedKey
	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = int((24 * time.Hour).Seconds())
	}
	count, err := l.client.Eval(ctx, redisQuotaAllowScript, []string{redisKey}, seconds).Int()
	if err != nil {
		// Fail-open: la cuota nunca debe tumbar el request por un problema de redis.
		return true
	}
	return count <= l.max
}
