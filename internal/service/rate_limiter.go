package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter limita la frecuencia de intentos por clave.
type RateLimiter interface {
	Allow(key string) bool
}

// normalizeLimiterKey deja la clave en minúsculas y sin espacios; una clave
// vacía nunca pasa, para que un request malformado no comparta contador con
// otro.
func normalizeLimiterKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

type memoryRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewMemoryRateLimiter crea un rate limiter en memoria. Sirve como fallback
// cuando no hay Redis configurado; no coordina entre instancias.
func NewMemoryRateLimiter(window time.Duration, max int) RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *memoryRateLimiter) Allow(key string) bool {
	key = normalizeLimiterKey(key)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}

// attemptCountScript incrementa el contador de la clave y le fija TTL en el
// primer intento de la ventana, todo en una sola ida a Redis. El contador
// expira solo; no hace falta limpieza aparte.
const attemptCountScript = `local n = redis.call("INCR", KEYS[1])
if n == 1 then redis.call("EXPIRE", KEYS[1], ARGV[1]) end
return n`

// scriptRunner es el subconjunto del cliente de Redis que necesita el
// throttle; mantenerlo chico permite un mock trivial en tests.
type scriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisThrottle struct {
	rdb    scriptRunner
	window time.Duration
	max    int
	prefix string
}

// NewRedisRateLimiter crea un rate limiter respaldado en Redis, compartido
// entre instancias del servidor.
func NewRedisRateLimiter(client *redis.Client, window time.Duration, max int) RateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisThrottle{
		rdb:    client,
		window: window,
		max:    max,
		prefix: "signin:rl:",
	}
}

func (t *redisThrottle) Allow(key string) bool {
	if t == nil || t.rdb == nil {
		return true
	}
	key = normalizeLimiterKey(key)
	if key == "" {
		return false
	}

	ttl := int(t.window.Seconds())
	if ttl <= 0 {
		ttl = 60
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	attempts, err := t.rdb.Eval(ctx, attemptCountScript, []string{t.prefix + key}, ttl).Int()
	if err != nil {
		// Ante una falla de Redis se abre el paso; el bcrypt sigue siendo
		// el costo dominante del signin.
		return true
	}
	return attempts <= t.max
}
