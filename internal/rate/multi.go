package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// MultiRedisLimiter reutiliza un RedisLimiter por configuración (limit:window)
// para que cada endpoint pueda llevar su propio presupuesto sin abrir más
// conexiones.
type MultiRedisLimiter struct {
	client *rdb.Client
	prefix string

	mu       sync.RWMutex
	limiters map[string]*RedisLimiter
}

func NewMultiRedisLimiter(client *rdb.Client, prefix string) *MultiRedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &MultiRedisLimiter{
		client:   client,
		prefix:   prefix,
		limiters: make(map[string]*RedisLimiter),
	}
}

func (m *MultiRedisLimiter) AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	cfg := fmt.Sprintf("%d:%s", limit, window)

	m.mu.RLock()
	l, ok := m.limiters[cfg]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		l, ok = m.limiters[cfg]
		if !ok {
			l = NewRedisLimiter(m.client, m.prefix, limit, window)
			m.limiters[cfg] = l
		}
		m.mu.Unlock()
	}

	return l.Allow(ctx, key)
}
