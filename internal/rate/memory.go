package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: fixed window en proceso sobre go-cache, mismo esquema
// INCR+EXPIRE que el limiter de Redis. Para despliegues de una sola
// instancia (el default cuando no hay Redis).
type MemoryLimiter struct {
	mu sync.Mutex
	c  *gocache.Cache
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{c: gocache.New(gocache.NoExpiration, 5*time.Minute)}
}

func (m *MemoryLimiter) AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(window)
	ttl := winStart.Add(window).Sub(now)
	// la config va en la key: el mismo cliente puede tener presupuestos
	// distintos por endpoint
	k := fmt.Sprintf("%s|%d:%s|%d", key, limit, window, winStart.Unix())

	m.mu.Lock()
	var hits int64
	if err := m.c.Add(k, int64(1), ttl); err == nil {
		hits = 1
	} else {
		n, incErr := m.c.IncrementInt64(k, 1)
		if incErr != nil {
			// la ventana expiró entre el Add y el Increment
			m.c.Set(k, int64(1), ttl)
			n = 1
		}
		hits = n
	}
	m.mu.Unlock()

	max := int64(limit)
	allowed := hits <= max
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !allowed {
		res.RetryAfter = ttl
	}
	return res, nil
}
