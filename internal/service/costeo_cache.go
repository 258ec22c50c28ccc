package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"comandas/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CacheKeyCosteos holds the JSON of the last full costing listing.
const CacheKeyCosteos = "costeo:recetas"

// CosteoCache stores the costing listing in Redis behind a circuit breaker.
// A nil *CosteoCache, or one built without a client, behaves as a permanent
// miss so the services work unchanged without Redis.
type CosteoCache struct {
	rdb *redis.Client
	cb  *infra.CircuitBreaker
	ttl time.Duration
}

func NewCosteoCache(rdb *redis.Client, ttl time.Duration, cbCfg infra.CircuitBreakerConfig) *CosteoCache {
	if rdb == nil {
		return nil
	}
	if cbCfg.OnStateChange == nil {
		cbCfg.OnStateChange = logCacheState
	}
	return &CosteoCache{rdb: rdb, cb: infra.NewCircuitBreaker(cbCfg), ttl: ttl}
}

func logCacheState(from, to infra.CBState) {
	ev := log.Info()
	if to == infra.CBOpen {
		ev = log.Warn()
	}
	ev.Str("desde", from.String()).Str("hacia", to.String()).Msg("costeo: circuito de cache cambio de estado")
}

// Get decodes the cached value into dst and reports whether it was a hit.
// redis.Nil is a miss, not a breaker failure.
func (c *CosteoCache) Get(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	var raw []byte
	err := c.cb.Execute(func() error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		raw = b
		return err
	})
	if err != nil {
		c.logFailure(err, "lectura")
		return false
	}
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (c *CosteoCache) Set(ctx context.Context, key string, v any) {
	if c == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	err = c.cb.Execute(func() error {
		return c.rdb.Set(ctx, key, raw, c.ttl).Err()
	})
	if err != nil {
		c.logFailure(err, "escritura")
	}
}

// Invalidar always reaches Redis, even with the breaker open: a skipped
// delete would keep serving stale costs once Redis answers again.
func (c *CosteoCache) Invalidar(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("costeo: invalidacion de cache fallida")
	}
}

// Estado is the breaker state, or "disabled" without Redis.
func (c *CosteoCache) Estado() string {
	if c == nil {
		return "disabled"
	}
	return c.cb.State().String()
}

func (c *CosteoCache) logFailure(err error, op string) {
	if errors.Is(err, infra.ErrCircuitOpen) {
		log.Debug().Str("op", op).Msg("costeo: cache omitida, circuito abierto")
		return
	}
	log.Warn().Err(err).Str("op", op).Msg("costeo: operacion de cache fallida")
}
