// internal/app/cache.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/unitel-app/unitel/internal/metrics"
)

// Cache key scheme: one logical key per entity collection, plus the summary.
func SemestersKey(owner string) string { return "semesters:" + owner }
func SubjectsKey(owner, semesterID string) string {
	return "subjects:" + owner + ":" + semesterID
}
func AttendanceKey(owner, semesterID string) string {
	return "attendance:" + owner + ":" + semesterID
}
func MarksKey(owner, semesterID string) string { return "marks:" + owner + ":" + semesterID }
func SummaryKey(owner string) string { return "summary:" + owner }

type fetchCall struct {
	done chan struct{}
	data []byte
	err  error
}

// QueryCache caches list/summary query results as JSON under logical keys.
// Concurrent readers of the same key share one in-flight fill; fills run
// under a timeout with a single retry; a fill superseded by Invalidate is
// discarded instead of written back. Backed by Redis when configured,
// otherwise by a process-local map (tests run against the local mode).
type QueryCache struct {
	redis        *redis.Client
	ttl          time.Duration
	fetchTimeout time.Duration

	mu          sync.Mutex
	local       map[string][]byte
	inflight    map[string]*fetchCall
	generations map[string]uint64
}

func NewQueryCache(config *Config) (*QueryCache, error) {
	c := &QueryCache{
		ttl:          time.Duration(config.Cache.TTLSeconds) * time.Second,
		fetchTimeout: time.Duration(config.Cache.FetchTimeoutMS) * time.Millisecond,
		local:        make(map[string][]byte),
		inflight:     make(map[string]*fetchCall),
		generations:  make(map[string]uint64),
	}
	if c.ttl == 0 {
		c.ttl = 5 * time.Minute
	}
	if c.fetchTimeout == 0 {
		c.fetchTimeout = 5 * time.Second
	}

	if config.Cache.RedisURL == "" {
		logger.Debug.Println("Cache redis_url not set, using in-process cache")
		return c, nil
	}

	opt, err := redis.ParseURL(config.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to cache redis: %w", err)
	}
	c.redis = client

	return c, nil
}

func (c *QueryCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// Fetch unmarshals the cached value for key into dest, calling fill on a
// miss. fill runs at most twice (timeout + one retry); no further retries,
// the caller decides whether to try again.
func (c *QueryCache) Fetch(ctx context.Context, key string, dest interface{}, fill func(context.Context) (interface{}, error)) error {
	if data, ok := c.lookup(ctx, key); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return json.Unmarshal(data, dest)
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	c.mu.Lock()
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if call.err != nil {
			return call.err
		}
		return json.Unmarshal(call.data, dest)
	}

	call := &fetchCall{done: make(chan struct{})}
	c.inflight[key] = call
	generation := c.generations[key]
	c.mu.Unlock()

	call.data, call.err = c.runFill(ctx, fill)

	c.mu.Lock()
	delete(c.inflight, key)
	stale := c.generations[key] != generation
	c.mu.Unlock()
	close(call.done)

	if call.err != nil {
		return call.err
	}
	if !stale {
		c.put(ctx, key, call.data)
	}
	return json.Unmarshal(call.data, dest)
}

func (c *QueryCache) runFill(ctx context.Context, fill func(context.Context) (interface{}, error)) ([]byte, error) {
	attempt := func() ([]byte, error) {
		fillCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()

		value, err := fill(fillCtx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	}

	data, err := attempt()
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	logger.Debug.Printf("Cache fill failed, retrying once: %v", err)
	return attempt()
}

// Invalidate drops the given keys and marks any in-flight fill for them as
// stale so its result will not be written back.
func (c *QueryCache) Invalidate(ctx context.Context, keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		c.generations[key]++
		delete(c.local, key)
	}
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		logger.Error.Printf("Failed to invalidate cache keys %v: %v", keys, err)
	}
}

func (c *QueryCache) lookup(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		data, ok := c.local[key]
		return data, ok
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Error.Printf("Cache lookup failed for %s: %v", key, err)
		return nil, false
	}
	return data, true
}

func (c *QueryCache) put(ctx context.Context, key string, data []byte) {
	if c.redis == nil {
		c.mu.Lock()
		c.local[key] = data
		c.mu.Unlock()
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Error.Printf("Cache store failed for %s: %v", key, err)
	}
}
