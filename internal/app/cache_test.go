package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLocalCache builds a cache in local mode, no redis involved
func newLocalCache(t *testing.T) *QueryCache {
	cfg := &Config{}
	cfg.Cache.TTLSeconds = 60

	cache, err := NewQueryCache(cfg)
	require.NoError(t, err)
	return cache
}

func TestCacheMissThenHit(t *testing.T) {
	cache := newLocalCache(t)
	defer cache.Close()
	ctx := context.Background()

	var fills int32
	fill := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&fills, 1)
		return map[string]int{"count": 42}, nil
	}

	var first map[string]int
	require.NoError(t, cache.Fetch(ctx, SummaryKey("john.doe"), &first, fill))
	assert.Equal(t, 42, first["count"])

	var second map[string]int
	require.NoError(t, cache.Fetch(ctx, SummaryKey("john.doe"), &second, fill))
	assert.Equal(t, 42, second["count"])

	assert.Equal(t, int32(1), atomic.LoadInt32(&fills), "second fetch should be served from cache")
}

func TestCacheKeysAreOwnerScoped(t *testing.T) {
	cache := newLocalCache(t)
	defer cache.Close()
	ctx := context.Background()

	fillFor := func(v int) func(context.Context) (interface{}, error) {
		return func(context.Context) (interface{}, error) { return v, nil }
	}

	var a, b int
	require.NoError(t, cache.Fetch(ctx, SemestersKey("john.doe"), &a, fillFor(1)))
	require.NoError(t, cache.Fetch(ctx, SemestersKey("jane.doe"), &b, fillFor(2)))

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestCacheInflightSharing(t *testing.T) {
	cache := newLocalCache(t)
	defer cache.Close()
	ctx := context.Background()

	var fills int32
	entered := make(chan struct{})
	release := make(chan struct{})
	fill := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&fills, 1)
		close(entered)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, cache.Fetch(ctx, "slow:key", &results[0], fill))
	}()

	// second reader joins only after the first fill is in flight
	<-entered
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, cache.Fetch(ctx, "slow:key", &results[1], func(context.Context) (interface{}, error) {
			atomic.AddInt32(&fills, 1)
			return "should not run", nil
		}))
	}()

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fills))
	assert.Equal(t, "shared", results[0])
	assert.Equal(t, "shared", results[1])
}

func TestCacheInvalidate(t *testing.T) {
	cache := newLocalCache(t)
	defer cache.Close()
	ctx := context.Background()

	version := 1
	fill := func(context.Context) (interface{}, error) { return version, nil }

	var got int
	require.NoError(t, cache.Fetch(ctx, SubjectsKey("john.doe", "sem-1"), &got, fill))
	assert.Equal(t, 1, got)

	version = 2
	cache.Invalidate(ctx, SubjectsKey("john.doe", "sem-1"))

	require.NoError(t, cache.Fetch(ctx, SubjectsKey("john.doe", "sem-1"), &got, fill))
	assert.Equal(t, 2, got)
}

func TestCacheStaleFillDiscarded(t *testing.T) {
	cache := newLocalCache(t)
	defer cache.Close()
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	staleFill := func(context.Context) (interface{}, error) {
		close(entered)
		<-release
		return "stale", nil
	}

	done := make(chan string, 1)
	go func() {
		var v string
		if err := cache.Fetch(ctx, "record:key", &v, staleFill); err != nil {
			done <- "error"
			return
		}
		done <- v
	}()

	// invalidate while the fill is still running
	<-entered
	cache.Invalidate(ctx, "record:key")
	close(release)

	// the caller still gets the value it computed
	assert.Equal(t, "stale", <-done)

	// but it must not have been written back
	var fresh string
	require.NoError(t, cache.Fetch(ctx, "record:key", &fresh, func(context.Context) (interface{}, error) {
		return "fresh", nil
	}))
	assert.Equal(t, "fresh", fresh)
}

func TestCacheFillRetriesOnce(t *testing.T) {
	cache := newLocalCache(t)
	defer cache.Close()
	ctx := context.Background()

	var attempts int32
	fill := func(context.Context) (interface{}, error) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return nil, errors.New("transient failure")
		}
		return "ok", nil
	}

	var got string
	require.NoError(t, cache.Fetch(ctx, "flaky:key", &got, fill))
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestCacheFillErrorPropagates(t *testing.T) {
	cache := newLocalCache(t)
	defer cache.Close()
	ctx := context.Background()

	boom := errors.New("database is down")
	var attempts int32
	fill := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, boom
	}

	var got string
	err := cache.Fetch(ctx, "broken:key", &got, fill)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts), "one retry, then give up")
}
