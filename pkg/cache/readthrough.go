package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load once it is detached from its callers.
const DefaultLoadTimeout = 30 * time.Second

// ReadThrough loads values through a Cache. Concurrent misses on the same key
// share one load. Cache errors are logged and treated as misses.
type ReadThrough struct {
	cache       Cache
	group       singleflight.Group
	log         *zap.Logger
	loadTimeout time.Duration
	// generation moves on every Invalidate. A load that observes a change
	// does not store its result.
	generation atomic.Uint64
}

func NewReadThrough(c Cache, log *zap.Logger) *ReadThrough {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReadThrough{cache: c, log: log.Named("cache"), loadTimeout: DefaultLoadTimeout}
}

func (rt *ReadThrough) Cache() Cache {
	return rt.cache
}

// Invalidate deletes every listed prefix. It stops at the first failure so the
// caller can refuse to report success while stale entries may remain.
//
// Loads already running in this process skip their write. Loads running in
// another process sharing a redis backend can still store a pre-invalidation
// value, which then lives until its TTL.
func (rt *ReadThrough) Invalidate(ctx context.Context, prefixes ...string) error {
	rt.generation.Add(1)
	for _, p := range prefixes {
		if err := rt.cache.DeletePrefix(ctx, p); err != nil {
			rt.log.Error("prefix delete failed", zap.String("prefix", p), zap.Error(err))
			return err
		}
	}
	return nil
}

// Fetch returns the cached value for key or runs load and stores its result.
func Fetch[T any](ctx context.Context, rt *ReadThrough, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	return FetchIf(ctx, rt, key, ttl, load, nil)
}

// FetchIf is Fetch with a filter: a loaded value is only stored when
// cacheable reports true. A nil cacheable stores every value.
//
// The load runs detached from the caller's cancellation, bounded by the load
// timeout, so one caller giving up does not fail the others waiting on the
// same key. A cancelled caller returns its own context error.
func FetchIf[T any](ctx context.Context, rt *ReadThrough, key string, ttl time.Duration, load func(ctx context.Context) (T, error), cacheable func(T) bool) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if raw, ok, err := rt.cache.Get(ctx, key); err != nil {
		rt.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		rt.log.Warn("cache entry undecodable", zap.String("key", key))
	}

	ch := rt.group.DoChan(key, func() (any, error) {
		gen := rt.generation.Load()
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.loadTimeout)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if cacheable != nil && !cacheable(v) {
			return v, nil
		}
		if rt.generation.Load() != gen {
			rt.log.Debug("invalidated during load, not storing", zap.String("key", key))
			return v, nil
		}
		if raw, err := json.Marshal(v); err != nil {
			rt.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		} else if err := rt.cache.Set(loadCtx, key, raw, ttl); err != nil {
			rt.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
