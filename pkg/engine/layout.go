package engine

import (
	"context"
	"encoding/json"
	"maps"
	"time"

	"github.com/matzehuels/mindweave/pkg/cache"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/layout"
	"github.com/matzehuels/mindweave/pkg/observability"
)

// Layout computes positions with alg and writes them to the map. Nodes the
// user placed by hand keep their position unless relayoutFloating is set,
// in which case they are laid out too and stop floating. It returns the
// positions actually written.
//
// The computation runs on a copy of the hierarchy without holding the
// engine lock. Results are cached by outline and configuration, and
// concurrent calls for the same key share one computation.
func (e *Engine) Layout(ctx context.Context, alg layout.Algorithm, cfg layout.Config, relayoutFloating bool) (layout.Positions, error) {
	pos, err := e.ComputeLayout(ctx, alg, cfg)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	written := make(layout.Positions, len(pos))
	for id, p := range pos {
		n, ok := e.store.Node(id)
		if !ok || (n.Floating && !relayoutFloating) {
			continue
		}
		if err := e.store.PlaceNode(id, p); err != nil {
			return nil, err
		}
		written[id] = p
	}
	e.version++
	e.logger.Debug("layout applied", "algorithm", alg, "nodes", len(written), "skipped", len(pos)-len(written))
	return written, nil
}

// ComputeLayout returns positions for the current hierarchy without
// writing them to the map.
func (e *Engine) ComputeLayout(ctx context.Context, alg layout.Algorithm, cfg layout.Config) (layout.Positions, error) {
	if alg == "" {
		alg = layout.Default
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	outline := layout.NewOutline(e.store)
	nodes := e.store.Len()
	e.mu.RUnlock()
	return e.computeLayout(ctx, outline, nodes, alg, cfg)
}

// computeLayout returns positions for outline, from the cache when possible.
func (e *Engine) computeLayout(ctx context.Context, outline layout.Outline, nodes int, alg layout.Algorithm, cfg layout.Config) (layout.Positions, error) {
	hash, err := cache.HashJSON(outline)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash outline")
	}
	key := e.keyer.LayoutKey(hash, cache.LayoutKeyOpts{Algorithm: string(alg), Config: cfg})

	v, err, shared := e.layouts.Do(key, func() (any, error) {
		if data, ok, err := e.cache.Get(ctx, key); err != nil {
			e.logger.Warn("layout cache read failed", "key", key, "err", err)
		} else if ok {
			var pos layout.Positions
			if err := json.Unmarshal(data, &pos); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return pos, nil
			}
			e.logger.Warn("discarding corrupt layout cache entry", "key", key)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")

		hooks := observability.Engine()
		hooks.OnLayoutStart(ctx, string(alg), nodes)
		start := time.Now()
		pos, err := layout.Apply(outline, alg, cfg)
		hooks.OnLayoutComplete(ctx, string(alg), time.Since(start), err)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(pos)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
		}
		if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
			e.logger.Warn("layout cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
		return pos, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("layout computation shared", "algorithm", alg)
	}
	// Callers write into the result, so never hand out the shared map.
	return maps.Clone(v.(layout.Positions)), nil
}
