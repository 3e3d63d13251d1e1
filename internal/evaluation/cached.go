package evaluation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"evokit/internal/genome"
)

// Cached memoises fitness by genome fingerprint. It relies on the evaluator
// being pure with respect to genome content.
type Cached struct {
	inner  Evaluator
	cache  *cache.Cache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps inner. A zero ttl keeps entries for the lifetime of the cache.
func NewCached(inner Evaluator, ttl time.Duration) (*Cached, error) {
	if inner == nil {
		return nil, errors.New("cached evaluator requires an inner evaluator")
	}
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &Cached{
		inner: inner,
		cache: cache.New(expiration, cleanup),
	}, nil
}

func (c *Cached) Evaluate(ctx context.Context, g genome.Genome) (float64, error) {
	key := g.Fingerprint()
	if v, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return v.(float64), nil
	}
	c.misses.Add(1)
	value, err := c.inner.Evaluate(ctx, g)
	if err != nil {
		return 0, err
	}
	c.cache.SetDefault(key, value)
	return value, nil
}

// EvaluateMany only forwards cache misses, batching them when the inner
// evaluator supports it.
func (c *Cached) EvaluateMany(ctx context.Context, genomes []genome.Genome) ([]float64, error) {
	out := make([]float64, len(genomes))
	missIdx := make([]int, 0, len(genomes))
	missing := make([]genome.Genome, 0, len(genomes))
	firstByKey := make(map[string]int)
	dupOf := make(map[int]int)

	for i, g := range genomes {
		key := g.Fingerprint()
		if v, ok := c.cache.Get(key); ok {
			c.hits.Add(1)
			out[i] = v.(float64)
			continue
		}
		if first, ok := firstByKey[key]; ok {
			c.hits.Add(1)
			dupOf[i] = first
			continue
		}
		c.misses.Add(1)
		firstByKey[key] = i
		missIdx = append(missIdx, i)
		missing = append(missing, g)
	}

	if len(missing) > 0 {
		var values []float64
		if batch, ok := c.inner.(BatchEvaluator); ok {
			var err error
			values, err = batch.EvaluateMany(ctx, missing)
			if err != nil {
				return nil, err
			}
		} else {
			values = make([]float64, len(missing))
			for i, g := range missing {
				v, err := c.inner.Evaluate(ctx, g)
				if err != nil {
					return nil, err
				}
				values[i] = v
			}
		}
		if len(values) != len(missing) {
			return nil, errors.New("inner evaluator returned a short batch")
		}
		for j, idx := range missIdx {
			out[idx] = values[j]
			c.cache.SetDefault(missing[j].Fingerprint(), values[j])
		}
	}
	for i, first := range dupOf {
		out[i] = out[first]
	}
	return out, nil
}

func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
