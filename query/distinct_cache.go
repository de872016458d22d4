package query

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DistinctCache memoizes distinct-value lists per filter dimension. The
// selector dropdowns re-request the same dimensions on every render, and
// recomputing them walks the whole store; entries key on the store
// generation so any mutation invalidates naturally.
type DistinctCache struct {
	cache *lru.Cache[string, []string]
}

// NewDistinctCache creates a cache holding up to size dimension results
func NewDistinctCache(size int) (*DistinctCache, error) {
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating distinct cache: %w", err)
	}
	return &DistinctCache{cache: c}, nil
}

// Get returns the cached values for the dimension at the given store
// generation, or false if absent.
func (d *DistinctCache) Get(dimension string, generation uint64) ([]string, bool) {
	return d.cache.Get(cacheKey(dimension, generation))
}

// Put stores the values for the dimension at the given store generation
func (d *DistinctCache) Put(dimension string, generation uint64, values []string) {
	d.cache.Add(cacheKey(dimension, generation), values)
}

func cacheKey(dimension string, generation uint64) string {
	return fmt.Sprintf("%s@%d", dimension, generation)
}
