package rules

import "sync"

// ProgramCache stores compiled expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapCache is a ProgramCache backed by a mutex guarded map. It never evicts,
// which suits long-lived engines with a bounded expression set.
type MapCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

var _ ProgramCache = (*MapCache)(nil)

// NewMapCache constructs an empty cache.
func NewMapCache() *MapCache {
	return &MapCache{
		programs: make(map[string]any),
	}
}

func (c *MapCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *MapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.programs == nil {
		c.programs = make(map[string]any)
	}
	c.programs[key] = value
}
