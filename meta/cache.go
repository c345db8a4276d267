package meta

import (
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache holds one Model per context type for a mapping source. Concurrent
// first requests for the same context build a single model.
type Cache struct {
	source Source
	opts   []Option
	group  singleflight.Group

	mu     sync.RWMutex
	models map[reflect.Type]*Model
	ids    map[reflect.Type]uint64 // singleflight keys
}

// NewCache returns a Cache building models from src with opts.
func NewCache(src Source, opts ...Option) *Cache {
	return &Cache{source: src, opts: opts, models: make(map[reflect.Type]*Model), ids: make(map[reflect.Type]uint64)}
}

// Model returns the model of the context type ctx, building it on first
// use. Failed builds are not cached.
func (c *Cache) Model(ctx reflect.Type) (*Model, error) {
	ctx = indirect(ctx)
	c.mu.RLock()
	m, ok := c.models[ctx]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}
	v, err, _ := c.group.Do(c.flightKey(ctx), func() (any, error) {
		c.mu.RLock()
		m, ok := c.models[ctx]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}
		m, err := New(ctx, c.source, c.opts...)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.models[ctx] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// Forget drops the model of ctx, so the next request rebuilds it, for
// example after the mapping document changed.
func (c *Cache) Forget(ctx reflect.Type) {
	c.mu.Lock()
	delete(c.models, indirect(ctx))
	c.mu.Unlock()
}

// Reset drops every model.
func (c *Cache) Reset() {
	c.mu.Lock()
	clear(c.models)
	c.mu.Unlock()
}

// flightKey returns a key unique to ctx. Type names are not unique:
// function-local types of one package share PkgPath and String.
func (c *Cache) flightKey(ctx reflect.Type) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[ctx]
	if !ok {
		id = uint64(len(c.ids)) + 1
		c.ids[ctx] = id
	}
	return strconv.FormatUint(id, 10)
}
