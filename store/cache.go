package store

import (
	"container/list"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nicia-ai/typegraph/compiler"
)

// statementCache is the bounded LRU of compiled statements spec §5 names
// ("a bounded LRU keyed by builder identity, safe for concurrent
// lookup"), keyed here by cacheKey: query.Fingerprint's structural plan
// hash plus a hash of the dialect and the full query value, since the same
// AST compiles to different SQL text per backend. Grounded on the container/list + map LRU pattern used
// elsewhere in the pack's query-plan caches; singleflight.Group collapses
// concurrent first-compiles of the same key into one Compile call, so a
// cache-miss stampede under concurrent load does the planning work once.
type statementCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	maxSize int

	group singleflight.Group
}

type cacheEntry struct {
	key      string
	compiled *compiler.Compiled
}

func newStatementCache(maxSize int) *statementCache {
	return &statementCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// getOrCompile returns the cached *compiler.Compiled for key, compiling it
// via fn on a miss. fn is invoked at most once per key even under
// concurrent callers.
func (c *statementCache) getOrCompile(key string, fn func() (*compiler.Compiled, error)) (*compiler.Compiled, error) {
	if c.maxSize <= 0 {
		return fn()
	}

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		compiled := elem.Value.(*cacheEntry).compiled
		c.mu.Unlock()
		return compiled, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		compiled, err := fn()
		if err != nil {
			return nil, err
		}
		c.put(key, compiled)
		return compiled, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiler.Compiled), nil
}

func (c *statementCache) put(key string, compiled *compiler.Compiled) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).compiled = compiled
		c.order.MoveToFront(elem)
		return
	}
	elem := c.order.PushFront(&cacheEntry{key: key, compiled: compiled})
	c.entries[key] = elem
	for c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *statementCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order = list.New()
}
