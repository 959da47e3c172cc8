package expr

import "sync"

// Cache memoizes parsed expressions by source text. It is safe for
// concurrent use.
type Cache struct {
	mu    sync.RWMutex
	exprs map[string]Expr
}

// Parse returns the cached expression for src, parsing it on first use.
// Parse errors are not cached.
func (c *Cache) Parse(src string) (Expr, error) {
	c.mu.RLock()
	e, ok := c.exprs[src]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}

	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.exprs == nil {
		c.exprs = make(map[string]Expr)
	}
	c.exprs[src] = e
	c.mu.Unlock()
	return e, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.exprs)
}
