package server

import (
	"sync"

	"github.com/segmentio/fasthash/fnv1a"

	"github.com/gosuda/algofr/ast"
	"github.com/gosuda/algofr/parser"
)

type cachedProgram struct {
	source string
	prog   *ast.Program
}

// programCache keeps parsed programs keyed by the fnv1a hash of their source.
// Programs are never mutated by the interpreter, so one tree may serve
// concurrent runs. The cache is dropped whole when it fills up.
type programCache struct {
	mu    sync.Mutex
	max   int
	items map[uint64]cachedProgram
}

func newProgramCache(max int) *programCache {
	return &programCache{max: max, items: map[uint64]cachedProgram{}}
}

func (c *programCache) parse(src string) (*ast.Program, error) {
	if c.max == 0 {
		return parser.Parse(src)
	}
	key := fnv1a.HashString64(src)
	c.mu.Lock()
	if it, ok := c.items[key]; ok && it.source == src {
		c.mu.Unlock()
		return it.prog, nil
	}
	c.mu.Unlock()

	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if len(c.items) >= c.max {
		c.items = map[uint64]cachedProgram{}
	}
	c.items[key] = cachedProgram{source: src, prog: prog}
	c.mu.Unlock()
	return prog, nil
}

func (c *programCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
