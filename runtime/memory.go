package aruntime

import (
	"sync"

	"github.com/gosuda/algofr/ast"
)

type variable struct {
	name  string
	typ   ast.DataType
	value Value
}

// frame is one scope in the arena. Frame 0 holds the program's globals;
// every call pushes a frame whose parent is the caller's frame.
type frame struct {
	parent int
	vars   map[string]*variable
	order  []string
}

// memory is an arena of frames addressed by index. Lookups walk parent links
// from the current frame down to the globals, so a call body sees (and may
// write) every name its callers see, while its parameters shadow them until
// the frame is popped.
type memory struct {
	mu     sync.Mutex
	frames []frame
	cur    int
}

func newMemory() *memory {
	return &memory{frames: []frame{{parent: -1, vars: map[string]*variable{}}}}
}

func (m *memory) push() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, frame{parent: m.cur, vars: map[string]*variable{}})
	m.cur = len(m.frames) - 1
}

func (m *memory) pop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == 0 {
		return
	}
	parent := m.frames[m.cur].parent
	m.frames = m.frames[:m.cur]
	m.cur = parent
}

func (m *memory) depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames) - 1
}

func (m *memory) lookupLocked(name string) *variable {
	for i := m.cur; i >= 0; i = m.frames[i].parent {
		if v, ok := m.frames[i].vars[name]; ok {
			return v
		}
	}
	return nil
}

// define binds name in the current frame, replacing any binding there.
func (m *memory) define(name string, typ ast.DataType, v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fr := &m.frames[m.cur]
	if _, ok := fr.vars[name]; !ok {
		fr.order = append(fr.order, name)
	}
	fr.vars[name] = &variable{name: name, typ: typ, value: v}
}

func (m *memory) get(name string) (ast.DataType, Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.lookupLocked(name)
	if v == nil {
		return ast.Unknown, Value{}, false
	}
	return v.typ, v.value, true
}

func (m *memory) set(name string, val Value) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.lookupLocked(name)
	if v == nil {
		return false
	}
	v.value = val
	return true
}

// snapshot flattens the visible bindings, globals first, with inner frames
// overriding outer ones in place. Lists are deep-copied.
func (m *memory) snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var chain []int
	for i := m.cur; i >= 0; i = m.frames[i].parent {
		chain = append(chain, i)
	}
	var out Snapshot
	pos := map[string]int{}
	for k := len(chain) - 1; k >= 0; k-- {
		fr := m.frames[chain[k]]
		for _, name := range fr.order {
			v := fr.vars[name]
			b := Binding{Name: v.name, Type: v.typ, Value: v.value.Clone()}
			if i, ok := pos[name]; ok {
				out[i] = b
				continue
			}
			pos[name] = len(out)
			out = append(out, b)
		}
	}
	return out
}

// Binding is one visible variable at the time of a snapshot.
type Binding struct {
	Name  string
	Type  ast.DataType
	Value Value
}

// Snapshot lists the visible variables in declaration order.
type Snapshot []Binding

func (s Snapshot) Lookup(name string) (Binding, bool) {
	for _, b := range s {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// Map returns the snapshot keyed by name, values converted for encoding.
func (s Snapshot) Map() map[string]any {
	out := make(map[string]any, len(s))
	for _, b := range s {
		out[b.Name] = map[string]any{"type": string(b.Type), "value": b.Value.Interface()}
	}
	return out
}
