// Package slab implements the typed slab allocator: one durable pool and
// one transient pool per attached-object type, offering fast fixed-size
// allocate/deallocate that is safe to call concurrently across different
// type ids without serialization.
//
// Go's allocator always zeroes memory it hands out, so Alloc's return value
// is always zero-valued on first mint; the free-list reuse discipline
// (freed slots are recycled rather than returned to the general-purpose
// allocator) still avoids repeated allocation churn for hot types.
package slab

import (
	"sync"

	"github.com/aodb/entitydb/internal/typeid"
)

// Manager owns the per-type durable and transient pools for one database
// instance. Different type ids never contend on the same lock: each gets
// its own *pool[T] the first time it is touched, and the Manager's top-level
// maps are sync.Maps so looking one up never blocks a concurrent lookup for
// a different type id.
type Manager struct {
	durable   sync.Map // typeid.ID -> *pool[T] (erased)
	transient sync.Map
}

// NewManager returns a ready-to-use Manager.
func NewManager() *Manager {
	return &Manager{}
}

type pool[T any] struct {
	mu   sync.Mutex
	free []*T
}

func (p *pool[T]) alloc() *T {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		obj := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return obj
	}
	return new(T)
}

func (p *pool[T]) free_(obj *T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, obj)
}

func poolFor[T any](m *sync.Map, id typeid.ID) *pool[T] {
	if v, ok := m.Load(id); ok {
		return v.(*pool[T])
	}
	p := &pool[T]{}
	actual, _ := m.LoadOrStore(id, p)
	return actual.(*pool[T])
}

// Alloc returns a *T from the durable or transient pool for id, reusing a
// freed slot when one is available.
func Alloc[T any](m *Manager, id typeid.ID, transient bool) *T {
	target := &m.durable
	if transient {
		target = &m.transient
	}
	return poolFor[T](target, id).alloc()
}

// Free returns obj to the durable or transient pool for id so a later Alloc
// for the same (id, transient) pair can reuse it.
func Free[T any](m *Manager, id typeid.ID, transient bool, obj *T) {
	target := &m.durable
	if transient {
		target = &m.transient
	}
	poolFor[T](target, id).free_(obj)
}
