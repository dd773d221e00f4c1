package kernel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/aodb/entitydb/internal/bitmask"
	"github.com/aodb/entitydb/internal/typeid"
)

// aoSlot pairs a type id with the attached object currently stored under it.
// A small vector of (type_id, pointer) pairs: a dense, fixed-size bitmap
// array would waste memory on the common case of an entity carrying a
// handful of attached objects out of hundreds of registered types.
type aoSlot struct {
	typeID typeid.ID
	obj    Object
}

// entityRecord is the per-entity storage: an always-present membership
// mask, the attached-object vector, and the
// writer/reader lock that arbitrates every operation against this one
// entity.
type entityRecord struct {
	mu    sync.RWMutex
	mask  bitmask.Mask
	objs  []aoSlot
	alive bool
	gen   uint32
	id    uint32

	strong int64 // atomic: strong refcount, 1 for the creating handle plus one per DuplicateTrackingReference
	weak   *weakCell
}

func (r *entityRecord) find(id typeid.ID) Object {
	for i := range r.objs {
		if r.objs[i].typeID == id {
			return r.objs[i].obj
		}
	}
	return nil
}

func (r *entityRecord) put(id typeid.ID, obj Object) {
	r.objs = append(r.objs, aoSlot{typeID: id, obj: obj})
}

func (r *entityRecord) replace(id typeid.ID, obj Object) {
	for i := range r.objs {
		if r.objs[i].typeID == id {
			r.objs[i].obj = obj
			return
		}
	}
}

func (r *entityRecord) removeSlot(id typeid.ID) {
	for i := range r.objs {
		if r.objs[i].typeID == id {
			r.objs = append(r.objs[:i], r.objs[i+1:]...)
			return
		}
	}
}

// weakCell is the shared target of every WeakRef to one entity; it is
// invalidated in place when the entity is destroyed so already-taken
// WeakRef values observe the change without re-indexing anything. token is
// an opaque diagnostic id, minted fresh on every allocation (including slot
// reuse), for logging an entity handle without exposing its raw (id,
// generation) pair.
type weakCell struct {
	mu    sync.Mutex
	e     Entity
	valid bool
	token uuid.UUID
}

func (c *weakCell) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// entityPool owns the generation-tagged free list of entity records, the
// ABA-safety mechanism behind every Entity handle: a stale (id, generation)
// pair no longer resolves to a live record once the slot has been reused.
type entityPool struct {
	mu      sync.Mutex
	bits    int
	records []*entityRecord
	free    []uint32
}

func newEntityPool(maskBits int) *entityPool {
	return &entityPool{bits: maskBits}
}

func (p *entityPool) alloc() *entityRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		rec := p.records[idx]
		rec.gen++
		rec.alive = true
		rec.objs = rec.objs[:0]
		rec.mask.Reset()
		rec.strong = 1
		rec.weak = &weakCell{valid: true, token: uuid.New()}
		rec.weak.e = Entity{id: rec.id, gen: rec.gen}
		return rec
	}
	rec := &entityRecord{id: uint32(len(p.records)), gen: 1, alive: true, strong: 1, mask: bitmask.New(p.bits)}
	rec.weak = &weakCell{valid: true, e: Entity{id: rec.id, gen: rec.gen}, token: uuid.New()}
	p.records = append(p.records, rec)
	return rec
}

func (p *entityPool) lookup(id, gen uint32) *entityRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(id) >= len(p.records) {
		return nil
	}
	rec := p.records[id]
	if !rec.alive || rec.gen != gen {
		return nil
	}
	return rec
}

func (p *entityPool) release(id uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, id)
}

func (p *entityPool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records) - len(p.free)
}
