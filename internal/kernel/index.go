package kernel

import (
	"sync"
	"sync/atomic"

	"github.com/aodb/entitydb/internal/typeid"
)

// typeIndex is the per-type dense array of live attached objects, one
// instance per registered type id, each guarded by its own reader/writer
// lock so unrelated types never contend.
type typeIndex struct {
	mu            sync.RWMutex
	items         []Object // holes left by removal are nil until Optimize compacts them
	deletionCount int64    // atomic, read without the lock for the "smallest index" heuristic
}

func (ti *typeIndex) insert(obj Object) int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.insertLocked(obj)
}

// insertLocked requires ti.mu to already be held for writing, used by
// ApplyChanges when it has taken every registered index's lock up front in
// ascending type-id order.
func (ti *typeIndex) insertLocked(obj Object) int {
	for i, existing := range ti.items {
		if existing == nil {
			ti.items[i] = obj
			return i
		}
	}
	ti.items = append(ti.items, obj)
	return len(ti.items) - 1
}

func (ti *typeIndex) removeAt(pos int) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.removeAtLocked(pos)
}

// removeAtLocked requires ti.mu to already be held for writing.
func (ti *typeIndex) removeAtLocked(pos int) {
	if pos < 0 || pos >= len(ti.items) {
		return
	}
	ti.items[pos] = nil
	atomic.AddInt64(&ti.deletionCount, 1)
}

func (ti *typeIndex) liveEstimate() int {
	ti.mu.RLock()
	n := len(ti.items)
	ti.mu.RUnlock()
	d := int(atomic.LoadInt64(&ti.deletionCount))
	if d > n {
		return 0
	}
	return n - d
}

// snapshot returns a copy of the live items under the read lock, the
// iteration domain ForEach/Query walk outside any index lock so user
// callbacks never run while holding one.
func (ti *typeIndex) snapshot() []Object {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	out := make([]Object, 0, len(ti.items))
	for _, o := range ti.items {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

// compact drops nil holes, preserving relative order and updating each
// kept object's index position, returning the number removed.
func (ti *typeIndex) compact() int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	kept := ti.items[:0]
	for _, o := range ti.items {
		if o != nil {
			o.base().index = int32(len(kept))
			kept = append(kept, o)
		}
	}
	removed := len(ti.items) - len(kept)
	ti.items = kept
	atomic.StoreInt64(&ti.deletionCount, 0)
	return removed
}

// entityIndex is the flat index of every live entity, used as ForEach's
// iteration domain when the per-type indices are disabled. While they are
// enabled ForEach never falls back to it, even when every argument type's
// index is empty.
type entityIndex struct {
	mu    sync.RWMutex
	items []Entity
	pos   map[uint64]int
}

func newEntityIndex() *entityIndex {
	return &entityIndex{pos: make(map[uint64]int)}
}

func entityKey(e Entity) uint64 { return uint64(e.gen)<<32 | uint64(e.id) }

func (ei *entityIndex) add(e Entity) {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	ei.pos[entityKey(e)] = len(ei.items)
	ei.items = append(ei.items, e)
}

func (ei *entityIndex) markRemoved(e Entity) {
	ei.mu.Lock()
	defer ei.mu.Unlock()
	if i, ok := ei.pos[entityKey(e)]; ok {
		ei.items[i] = Entity{}
		delete(ei.pos, entityKey(e))
	}
}

func (ei *entityIndex) snapshot() []Entity {
	ei.mu.RLock()
	defer ei.mu.RUnlock()
	out := make([]Entity, 0, len(ei.items))
	for _, e := range ei.items {
		if e.db != nil {
			out = append(out, e)
		}
	}
	return out
}

// pendingChange is one entry in the deferred-change queue: an attached
// object awaiting insertion into its per-type index, applied in FIFO order
// by ApplyChanges. Removal is never deferred — destroyAO removes an object
// from its index synchronously, since nothing downstream should be able to
// observe a half-destroyed object waiting in a queue.
type pendingChange struct {
	typeID typeid.ID
	obj    Object
}

// pendingQueue is the thread-safe FIFO holding attached objects created
// with the default (Delayed) flag until ApplyChanges drains the queue into
// the per-type indices.
type pendingQueue struct {
	mu      sync.Mutex
	entries []pendingChange
}

func (q *pendingQueue) enqueueInsert(id typeid.ID, obj Object) {
	q.mu.Lock()
	q.entries = append(q.entries, pendingChange{typeID: id, obj: obj})
	q.mu.Unlock()
}

func (q *pendingQueue) drain() []pendingChange {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	out := q.entries
	q.entries = nil
	return out
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
