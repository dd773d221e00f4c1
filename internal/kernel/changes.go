package kernel

import (
	"slices"

	"github.com/aodb/entitydb/internal/typeid"
)

// ApplyChanges drains the pending-changes queue into the per-type indices.
// It holds every registered type's index writer lock for its duration —
// not just the indices touched by this batch — in ascending type-id order,
// the same lock-ordering discipline Optimize uses so the two can never
// deadlock against each other. A type whose first objects arrive in this
// batch gets its index created and locked after that sweep, once the queue
// has been drained. Locking the full set, rather than only the
// touched subset, matches the unconditional "lock all db" sweep the
// original implementation performs before draining its pending queue.
func (db *DB) ApplyChanges() {
	db.applyMu.Lock()
	defer db.applyMu.Unlock()

	ids, indices := db.allTypeIndicesSorted()
	for _, ti := range indices {
		ti.mu.Lock()
	}
	defer func() {
		for i := len(indices) - 1; i >= 0; i-- {
			indices[i].mu.Unlock()
		}
	}()

	entries := db.pending.drain()
	if len(entries) == 0 {
		return
	}

	byType := make(map[typeid.ID][]Object, len(entries))
	for _, e := range entries {
		byType[e.typeID] = append(byType[e.typeID], e.obj)
	}
	for id := range byType {
		if !slices.Contains(ids, id) {
			// first batch for this type: its index did not exist yet when
			// the locks above were taken
			ti := db.typeIndexFor(id)
			ti.mu.Lock()
			ids, indices = append(ids, id), append(indices, ti)
		}
	}

	for i, id := range ids {
		ti := indices[i]
		for _, obj := range byType[id] {
			b := obj.base()
			if b.flags.has(flagAuthorizedDestruction) {
				continue // created then destroyed again before this batch ran
			}
			pos := ti.insertLocked(obj)
			b.index = int32(pos)
			b.flags |= flagInIndex
		}
	}
	db.metrics.changesApplied(len(entries))
}

// PendingCount reports how many creations are waiting for the next
// ApplyChanges, useful for a caller deciding when to flush.
func (db *DB) PendingCount() int { return db.pending.len() }
