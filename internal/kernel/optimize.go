package kernel

import (
	"context"
	"sync/atomic"

	"github.com/aodb/entitydb/internal/taskpool"
)

// Optimize compacts every per-type index whose deletion count exceeds the
// database's configured threshold (or every index, if force is true).
// Indices are locked and compacted one at a time in ascending type-id
// order, serialized against any concurrent ApplyChanges via the same
// applyMu.
func (db *DB) Optimize(force bool) {
	db.applyMu.Lock()
	defer db.applyMu.Unlock()
	_, indices := db.allTypeIndicesSorted()
	for _, ti := range indices {
		if force || ti.liveDeletionCount() > db.cfg.OptimizeThreshold {
			ti.compact()
		}
	}
}

// OptimizeParallel is the concurrent counterpart of Optimize, spawning one
// taskpool task per eligible per-type index via internal/taskpool, used
// here because per-type indices never share state and so need no
// cross-task dependency.
func (db *DB) OptimizeParallel(ctx context.Context, pool taskpool.Pool, force bool) error {
	db.applyMu.Lock()
	defer db.applyMu.Unlock()
	_, indices := db.allTypeIndicesSorted()
	for _, ti := range indices {
		if !force && ti.liveDeletionCount() <= db.cfg.OptimizeThreshold {
			continue
		}
		target := ti
		pool.Spawn("optimize", func(ctx context.Context) error {
			target.compact()
			return nil
		})
	}
	return pool.Wait()
}

func (ti *typeIndex) liveDeletionCount() int64 {
	return atomic.LoadInt64(&ti.deletionCount)
}
