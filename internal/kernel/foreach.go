package kernel

import (
	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/typeid"
)

// IterResult is returned by a ForEach callback to control iteration.
type IterResult int

const (
	// Continue visits the next matching entity.
	Continue IterResult = iota
	// Stop ends iteration immediately.
	Stop
)

// domainPick chooses which of the supplied type ids has the fewest live
// entries in its per-type index, so multi-type ForEach iterates the
// smallest candidate set, and reports false when the attached-object
// indices are disabled, signaling the caller to fall back to the flat
// entity index.
func domainPick(db *DB, ids ...typeid.ID) (typeid.ID, bool) {
	if !db.cfg.UseAttachedObjectDB {
		return typeid.Invalid, false
	}
	best := typeid.Invalid
	bestLive := -1
	for _, id := range ids {
		live := db.typeIndexFor(id).liveEstimate()
		if bestLive == -1 || live < bestLive {
			best, bestLive = id, live
		}
	}
	return best, true
}

// entityCandidates returns the entities ForEach should visit: either the
// snapshot of the smallest-domain per-type index's owners, or, when the
// per-type indices are unavailable, every live entity from the flat entity
// index.
func entityCandidates(db *DB, ids ...typeid.ID) []Entity {
	if domainID, ok := domainPick(db, ids...); ok {
		items := db.typeIndexFor(domainID).snapshot()
		out := make([]Entity, 0, len(items))
		for _, obj := range items {
			out = append(out, obj.base().owner)
		}
		return out
	}
	if db.entityIdx != nil {
		return db.entityIdx.snapshot()
	}
	return nil
}

// lockAndFind acquires e's reader lock exactly once and resolves every id
// in ids against its current attached-object vector. It reports ok=false,
// already having released the lock, if e is gone or any requested type is
// missing, poisoned (mid-construction) or already authorized for
// destruction — the "for_each silently skips" half of the poisoned-pointer
// protocol, distinct from Get's fatal half. On success the caller owns the
// lock and must call the returned release func exactly once.
func lockAndFind(e Entity, ids []typeid.ID) (objs []Object, release func(), ok bool) {
	rec := e.db.entities.lookup(e.id, e.gen)
	if rec == nil {
		return nil, nil, false
	}
	rec.mu.RLock()
	found := make([]Object, len(ids))
	for i, id := range ids {
		o := rec.find(id)
		if o == nil || o == poisoned || o.base().flags.has(flagAuthorizedDestruction) {
			rec.mu.RUnlock()
			return nil, nil, false
		}
		found[i] = o
	}
	return found, rec.mu.RUnlock, true
}

// ForEach1 visits every live entity carrying a T1. Go's lack of variadic
// generics bounds this family to 1-4 type parameters, the same ceiling
// lazyecs documents for its own Query/ForEach family. The callback runs
// with the entity's reader lock held, so it must not call
// Lock/Add/Remove/Require on the same entity.
func ForEach1[T1 any, PT1 interface {
	*T1
	Object
	access.QueryableRight
}](db *DB, fn func(Entity, PT1) IterResult) {
	ids := []typeid.ID{typeid.Of[T1]()}
	for _, e := range entityCandidates(db, ids...) {
		objs, release, ok := lockAndFind(e, ids)
		if !ok {
			continue
		}
		res := fn(e, objs[0].(PT1))
		release()
		if res == Stop {
			return
		}
	}
}

// ForEach2 visits every live entity carrying both a T1 and a T2.
func ForEach2[T1, T2 any, PT1 interface {
	*T1
	Object
	access.QueryableRight
}, PT2 interface {
	*T2
	Object
	access.QueryableRight
}](db *DB, fn func(Entity, PT1, PT2) IterResult) {
	ids := []typeid.ID{typeid.Of[T1](), typeid.Of[T2]()}
	for _, e := range entityCandidates(db, ids...) {
		objs, release, ok := lockAndFind(e, ids)
		if !ok {
			continue
		}
		res := fn(e, objs[0].(PT1), objs[1].(PT2))
		release()
		if res == Stop {
			return
		}
	}
}

// ForEach3 visits every live entity carrying a T1, T2 and T3.
func ForEach3[T1, T2, T3 any, PT1 interface {
	*T1
	Object
	access.QueryableRight
}, PT2 interface {
	*T2
	Object
	access.QueryableRight
}, PT3 interface {
	*T3
	Object
	access.QueryableRight
}](db *DB, fn func(Entity, PT1, PT2, PT3) IterResult) {
	ids := []typeid.ID{typeid.Of[T1](), typeid.Of[T2](), typeid.Of[T3]()}
	for _, e := range entityCandidates(db, ids...) {
		objs, release, ok := lockAndFind(e, ids)
		if !ok {
			continue
		}
		res := fn(e, objs[0].(PT1), objs[1].(PT2), objs[2].(PT3))
		release()
		if res == Stop {
			return
		}
	}
}

// ForEach4 visits every live entity carrying a T1, T2, T3 and T4 — the
// widest arity this package supports; a query needing more types should
// compose several narrower ForEach calls or scan Query[T1]'s result set by
// hand, the same ceiling lazyecs' own ForEach family documents.
func ForEach4[T1, T2, T3, T4 any, PT1 interface {
	*T1
	Object
	access.QueryableRight
}, PT2 interface {
	*T2
	Object
	access.QueryableRight
}, PT3 interface {
	*T3
	Object
	access.QueryableRight
}, PT4 interface {
	*T4
	Object
	access.QueryableRight
}](db *DB, fn func(Entity, PT1, PT2, PT3, PT4) IterResult) {
	ids := []typeid.ID{typeid.Of[T1](), typeid.Of[T2](), typeid.Of[T3](), typeid.Of[T4]()}
	for _, e := range entityCandidates(db, ids...) {
		objs, release, ok := lockAndFind(e, ids)
		if !ok {
			continue
		}
		res := fn(e, objs[0].(PT1), objs[1].(PT2), objs[2].(PT3), objs[3].(PT4))
		release()
		if res == Stop {
			return
		}
	}
}
