package kernel

import (
	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/assert"
	"github.com/aodb/entitydb/internal/typeid"
)

// Require declares that self depends on a sibling T attached to the same
// entity, creating it (with seed, or a zero value if seed is nil) if it
// isn't already present. Preconditions: the caller holds the owning
// entity's writer lock — true whenever Require is called from a
// Constructor.OnConstruct hook, since that hook runs inside Add/Require's
// already-held lock.
func Require[T any, PT interface {
	*T
	Object
	access.RequireableRight
}](self Object, seed PT, flags ...CreateFlags) PT {
	b := self.base()
	targetID := typeid.Of[T]()
	checkRequireMatrix(b.db, b.typeID, targetID)

	if existing := b.rec.find(targetID); existing != nil {
		assert.Require(existing != poisoned, assert.DependencyCycle,
			"require<%s>: target is mid-construction (dependency cycle)", typeid.Name(targetID))
		tb := existing.base()
		assert.Require(!tb.flags.has(flagAuthorizedDestruction), assert.DependencyCycle,
			"require<%s>: target is already being destroyed (dependency cycle)", typeid.Name(targetID))
		tb.requiredCount++
		b.requirements.Set(int(targetID))
		return existing.(PT)
	}

	flag := Delayed
	if len(flags) > 0 {
		flag = flags[0]
	}
	created := createAO[T, PT](b.owner, b.rec, targetID, flag, seed)
	created.base().requiredCount++
	b.requirements.Set(int(targetID))
	return created
}

// Unrequire releases self's dependency on T, destroying it if no other
// lifetime root remains. Preconditions: the caller holds the owning
// entity's writer lock.
func Unrequire[T any](self Object) {
	b := self.base()
	targetID := typeid.Of[T]()
	assert.Require(b.requirements.IsSet(int(targetID)), assert.LifetimeViolation,
		"unrequire<%s>: not currently required by this object", typeid.Name(targetID))
	obj := b.rec.find(targetID)
	assert.Require(obj != nil, assert.LifetimeViolation, "unrequire<%s>: target is gone", typeid.Name(targetID))
	b.requirements.Unset(int(targetID))
	if obj == poisoned {
		return // target never finished constructing; nothing left to release
	}
	tb := obj.base()
	tb.requiredCount--
	assert.Require(tb.requiredCount >= 0, assert.RefcountUnderflow, "unrequire<%s>: required_count underflow", typeid.Name(targetID))
	if tb.destroyable() {
		destroyAO(b.rec, obj, false)
	}
}

// IsRequired reports whether self currently requires a T, a safe check with
// no assertion even mid-construction.
func IsRequired[T any](self Object) bool {
	return self.base().requirements.IsSet(int(typeid.Of[T]()))
}

// GetRequired returns the T that self declared with Require. Preconditions:
// self must actually require T (check with IsRequired first if that isn't
// statically known) — calling this otherwise is a programming error.
func GetRequired[T any, PT interface {
	*T
	Object
}](self Object) PT {
	b := self.base()
	targetID := typeid.Of[T]()
	assert.Require(b.requirements.IsSet(int(targetID)), assert.LifetimeViolation,
		"get_required<%s>: not required by this object", typeid.Name(targetID))
	obj := b.rec.find(targetID)
	assert.Require(obj != nil && obj != poisoned, assert.PartialConstructionAccess,
		"get_required<%s>: target missing or still under construction", typeid.Name(targetID))
	return obj.(PT)
}

// GetUnsafe fetches a sibling T without going through the requirement
// graph: self need not require T, and nothing prevents T's owning object
// from disappearing out from under the returned pointer on a later call.
// Gated on access.UnsafeGettableRight precisely because it bypasses the
// dependency bookkeeping that otherwise keeps a fetched pointer valid.
func GetUnsafe[T any, PT interface {
	*T
	Object
	access.UnsafeGettableRight
}](self Object) (PT, bool) {
	b := self.base()
	targetID := typeid.Of[T]()
	obj := b.rec.find(targetID)
	if obj == nil {
		var zero PT
		return zero, false
	}
	assert.Require(obj != poisoned, assert.PartialConstructionAccess,
		"get_unsafe<%s>: target is under construction (dependency cycle?)", typeid.Name(targetID))
	return obj.(PT), true
}

// ObjectHas reports whether the entity owning self also has a
// fully-constructed T attached, the attached-object-level counterpart of
// Has. It never asserts: a poisoned entry reads as absent.
func ObjectHas[T any](self Object) bool {
	obj := self.base().rec.find(typeid.Of[T]())
	return obj != nil && obj != poisoned
}

// CreateSelf brings a T into existence on e under the automanaged lifetime
// root: the type governs its own teardown via SelfDestruct rather than via
// external add/remove or a requirement edge. Preconditions: the caller
// holds e's writer lock.
func CreateSelf[T any, PT interface {
	*T
	Object
	access.Automanaged
}](e Entity, seed PT) PT {
	rec := e.rec()
	targetID := typeid.Of[T]()
	if existing := rec.find(targetID); existing != nil {
		assert.Require(existing != poisoned, assert.PartialConstructionAccess,
			"create_self<%s>: entity is mid-construction for this type", typeid.Name(targetID))
		eb := existing.base()
		eb.flags |= flagAutomanaged
		return existing.(PT)
	}
	created := createAO[T, PT](e, rec, targetID, Delayed, seed)
	created.base().flags |= flagAutomanaged
	return created
}

// SelfDestruct releases the automanaged lifetime root self holds on
// itself, destroying it if no requirement edge keeps it alive.
// Preconditions: the caller holds the owning entity's writer lock.
func SelfDestruct[T any](self Object) {
	b := self.base()
	assert.Require(b.flags.has(flagAutomanaged), assert.LifetimeViolation,
		"self_destruct<%s>: type is not automanaged", typeid.Name(b.typeID))
	b.flags &^= flagAutomanaged
	if b.destroyable() {
		destroyAO(b.rec, self, false)
	}
}

func checkRequireMatrix(db *DB, callerID, targetID typeid.ID) {
	if db.matrix == nil {
		return
	}
	callerType := typeid.MustInfo(callerID).GoType
	targetType := typeid.MustInfo(targetID).GoType
	assert.Require(db.matrix.AllowsRequire(targetType, callerType), assert.CapabilityViolation,
		"require: %s is not permitted to require %s under this database's access matrix", callerType, targetType)
}

// DestroyEntity unconditionally destroys e and every attached object still
// on it, ignoring externally_added, automanaged and required_count roots —
// an explicit teardown, as opposed to Release's refcount-gated teardown.
// The caller must not already hold e's lock:
// unlike Add/Remove/Require, DestroyEntity manages e's writer lock itself
// since it is tearing down the whole record, not one attached object on it.
func (db *DB) DestroyEntity(e Entity) { db.destroyEntity(e) }

// destroyEntity force-destroys every attached object still on e regardless
// of its lifetime roots, then retires the entity record. It is the only
// caller that passes forced=true to destroyAO: visiting a slot an earlier
// object's own unwind already destroyed is expected here, not a cycle.
func (db *DB) destroyEntity(e Entity) {
	rec := e.rec()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Require(rec.alive, assert.LifetimeViolation, "destroying an already-destroyed entity")

	for {
		var next Object
		for i := range rec.objs {
			if rec.objs[i].obj != nil && rec.objs[i].obj != poisoned {
				next = rec.objs[i].obj
				break
			}
		}
		if next == nil {
			break
		}
		nb := next.base()
		nb.flags &^= flagExternallyAdded | flagAutomanaged
		destroyAO(rec, next, true)
	}

	rec.alive = false
	rec.weak.invalidate()
	if db.entityIdx != nil {
		db.entityIdx.markRemoved(e)
	}
	db.entities.release(e.id)
	db.metrics.entityDestroyed()
}
