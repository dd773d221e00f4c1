package kernel

import (
	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/assert"
	"github.com/aodb/entitydb/internal/bitmask"
	"github.com/aodb/entitydb/internal/slab"
	"github.com/aodb/entitydb/internal/typeid"
)

// Add attaches a new T to e with the external-API lifetime root held.
// Preconditions: the caller holds e's writer lock (see Entity.Lock). If T
// is already attached without the external root (for example through a
// sibling's Require), Add grants it that root rather than constructing a
// second instance; adding a T whose external root is already held is a
// fatal lifetime_violation.
func Add[T any, PT interface {
	*T
	Object
	access.ExternallyCreatable
}](e Entity, seed PT, flags ...CreateFlags) PT {
	rec := e.rec()
	targetID := typeid.Of[T]()
	if existing := rec.find(targetID); existing != nil {
		assert.Require(existing != poisoned, assert.PartialConstructionAccess,
			"add<%s>: entity is mid-construction for this type", typeid.Name(targetID))
		eb := existing.base()
		assert.Require(!eb.flags.has(flagExternallyAdded), assert.LifetimeViolation,
			"add<%s>: already externally added", typeid.Name(targetID))
		eb.flags |= flagExternallyAdded
		return existing.(PT)
	}
	flag := Delayed
	if len(flags) > 0 {
		flag = flags[0]
	}
	created := createAO[T, PT](e, rec, targetID, flag, seed)
	created.base().flags |= flagExternallyAdded
	return created
}

// Remove releases T's external-API lifetime root on e, destroying it if no
// other root remains. Preconditions: the caller holds e's writer lock.
func Remove[T any, PT interface {
	*T
	Object
	access.ExternallyRemovable
}](e Entity) {
	rec := e.rec()
	targetID := typeid.Of[T]()
	obj := rec.find(targetID)
	assert.Require(obj != nil, assert.LifetimeViolation, "remove<%s>: entity has no attached object of this type", typeid.Name(targetID))
	assert.Require(obj != poisoned, assert.PartialConstructionAccess, "remove<%s>: entity is mid-construction for this type", typeid.Name(targetID))
	b := obj.base()
	assert.Require(b.flags.has(flagExternallyAdded), assert.LifetimeViolation, "remove<%s>: type was never externally added", typeid.Name(targetID))
	b.flags &^= flagExternallyAdded
	if b.destroyable() {
		destroyAO(rec, obj, false)
	}
}

// Get returns T attached to e and true, or the zero value and false if e has
// no such type. Preconditions: the caller holds e's reader or writer lock.
// It raises partial_construction_access if the type's constructor is
// currently running on this entity (a cyclic requirement reaching back into
// its own construction).
func Get[T any, PT interface {
	*T
	Object
	access.ExternallyGettable
}](e Entity) (PT, bool) {
	targetID := typeid.Of[T]()
	obj := e.rec().find(targetID)
	if obj == nil {
		var zero PT
		return zero, false
	}
	assert.Require(obj != poisoned, assert.PartialConstructionAccess,
		"get<%s>: attached object is under construction (cyclic requirement?)", typeid.Name(targetID))
	return obj.(PT), true
}

// Has reports whether e currently has a fully-constructed T attached.
// Preconditions: the caller holds e's reader or writer lock. Unlike Get, Has
// never raises an assertion: a poisoned (mid-construction) entry reads as
// absent, a safe check for recovering from a cycle before calling
// GetRequired.
func Has[T any](e Entity) bool {
	obj := e.rec().find(typeid.Of[T]())
	return obj != nil && obj != poisoned
}

// createAO performs the shared mechanics behind Add, Require and CreateSelf:
// reserve the slot with the poisoned sentinel, run the optional Constructor
// hook, publish the real pointer, and make the new object visible according
// to flag. Storage always comes from the slab pool, never from seed's own
// allocation: seed only supplies the caller's initial field values, which
// are copied into the pooled slot, so the slab allocator — not the caller's
// heap allocation — is the one real allocation path for every attached
// object, matching the original's allocator.allocate/deallocate pairing.
func createAO[T any, PT interface {
	*T
	Object
}](e Entity, rec *entityRecord, targetID typeid.ID, flag CreateFlags, seed PT) PT {
	rec.mask.Set(int(targetID))
	rec.put(targetID, poisoned)

	obj := PT(slab.Alloc[T](e.db.slabs, targetID, flag == Transient))
	if seed != nil {
		*obj = *seed
	} else {
		var zero T
		*obj = zero // a reused slab slot still holds its previous occupant's fields
	}
	b := obj.base()
	b.db = e.db
	b.rec = rec
	b.owner = e
	b.typeID = targetID
	b.requirements = bitmask.NewLazy(e.db.cfg.MaxAttachedObjectTypes)
	b.index = -1
	b.freeSelf = func() { slab.Free[T](e.db.slabs, targetID, flag == Transient, obj) }
	if flag == Transient {
		b.flags |= flagFullyTransient
	}

	if ctor, ok := any(obj).(Constructor); ok {
		ctor.OnConstruct()
	}

	rec.replace(targetID, obj)

	switch flag {
	case Transient:
		// never indexed; invisible to ForEach/Query by design.
	case ForceImmediate:
		e.db.indexInsert(targetID, obj)
	default:
		e.db.pending.enqueueInsert(targetID, obj)
	}
	e.db.metrics.aoCreated(targetID)
	return obj
}

// destroyAO runs the destruction-unwind protocol: mark authorized, detach
// from the entity, release this object's
// hold on each of its own requirements (recursing into any that become
// destroyable), run the optional Destructor hook, remove it from its
// per-type index, and finally return the object's storage to its slab.
//
// forced is set only by the top-level sweep in destroyEntity: revisiting an
// object already destroyed earlier in that same sweep (because an unrelated
// object's unwind reached it first) is an expected race between two
// independent walks over the same entity, not a cycle. Every other caller
// (Remove, Unrequire, SelfDestruct, and destroyAO's own recursive unwind)
// passes forced=false, so reaching an already-authorized target there is
// exactly the cycle-detection condition: two destructors each waiting on
// the other's teardown to finish first.
func destroyAO(rec *entityRecord, obj Object, forced bool) {
	b := obj.base()
	if b.flags.has(flagAuthorizedDestruction) {
		assert.Require(forced, assert.DependencyCycle,
			"destroy<%s>: object is already authorized for destruction (dependency cycle)", typeid.Name(b.typeID))
		return
	}
	b.flags |= flagAuthorizedDestruction
	rec.removeSlot(b.typeID)
	rec.mask.Unset(int(b.typeID))

	b.requirements.ForEachSet(func(i int) {
		reqID := typeid.ID(i)
		reqObj := rec.find(reqID)
		if reqObj == nil {
			return // already gone, reached via a different unwind path
		}
		reqB := reqObj.base()
		assert.Require(!reqB.flags.has(flagAuthorizedDestruction), assert.DependencyCycle,
			"destroy<%s>: requirement %s is already authorized for destruction (dependency cycle)",
			typeid.Name(b.typeID), typeid.Name(reqID))
		assert.Require(!reqB.requirements.IsSet(int(b.typeID)), assert.DependencyCycle,
			"destroy<%s>: requirement %s still requires the object being destroyed (dependency cycle)",
			typeid.Name(b.typeID), typeid.Name(reqID))
		reqB.requiredCount--
		assert.Require(reqB.requiredCount >= 0, assert.RefcountUnderflow,
			"destroy<%s>: required_count underflow on %s", typeid.Name(b.typeID), typeid.Name(reqID))
		if reqB.destroyable() {
			destroyAO(rec, reqObj, false)
		}
	})

	if dtor, ok := obj.(Destructor); ok {
		dtor.OnDestroy()
	}

	b.db.indexRemove(b.typeID, obj)
	b.db.metrics.aoDestroyed(b.typeID)
	b.freeSelf()
}
