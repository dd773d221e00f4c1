// Package kernel is the database kernel: entity and attached-object
// lifecycle, the require/externally-added/automanaged refcounted teardown
// protocol, the per-type attached-object indices and inline bitmasks used
// for iteration, the deferred-change queue, and the locking discipline that
// protects them.
//
// The entity record, the attached-object base and its require/destroy
// protocol, the database kernel, and the query/for-each engine could be
// four separate components on paper, but they form a mutually recursive
// dependency graph in their own right: an entity's attached-object vector
// holds attached objects, an attached object's Require/Unrequire calls
// back into the database to create and destroy sibling attached objects,
// and for-each/query read both the entity's mask and the database's
// per-type indices. Splitting those into separate Go packages would mean
// threading interface indirection through every hot path for no benefit —
// so, the way a single focused Go package (lazyecs' ecs.go, warehouse's
// storage.go) keeps a World/Storage and its Entity/Archetype types
// together, this package keeps all four together and splits out only the
// genuinely independent leaf concerns (typeid, slab, bitmask, access) into
// their own packages.
package kernel

import (
	"github.com/aodb/entitydb/internal/bitmask"
	"github.com/aodb/entitydb/internal/typeid"
)

// Object is implemented only by types that embed Base: the promoted,
// unexported base() method can only originate from this package, so a
// caller cannot accidentally satisfy Object by hand — it must embed Base.
type Object interface {
	base() *Base
}

// Constructor is an optional hook an attached-object type implements when
// its construction needs to Require sibling attached objects.
type Constructor interface {
	OnConstruct()
}

// Destructor is an optional hook run during the destruction-unwind
// protocol, after requirements have been released but before the object's
// storage is returned to its slab.
type Destructor interface {
	OnDestroy()
}

// CreateFlags selects the visibility semantics of a newly-created
// attached object.
type CreateFlags uint8

const (
	// Delayed enqueues the new object for insertion into its per-type
	// index on the next ApplyChanges. It is the default.
	Delayed CreateFlags = iota
	// Transient never inserts the object into a per-type index; it is
	// never visible to ForEach or Query.
	Transient
	// ForceImmediate inserts the object into its per-type index under that
	// index's writer lock before the creating call returns.
	ForceImmediate
)

type flagBits uint8

const (
	flagExternallyAdded flagBits = 1 << iota
	flagAutomanaged
	flagAuthorizedDestruction
	flagInIndex
	flagFullyTransient
	flagForceImmediateIndex
)

func (f flagBits) has(bit flagBits) bool { return f&bit != 0 }

// Base is the common header embedded by every attached-object type: owner
// back-reference, type id, lifetime-root flags, required_count, and the
// requirements bitmask. Its fields are only safe to touch while the owning
// entity's writer lock is held — see Entity.Lock.
type Base struct {
	db            *DB
	rec           *entityRecord
	owner         Entity
	typeID        typeid.ID
	flags         flagBits
	requiredCount int32
	requirements  bitmask.Lazy
	index         int32 // position in the per-type index, -1 if not indexed
	freeSelf      func()
}

func (b *Base) base() *Base { return b }

// Entity returns a handle to the attached object's owning entity.
func (b *Base) Entity() Entity { return b.owner }

// TypeID returns the attached object's dense type id.
func (b *Base) TypeID() typeid.ID { return b.typeID }

// ExternallyAdded reports whether the external-API lifetime root is held.
func (b *Base) ExternallyAdded() bool { return b.flags.has(flagExternallyAdded) }

// Automanaged reports whether the self lifetime root is held.
func (b *Base) Automanaged() bool { return b.flags.has(flagAutomanaged) }

// RequiredCount reports how many sibling attached objects require this one.
func (b *Base) RequiredCount() int32 { return b.requiredCount }

// AuthorizedDestruction reports whether the kernel has begun destroying
// this object. Query snapshots must check this before dereferencing.
func (b *Base) AuthorizedDestruction() bool { return b.flags.has(flagAuthorizedDestruction) }

// FullyTransient reports whether this object was created with Transient
// and is therefore never visible to ForEach/Query.
func (b *Base) FullyTransient() bool { return b.flags.has(flagFullyTransient) }

func (b *Base) destroyable() bool {
	return b.flags&(flagExternallyAdded|flagAutomanaged) == 0 && b.requiredCount == 0
}

// sentinelObject is the "poisoned pointer" placed into an entity's
// attached-object vector while that type's constructor is running.
type sentinelObject struct{ Base }

var poisoned Object = &sentinelObject{}
