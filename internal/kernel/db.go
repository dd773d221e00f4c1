package kernel

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/assert"
	"github.com/aodb/entitydb/internal/dbconfig"
	"github.com/aodb/entitydb/internal/obs"
	"github.com/aodb/entitydb/internal/slab"
	"github.com/aodb/entitydb/internal/typeid"
)

// Entity is a handle to an entity record: a dense (id, generation) pair
// resolved against its owning DB on every access, so a stale handle to a
// reused slot safely fails lookup instead of aliasing the wrong entity.
type Entity struct {
	id  uint32
	gen uint32
	db  *DB
}

// Valid reports whether e was ever issued by a DB (it says nothing about
// whether the entity is still alive — use DB.Alive for that).
func (e Entity) Valid() bool { return e.db != nil }

func (e Entity) rec() *entityRecord {
	rec := e.db.entities.lookup(e.id, e.gen)
	if rec == nil {
		assert.Fatal(assert.LifetimeViolation, "use of a destroyed or stale entity handle (id=%d gen=%d)", e.id, e.gen)
	}
	return rec
}

// Lock acquires the entity's writer lock. Add, Remove, Require, Unrequire,
// CreateSelf and SelfDestruct all require the caller to already hold it —
// a deliberate "lock accessor" exposed as part of Entity's public contract,
// rather than each of those calls taking it internally, so a constructor's
// nested Require calls compose without a non-reentrant sync.RWMutex
// deadlocking against itself.
func (e Entity) Lock() { e.rec().mu.Lock() }

// Unlock releases the writer lock acquired by Lock.
func (e Entity) Unlock() { e.rec().mu.Unlock() }

// RLock acquires the entity's reader lock, sufficient for Get and Has.
func (e Entity) RLock() { e.rec().mu.RLock() }

// RUnlock releases the reader lock acquired by RLock.
func (e Entity) RUnlock() { e.rec().mu.RUnlock() }

// Alive reports whether e still resolves to a live entity record.
func (e Entity) Alive() bool {
	if e.db == nil {
		return false
	}
	return e.db.entities.lookup(e.id, e.gen) != nil
}

// Weak returns a WeakRef that observes e's destruction without preventing
// it.
func (e Entity) Weak() WeakRef {
	return WeakRef{cell: e.rec().weak}
}

// DebugID returns an opaque diagnostic token for e, suitable for logging
// without exposing its raw (id, generation) pair.
func (e Entity) DebugID() string {
	return e.rec().weak.token.String()
}

// WeakRef is a non-owning reference to an entity that reports its own
// invalidation once the entity is destroyed.
type WeakRef struct {
	cell *weakCell
}

// Get resolves the weak reference, returning (Entity{}, false) once the
// target has been destroyed.
func (w WeakRef) Get() (Entity, bool) {
	w.cell.mu.Lock()
	defer w.cell.mu.Unlock()
	if !w.cell.valid {
		return Entity{}, false
	}
	return w.cell.e, true
}

// DuplicateTrackingReference increments e's strong refcount (requires
// dbconfig.Config.AllowRefCountingOnEntities) and returns e: an optional
// strong-refcounting mode for entities shared across threads without a
// single clear owner.
func (e Entity) DuplicateTrackingReference() Entity {
	assert.Require(e.db.cfg.AllowRefCountingOnEntities, assert.CapabilityViolation, "entity refcounting is disabled by configuration")
	rec := e.rec()
	atomic.AddInt64(&rec.strong, 1)
	return e
}

// Release decrements e's strong refcount, destroying the entity once it
// reaches zero. Releasing a handle whose entity is already destroyed is a
// refcount underflow.
func (e Entity) Release() {
	assert.Require(e.db.cfg.AllowRefCountingOnEntities, assert.CapabilityViolation, "entity refcounting is disabled by configuration")
	rec := e.db.entities.lookup(e.id, e.gen)
	assert.Require(rec != nil, assert.RefcountUnderflow, "entity refcount underflow: entity already destroyed")
	n := atomic.AddInt64(&rec.strong, -1)
	assert.Require(n >= 0, assert.RefcountUnderflow, "entity refcount underflow")
	if n == 0 {
		e.db.destroyEntity(e)
	}
}

// DB is the database kernel: the entity pool, the per-type indices, the
// entity index, the pending-changes queue, and the slab allocator backing
// every attached object created through it.
type DB struct {
	cfg      dbconfig.Config
	log      *obs.Logger
	matrix   *access.Matrix
	slabs    *slab.Manager
	entities *entityPool
	pending  *pendingQueue

	typesMu sync.RWMutex
	types   map[typeid.ID]*typeIndex

	entityIdx *entityIndex

	applyMu sync.Mutex // serializes ApplyChanges/Optimize across all indices

	metrics *metrics
}

// Option configures a DB being built by New, beyond what its dbconfig.Config
// already captures.
type Option func(*DB)

// WithLogger installs l as the DB's structured log sink.
func WithLogger(l *obs.Logger) Option {
	return func(db *DB) { db.log = l }
}

// WithAccessMatrix installs m as the DB's specific_class_rights override
// table (see internal/access).
func WithAccessMatrix(m *access.Matrix) Option {
	return func(db *DB) { db.matrix = m }
}

// New constructs a DB from cfg, which must already satisfy cfg.Validate().
func New(cfg dbconfig.Config, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	typeid.SetLimit(cfg.MaxAttachedObjectTypes)
	typeid.SetFatalHandler(func(format string, args ...any) {
		assert.Fatal(assert.CapacityOverflow, format, args...)
	})
	db := &DB{
		cfg:      cfg,
		log:      obs.Nop(),
		matrix:   access.NewMatrix(),
		slabs:    slab.NewManager(),
		entities: newEntityPool(cfg.MaxAttachedObjectTypes),
		pending:  &pendingQueue{},
		types:    make(map[typeid.ID]*typeIndex),
	}
	if cfg.UseEntityDB {
		db.entityIdx = newEntityIndex()
	}
	for _, opt := range opts {
		opt(db)
	}
	db.metrics = newMetrics(db.log)
	return db, nil
}

// CreateEntity mints a new entity with an empty attached-object vector. The
// returned handle holds the entity's first strong reference.
func (db *DB) CreateEntity() Entity {
	rec := db.entities.alloc()
	e := Entity{id: rec.id, gen: rec.gen, db: db}
	if db.entityIdx != nil {
		db.entityIdx.add(e)
	}
	db.metrics.entityCreated()
	return e
}

// EntityCount returns the number of currently-live entities.
func (db *DB) EntityCount() int { return db.entities.count() }

// allTypeIndicesSorted returns every currently-registered type's index,
// paired with its type id, in ascending type-id order — the full index
// set ApplyChanges locks unconditionally and Optimize walks one at a time.
func (db *DB) allTypeIndicesSorted() ([]typeid.ID, []*typeIndex) {
	db.typesMu.RLock()
	ids := make([]typeid.ID, 0, len(db.types))
	indices := make([]*typeIndex, 0, len(db.types))
	for id, ti := range db.types {
		ids = append(ids, id)
		indices = append(indices, ti)
	}
	db.typesMu.RUnlock()
	sort.Sort(sortablePair{ids, indices})
	return ids, indices
}

// sortablePair sorts ids and indices together by ascending type id, keeping
// each index paired with the id it was registered under.
type sortablePair struct {
	ids     []typeid.ID
	indices []*typeIndex
}

func (p sortablePair) Len() int           { return len(p.ids) }
func (p sortablePair) Less(i, j int) bool { return p.ids[i] < p.ids[j] }
func (p sortablePair) Swap(i, j int) {
	p.ids[i], p.ids[j] = p.ids[j], p.ids[i]
	p.indices[i], p.indices[j] = p.indices[j], p.indices[i]
}

func (db *DB) typeIndexFor(id typeid.ID) *typeIndex {
	db.typesMu.RLock()
	ti, ok := db.types[id]
	db.typesMu.RUnlock()
	if ok {
		return ti
	}
	db.typesMu.Lock()
	defer db.typesMu.Unlock()
	if ti, ok := db.types[id]; ok {
		return ti
	}
	ti = &typeIndex{}
	db.types[id] = ti
	return ti
}

func (db *DB) indexInsert(id typeid.ID, obj Object) {
	ti := db.typeIndexFor(id)
	pos := ti.insert(obj)
	b := obj.base()
	b.index = int32(pos)
	b.flags |= flagInIndex
}

func (db *DB) indexRemove(id typeid.ID, obj Object) {
	b := obj.base()
	if !b.flags.has(flagInIndex) {
		return
	}
	ti := db.typeIndexFor(id)
	ti.removeAt(int(b.index))
	b.flags &^= flagInIndex
	b.index = -1
}
