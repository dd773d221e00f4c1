package kernel_test

import (
	"context"
	"testing"

	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/assert"
	"github.com/aodb/entitydb/internal/dbconfig"
	"github.com/aodb/entitydb/internal/kernel"
	"github.com/aodb/entitydb/internal/taskpool"
)

func TestWeakRefInvalidatesOnDestroy(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()
	w := e.Weak()

	if _, ok := w.Get(); !ok {
		t.Fatal("WeakRef.Get() = false on a live entity")
	}

	db.DestroyEntity(e)

	if _, ok := w.Get(); ok {
		t.Fatal("WeakRef.Get() = true after the entity was destroyed")
	}
}

func TestDuplicateTrackingReferenceKeepsEntityAliveUntilLastRelease(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()

	e2 := e.DuplicateTrackingReference()
	if e2 != e {
		t.Fatal("DuplicateTrackingReference returned a different handle")
	}

	e.Release()
	if !e.Alive() {
		t.Fatal("entity destroyed after releasing only one of two tracking references")
	}

	e.Release()
	if e.Alive() {
		t.Fatal("entity still alive after releasing its last tracking reference")
	}
}

func TestReleaseUnderflowIsFatal(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()
	e.Release()

	defer func() {
		v, ok := assert.Recover(recover())
		if !ok {
			t.Fatal("releasing an already-destroyed entity's last reference did not raise an assertion")
		}
		if v.Kind != assert.RefcountUnderflow {
			t.Fatalf("Kind = %v, want %v", v.Kind, assert.RefcountUnderflow)
		}
	}()
	e.Release()
}

func TestRefCountingDisabledByConfigurationIsFatal(t *testing.T) {
	db := newDB(t, dbconfig.WithRefCounting(false))
	e := db.CreateEntity()

	defer func() {
		v, ok := assert.Recover(recover())
		if !ok {
			t.Fatal("DuplicateTrackingReference on a refcounting-disabled DB did not raise an assertion")
		}
		if v.Kind != assert.CapabilityViolation {
			t.Fatalf("Kind = %v, want %v", v.Kind, assert.CapabilityViolation)
		}
	}()
	e.DuplicateTrackingReference()
}

func TestApplyChangesMakesDelayedObjectsVisibleOnce(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()

	e.Lock()
	kernel.Add[Health](e, &Health{Value: 1})
	e.Unlock()

	if got := db.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() = %d before ApplyChanges, want 1", got)
	}

	db.ApplyChanges()
	if got := db.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d after ApplyChanges, want 0", got)
	}

	db.ApplyChanges() // draining an empty queue must be a no-op, not a panic
	if got := len(kernel.Query[Health, *Health](db)); got != 1 {
		t.Fatalf("Query() = %d entries after a second ApplyChanges, want 1", got)
	}
}

func TestOptimizeCompactsOnlyPastThreshold(t *testing.T) {
	db := newDB(t, dbconfig.WithOptimizeThreshold(2))
	entities := make([]kernel.Entity, 4)
	for i := range entities {
		e := db.CreateEntity()
		e.Lock()
		kernel.Add[Health](e, &Health{Value: i})
		e.Unlock()
		entities[i] = e
	}
	db.ApplyChanges()

	for _, e := range entities[:1] {
		e.Lock()
		kernel.Remove[Health, *Health](e)
		e.Unlock()
	}

	db.Optimize(false) // below threshold: should leave the hole in place
	if got := len(kernel.Query[Health, *Health](db)); got != 3 {
		t.Fatalf("Query() = %d after below-threshold Optimize, want 3", got)
	}

	for _, e := range entities[1:3] {
		e.Lock()
		kernel.Remove[Health, *Health](e)
		e.Unlock()
	}

	db.Optimize(false) // now 3 deletions > threshold of 2: compacts
	if got := len(kernel.Query[Health, *Health](db)); got != 1 {
		t.Fatalf("Query() = %d after Optimize compacted, want 1", got)
	}
}

func TestOptimizeParallelCompactsEveryEligibleIndex(t *testing.T) {
	db := newDB(t, dbconfig.WithOptimizeThreshold(0))
	e := db.CreateEntity()
	e.Lock()
	kernel.Add[Health](e, &Health{Value: 1})
	e.Unlock()
	db.ApplyChanges()

	e.Lock()
	kernel.Remove[Health, *Health](e)
	e.Unlock()

	pool := taskpool.New(context.Background(), 4)
	if err := db.OptimizeParallel(context.Background(), pool, true); err != nil {
		t.Fatalf("OptimizeParallel() = %v", err)
	}
	if got := len(kernel.Query[Health, *Health](db)); got != 0 {
		t.Fatalf("Query() = %d after OptimizeParallel, want 0", got)
	}
}

// RequiresDuringConstruct requires Armor in its constructor, then reads it
// back through GetRequired before its own constructor returns.
type RequiresDuringConstruct struct {
	kernel.Base
	access.Creatable
	access.Removable
	access.Queryable
}

func (r *RequiresDuringConstruct) OnConstruct() {
	kernel.Require[Armor](r, &Armor{Defense: 1})
	a := kernel.GetRequired[Armor, *Armor](r)
	if a.Defense != 1 {
		panic("GetRequired returned the wrong instance")
	}
}

func TestGetUnsafeSeesAnAlreadyConstructedSibling(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()

	e.Lock()
	caller := kernel.Add[RequiresDuringConstruct](e, &RequiresDuringConstruct{})
	e.Unlock()

	e.RLock()
	armor, ok := kernel.GetUnsafe[Armor, *Armor](caller)
	e.RUnlock()
	if !ok || armor.Defense != 1 {
		t.Fatalf("GetUnsafe[Armor] = (%+v, %v), want (Defense=1, true)", armor, ok)
	}
}

// SelfReferentialGet's constructor tries to Get its own type back off the
// entity while still mid-construction — this must
// raise PartialConstructionAccess, the fatal half of the poisoned-pointer
// protocol.
type SelfReferentialGet struct {
	kernel.Base
	access.Creatable
	access.Removable
	access.Gettable
	access.Queryable
}

func (s *SelfReferentialGet) OnConstruct() {
	kernel.Get[SelfReferentialGet, *SelfReferentialGet](s.Entity())
}

func TestGetDuringOwnConstructionIsFatal(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()

	defer func() {
		v, ok := assert.Recover(recover())
		if !ok {
			t.Fatal("Get on a type mid-construction did not raise an assertion")
		}
		if v.Kind != assert.PartialConstructionAccess {
			t.Fatalf("Kind = %v, want %v", v.Kind, assert.PartialConstructionAccess)
		}
	}()
	e.Lock()
	defer e.Unlock()
	kernel.Add[SelfReferentialGet](e, &SelfReferentialGet{})
}
