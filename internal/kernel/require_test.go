package kernel_test

import (
	"testing"

	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/assert"
	"github.com/aodb/entitydb/internal/kernel"
)

// Armor is requireable and unsafe-gettable but never externally added: only
// reachable on an entity through some other object's Require.
type Armor struct {
	kernel.Base
	access.Requireable
	access.UnsafeGettable
	access.Queryable
	Defense int
}

// LoadoutA and LoadoutB independently Require Armor, modeling two
// unrelated providers sharing one dependency.
type LoadoutA struct {
	kernel.Base
	access.Creatable
	access.Removable
	access.Queryable
}

func (l *LoadoutA) OnConstruct() {
	kernel.Require[Armor](l, &Armor{Defense: 5})
}

type LoadoutB struct {
	kernel.Base
	access.Creatable
	access.Removable
	access.Queryable
}

func (l *LoadoutB) OnConstruct() {
	kernel.Require[Armor](l, (*Armor)(nil))
}

func TestSharedRequirementSurvivesUntilLastReleaser(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()

	e.Lock()
	kernel.Add[LoadoutA](e, &LoadoutA{})
	kernel.Add[LoadoutB](e, &LoadoutB{})
	e.Unlock()

	e.RLock()
	hasArmor := kernel.Has[Armor](e)
	e.RUnlock()
	if !hasArmor {
		t.Fatal("Has[Armor] = false right after both loadouts required it")
	}

	e.Lock()
	kernel.Remove[LoadoutA, *LoadoutA](e)
	e.Unlock()

	e.RLock()
	stillHasArmor := kernel.Has[Armor](e)
	e.RUnlock()
	if !stillHasArmor {
		t.Fatal("Armor was destroyed while LoadoutB still requires it")
	}

	e.Lock()
	kernel.Remove[LoadoutB, *LoadoutB](e)
	e.Unlock()

	e.RLock()
	hasArmorAfter := kernel.Has[Armor](e)
	e.RUnlock()
	if hasArmorAfter {
		t.Fatal("Armor survived after its last requirer was removed")
	}
}

// Root -> Mid -> Leaf models a chain of requirements; destroying Root must
// cascade through Mid into Leaf.
type Root struct {
	kernel.Base
	access.Creatable
	access.Removable
	access.Queryable
}

func (r *Root) OnConstruct() { kernel.Require[Mid](r, &Mid{}) }

type Mid struct {
	kernel.Base
	access.Requireable
	access.Queryable
}

func (m *Mid) OnConstruct() { kernel.Require[Leaf](m, &Leaf{}) }

type Leaf struct {
	kernel.Base
	access.Requireable
	access.Queryable
}

func TestDestructionUnwindCascadesThroughChain(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()

	e.Lock()
	kernel.Add[Root](e, &Root{})
	e.Unlock()

	e.RLock()
	hasMid, hasLeaf := kernel.Has[Mid](e), kernel.Has[Leaf](e)
	e.RUnlock()
	if !hasMid || !hasLeaf {
		t.Fatalf("chain not fully constructed: Mid=%v Leaf=%v", hasMid, hasLeaf)
	}

	e.Lock()
	kernel.Remove[Root, *Root](e)
	e.Unlock()

	e.RLock()
	defer e.RUnlock()
	if kernel.Has[Root](e) || kernel.Has[Mid](e) || kernel.Has[Leaf](e) {
		t.Fatal("removing Root did not cascade-destroy Mid and Leaf")
	}
}

// CycleA and CycleB form a mutual requirement once both exist, to exercise
// the fatal dependency-cycle assertion during entity teardown.
type CycleA struct {
	kernel.Base
	access.Creatable
	access.Requireable
	access.Queryable
}

type CycleB struct {
	kernel.Base
	access.Requireable
	access.Queryable
}

func TestCyclicRequirementIsFatalOnDestroy(t *testing.T) {
	db := newDB(t)
	e := db.CreateEntity()

	e.Lock()
	a := kernel.Add[CycleA](e, &CycleA{})
	b := kernel.Require[CycleB](a, &CycleB{})
	kernel.Require[CycleA](b, (*CycleA)(nil))
	e.Unlock()

	defer func() {
		v, ok := assert.Recover(recover())
		if !ok {
			t.Fatal("destroying a cyclic requirement graph did not raise an assertion")
		}
		if v.Kind != assert.DependencyCycle {
			t.Fatalf("Kind = %v, want %v", v.Kind, assert.DependencyCycle)
		}
	}()
	db.DestroyEntity(e)
}

func TestAccessMatrixCanDenyASpecificRequirePair(t *testing.T) {
	m := access.NewMatrix()
	db, err := newDBWithMatrix(t, m)
	if err != nil {
		t.Fatalf("newDBWithMatrix() = %v", err)
	}
	e := db.CreateEntity()

	armorType := typeOf[Armor]()
	loadoutAType := typeOf[LoadoutA]()
	m.DenyRequire(armorType, loadoutAType)

	e.Lock()
	defer e.Unlock()
	defer func() {
		v, ok := assert.Recover(recover())
		if !ok {
			t.Fatal("Require under a denying access matrix did not raise an assertion")
		}
		if v.Kind != assert.CapabilityViolation {
			t.Fatalf("Kind = %v, want %v", v.Kind, assert.CapabilityViolation)
		}
	}()
	kernel.Add[LoadoutA](e, &LoadoutA{})
}
