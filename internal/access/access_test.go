package access

import "reflect"

import "testing"

type componentLike struct {
	Creatable
	Removable
	Gettable
	Requireable
}

type conceptLike struct {
	SelfManaged
	Queryable
	Requireable
}

func TestMarkerInterfacesAreSatisfiedByEmbedding(t *testing.T) {
	var _ ExternallyCreatable = componentLike{}
	var _ ExternallyRemovable = componentLike{}
	var _ ExternallyGettable = componentLike{}
	var _ RequireableRight = componentLike{}

	var _ Automanaged = conceptLike{}
	var _ QueryableRight = conceptLike{}
	var _ RequireableRight = conceptLike{}
}

func TestConceptDoesNotSatisfyCreatable(t *testing.T) {
	var v any = conceptLike{}
	if _, ok := v.(ExternallyCreatable); ok {
		t.Fatalf("a concept-only type must not satisfy ExternallyCreatable")
	}
}

func TestMatrixDefaultAllowsEverything(t *testing.T) {
	m := NewMatrix()
	a := reflect.TypeOf(componentLike{})
	b := reflect.TypeOf(conceptLike{})
	if !m.AllowsRequire(a, b) {
		t.Fatalf("fresh matrix should allow every pair by default")
	}
}

func TestMatrixDenyRequire(t *testing.T) {
	m := NewMatrix()
	a := reflect.TypeOf(componentLike{})
	b := reflect.TypeOf(conceptLike{})
	m.DenyRequire(a, b)
	if m.AllowsRequire(a, b) {
		t.Fatalf("expected DenyRequire pair to be denied")
	}
	if !m.AllowsRequire(b, a) {
		t.Fatalf("deny should only apply to the exact (target, caller) pair")
	}
}

func TestNilMatrixAllowsEverything(t *testing.T) {
	var m *Matrix
	a := reflect.TypeOf(componentLike{})
	if !m.AllowsRequire(a, a) {
		t.Fatalf("nil matrix should behave as allow-all")
	}
}
