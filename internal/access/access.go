// Package access implements the compile-time access-rights table: the
// set of classes an attached-object type can belong to, and which
// operations (external create/remove/get, requirement, automanagement,
// queryability) each class permits.
//
// General, per-class rights are enforced at compile time: a class grants a
// right by having its concrete attached-object type embed the matching
// marker type from this package (Creatable, Removable, Gettable,
// UnsafeGettable, Requireable, SelfManaged, Queryable). The kernel's public
// generic entry points (kernel.Add, kernel.Remove, kernel.Require, ...)
// constrain their pointer-receiver type parameter on the matching marker
// interface, so calling e.g. kernel.Add on a type that never embedded
// access.Creatable fails to compile rather than panicking at run time:
// capability violations are rejected at build time.
//
// Finer-grained, per-(target-class, caller-class) overrides
// (specific_class_rights) cannot be expressed this way without a code
// generator, since they depend on the pair of concrete types at each call
// site rather than on either type alone; those are registered in a Matrix
// and checked at the one remaining call site that needs them (Require) as
// a runtime fatal assertion, which is the documented, narrower fallback
// (see DESIGN.md "Open Questions").
package access

import "reflect"

// Creatable marks a class as externally-creatable (Entity.Add is legal).
type Creatable struct{}

func (Creatable) externallyCreatable() {}

// Removable marks a class as externally-removable (Entity.Remove is legal).
type Removable struct{}

func (Removable) externallyRemovable() {}

// Gettable marks a class as externally-gettable (Entity.Get is legal).
type Gettable struct{}

func (Gettable) externallyGettable() {}

// UnsafeGettable marks a class as gettable via GetUnsafe from a sibling
// attached object without going through the require graph.
type UnsafeGettable struct{}

func (UnsafeGettable) unsafeGettable() {}

// Requireable marks a class as a legal target of Require.
type Requireable struct{}

func (Requireable) requireable() {}

// SelfManaged marks a class as automanaged: it may CreateSelf and
// SelfDestruct, and may never be externally added or removed.
type SelfManaged struct{}

func (SelfManaged) automanaged() {}

// Queryable marks a class as visible to DB.Query / DB.ForEach.
type Queryable struct{}

func (Queryable) queryable() {}

// ExternallyCreatable, ExternallyRemovable, ExternallyGettable,
// UnsafeGettableRight, RequireableRight, Automanaged and QueryableRight are
// the marker interfaces the kernel's generic functions constrain on.
type (
	ExternallyCreatable interface{ externallyCreatable() }
	ExternallyRemovable interface{ externallyRemovable() }
	ExternallyGettable   interface{ externallyGettable() }
	UnsafeGettableRight  interface{ unsafeGettable() }
	RequireableRight     interface{ requireable() }
	Automanaged          interface{ automanaged() }
	QueryableRight       interface{ queryable() }
)

// Matrix holds the specific_class_rights overrides: pairwise (target,
// caller) permissions that narrow or widen the general per-class rights
// above. A pair absent from the matrix is allowed by default — the general
// marker-interface check has already run by the time a Matrix lookup
// happens.
type Matrix struct {
	denyRequire map[pairKey]bool
}

type pairKey struct {
	target reflect.Type
	caller reflect.Type
}

// NewMatrix returns an empty override matrix (everything the general rights
// allow remains allowed).
func NewMatrix() *Matrix {
	return &Matrix{denyRequire: make(map[pairKey]bool)}
}

// DenyRequire forbids caller from requiring target, overriding the general
// Requireable grant for this specific pair.
func (m *Matrix) DenyRequire(target, caller reflect.Type) {
	m.denyRequire[pairKey{target: target, caller: caller}] = true
}

// AllowsRequire reports whether caller may require target under this
// matrix's overrides.
func (m *Matrix) AllowsRequire(target, caller reflect.Type) bool {
	if m == nil {
		return true
	}
	return !m.denyRequire[pairKey{target: target, caller: caller}]
}
