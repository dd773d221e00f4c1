// Package typeid assigns a dense, process-wide integer id to every
// attached-object type the first time it is registered.
//
// Registration is lazy (the first call to Of[T] for a given T registers it)
// and the registry never tears down: once a type has an id, it keeps that
// id for the lifetime of the process.
package typeid

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// ID is a dense, small, process-wide type identifier.
type ID uint16

// Invalid is returned by lookups that fail.
const Invalid ID = 0xFFFF

// DefaultLimit is the hard ceiling on distinct registered types used when no
// explicit limit has been configured. It mirrors max_attached_object_types'
// documented default.
const DefaultLimit = 256

// Info describes a registered type: its id, its storage shape, and a name
// suitable for diagnostics.
type Info struct {
	ID     ID
	Size   uintptr
	Align  uintptr
	Name   string
	GoType reflect.Type
}

var registry = &typeRegistry{limit: DefaultLimit}

type typeRegistry struct {
	mu      sync.Mutex
	limit   int
	infos   []Info
	byType  map[reflect.Type]ID
	onFatal func(format string, args ...any)
}

// SetLimit sets the hard ceiling on distinct attached-object types that may
// ever be registered in this process. It must be called before the first
// registration (kernel.New calls it with the configured
// MaxAttachedObjectTypes); calling it after types have already registered only raises
// or lowers the ceiling for types registered from that point on, and a
// lower ceiling that is already exceeded takes effect on the next
// registration attempt.
func SetLimit(n int) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.limit = n
}

// SetFatalHandler overrides how the registry reports a capacity overflow.
// kernel.New installs a handler here that calls internal/assert.Fatal with
// the capacity_overflow kind, so overflow goes through the shared fatal-assertion taxonomy instead of a bare panic;
// tests may override it to capture the failure without tearing down the
// process.
func SetFatalHandler(fn func(format string, args ...any)) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.onFatal = fn
}

// Of returns the dense type id for T, registering it on first use.
func Of[T any]() ID {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is an interface type instantiated with a nil dynamic value; this
		// should never happen for concrete attached-object structs.
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	return registry.register(t, unsafe.Sizeof(zero), unsafe.Alignof(zero))
}

// Lookup returns the id previously assigned to T, if any, and whether it was
// found. Unlike Of, it never registers T.
func Lookup[T any]() (ID, bool) {
	var zero T
	t := reflect.TypeOf(zero)
	registry.mu.Lock()
	defer registry.mu.Unlock()
	id, ok := registry.byType[t]
	return id, ok
}

// MustInfo returns the registered Info for id, panicking via the installed
// fatal handler (or a bare panic if none is installed) if id is unknown.
func MustInfo(id ID) Info {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if int(id) >= len(registry.infos) {
		registry.fatalf("typeid: unknown type id %d", id)
		return Info{}
	}
	return registry.infos[id]
}

// Name is a convenience wrapper around MustInfo for diagnostics.
func Name(id ID) string {
	return MustInfo(id).Name
}

// Count returns the number of distinct types registered so far.
func Count() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.infos)
}

// Reset clears the registry. It exists only for test isolation between
// independently-configured kernel.DB instances in the same test binary and
// must not be called from production code.
func Reset() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.infos = nil
	registry.byType = nil
}

func (r *typeRegistry) register(t reflect.Type, size, align uintptr) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byType == nil {
		r.byType = make(map[reflect.Type]ID, 16)
	}
	if id, ok := r.byType[t]; ok {
		return id
	}
	if len(r.infos) >= r.limit {
		r.fatalf("typeid: capacity overflow: more than %d attached-object types registered (tried to register %s)", r.limit, t)
		return Invalid
	}
	id := ID(len(r.infos))
	r.infos = append(r.infos, Info{ID: id, Size: size, Align: align, Name: t.String(), GoType: t})
	r.byType[t] = id
	return id
}

func (r *typeRegistry) fatalf(format string, args ...any) {
	if r.onFatal != nil {
		r.onFatal(format, args...)
		return
	}
	panic(fmt.Sprintf(format, args...))
}
