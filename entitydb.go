// Package entitydb is the public, documented entry point to the database
// kernel: a process-local, in-memory entity-attached-object store with
// dependency-graph-based teardown. Most callers only need this package;
// internal/kernel's lower-level generic machinery is what this package
// re-exports, so application code never has to import internal/kernel
// directly.
package entitydb

import (
	"context"

	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/dbconfig"
	"github.com/aodb/entitydb/internal/kernel"
	"github.com/aodb/entitydb/internal/taskpool"
)

// Core types for working with the kernel.
type (
	DB       = kernel.DB
	Entity   = kernel.Entity
	WeakRef  = kernel.WeakRef
	Object   = kernel.Object
	Config   = dbconfig.Config
	Option   = kernel.Option
	Matrix   = access.Matrix
	Pool     = taskpool.Pool
	IterResult  = kernel.IterResult
	CreateFlags = kernel.CreateFlags
)

// Creation-flag constants, see kernel.CreateFlags.
const (
	Delayed        = kernel.Delayed
	Transient      = kernel.Transient
	ForceImmediate = kernel.ForceImmediate
)

// Iteration-control constants, see kernel.IterResult.
const (
	Continue = kernel.Continue
	Stop     = kernel.Stop
)

// New constructs a database kernel from cfg.
func New(cfg dbconfig.Config, opts ...Option) (*DB, error) { return kernel.New(cfg, opts...) }

// WithLogger and WithAccessMatrix are re-exported kernel.Option constructors.
var (
	WithLogger      = kernel.WithLogger
	WithAccessMatrix = kernel.WithAccessMatrix
)

// NewConfig and its functional options, see dbconfig.Config.
var (
	NewConfig               = dbconfig.New
	WithMaxAttachedObjectTypes = dbconfig.WithMaxAttachedObjectTypes
	WithAttachedObjectDB    = dbconfig.WithAttachedObjectDB
	WithEntityDB            = dbconfig.WithEntityDB
	WithRefCounting         = dbconfig.WithRefCounting
	WithOptimizeThreshold   = dbconfig.WithOptimizeThreshold
)

// NewMatrix returns an empty specific_class_rights override table.
func NewMatrix() *Matrix { return access.NewMatrix() }

// NewTaskPool returns a bounded-concurrency taskpool.Pool for OptimizeParallel.
func NewTaskPool(ctx context.Context, maxConcurrency int64) Pool {
	return taskpool.New(ctx, maxConcurrency)
}

// Add attaches a new T to e under the external-API lifetime root.
func Add[T any, PT interface {
	*T
	Object
	access.ExternallyCreatable
}](e Entity, seed PT, flags ...CreateFlags) PT {
	return kernel.Add[T, PT](e, seed, flags...)
}

// Remove releases T's external-API lifetime root on e.
func Remove[T any, PT interface {
	*T
	Object
	access.ExternallyRemovable
}](e Entity) {
	kernel.Remove[T, PT](e)
}

// Get returns T attached to e and true, or the zero value and false.
func Get[T any, PT interface {
	*T
	Object
	access.ExternallyGettable
}](e Entity) (PT, bool) {
	return kernel.Get[T, PT](e)
}

// Has reports whether e currently has a fully-constructed T attached.
func Has[T any](e Entity) bool { return kernel.Has[T](e) }

// Require declares that self depends on a sibling T, creating it if absent.
func Require[T any, PT interface {
	*T
	Object
	access.RequireableRight
}](self Object, seed PT, flags ...CreateFlags) PT {
	return kernel.Require[T, PT](self, seed, flags...)
}

// Unrequire releases self's dependency on T.
func Unrequire[T any](self Object) { kernel.Unrequire[T](self) }

// IsRequired reports whether self currently requires a T.
func IsRequired[T any](self Object) bool { return kernel.IsRequired[T](self) }

// GetRequired returns the T that self declared with Require.
func GetRequired[T any, PT interface {
	*T
	Object
}](self Object) PT {
	return kernel.GetRequired[T, PT](self)
}

// GetUnsafe fetches a sibling T without going through the requirement graph.
func GetUnsafe[T any, PT interface {
	*T
	Object
	access.UnsafeGettableRight
}](self Object) (PT, bool) {
	return kernel.GetUnsafe[T, PT](self)
}

// CreateSelf brings a T into existence on e under the automanaged lifetime root.
func CreateSelf[T any, PT interface {
	*T
	Object
	access.Automanaged
}](e Entity, seed PT) PT {
	return kernel.CreateSelf[T, PT](e, seed)
}

// SelfDestruct releases the automanaged lifetime root self holds on itself.
func SelfDestruct[T any](self Object) { kernel.SelfDestruct[T](self) }

// Query returns a snapshot slice of every live, fully-constructed T.
func Query[T any, PT interface {
	*T
	Object
	access.QueryableRight
}](db *DB) []PT {
	return kernel.Query[T, PT](db)
}

// ForEach1 visits every live entity carrying a T1.
func ForEach1[T1 any, PT1 interface {
	*T1
	Object
	access.QueryableRight
}](db *DB, fn func(Entity, PT1) IterResult) {
	kernel.ForEach1[T1, PT1](db, fn)
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
	kernel.ForEach2[T1, T2, PT1, PT2](db, fn)
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
	kernel.ForEach3[T1, T2, T3, PT1, PT2, PT3](db, fn)
}

// ForEach4 visits every live entity carrying a T1, T2, T3 and T4.
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
	kernel.ForEach4[T1, T2, T3, T4, PT1, PT2, PT3, PT4](db, fn)
}
