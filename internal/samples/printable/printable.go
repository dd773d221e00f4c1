// Package printable demonstrates the second concept-provider shape the
// original ships alongside its serializable concept: an automanaged
// "Console" that aggregates every attached Part's debug representation and
// logs it through internal/obs on demand, instead of encoding it through a
// codec. Structurally it is internal/samples/serializable's Document with
// logging swapped in for encoding — the same EnsureX/ReleaseX lifetime
// shape, a different aggregate action.
package printable

import (
	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/kernel"
	"github.com/aodb/entitydb/internal/obs"
)

// Part is implemented by any attached-object type that wants to appear in a
// Console dump. LogFields returns slog-style alternating key/value pairs,
// kept separate from kernel.Object so Print can range over parts without a
// generic type parameter.
type Part interface {
	PartName() string
	LogFields() []any
}

// Console is the automanaged concept: it exists exactly as long as at
// least one Part is attached to its entity, mirroring serializable.Document.
type Console struct {
	kernel.Base
	access.SelfManaged
	access.Gettable
	access.Queryable

	providers int
}

// OnConstruct is intentionally empty: Console is brought into existence by
// a Part's own OnConstruct calling EnsureConsole, not by a constructor of
// its own.
func (c *Console) OnConstruct() {}

// EnsureConsole attaches (or returns the existing) Console for e and
// registers one more provider against it. Call from a Part's OnConstruct.
func EnsureConsole(e kernel.Entity) *Console {
	c := kernel.CreateSelf[Console](e, (*Console)(nil))
	c.providers++
	return c
}

// ReleaseConsole releases one provider's hold on e's Console, self-
// destructing it once the last provider is gone. Call from a Part's
// OnDestroy.
func ReleaseConsole(e kernel.Entity) {
	c, ok := kernel.Get[Console, *Console](e)
	if !ok {
		return
	}
	c.providers--
	if c.providers == 0 {
		kernel.SelfDestruct[Console](c)
	}
}

// Print logs the Parts the caller passes for entity e through log, one structured
// record per part bracketed by entity-start/entity-end markers — the same
// bracketing the original's printable::print() puts around each entity's
// provider dump.
func Print(e kernel.Entity, parts []Part, log *obs.Logger) {
	log.Info("------ entity ------", "entity", e.DebugID())
	for _, p := range parts {
		log.Info(p.PartName(), p.LogFields()...)
	}
	log.Info("------ ------ ------")
}
