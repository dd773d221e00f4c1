package main

import (
	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/kernel"
	"github.com/aodb/entitydb/internal/samples/printable"
	"github.com/aodb/entitydb/internal/samples/serializable"
)

// Counter is an externally-managed attached object: the demo's stand-in
// for any plain application data attached to an entity.
type Counter struct {
	kernel.Base
	access.Creatable
	access.Removable
	access.Gettable
	access.Queryable
	Value int
}

func (c *Counter) PartName() string { return "counter" }
func (c *Counter) PartValue() any   { return c.Value }
func (c *Counter) LogFields() []any { return []any{"value", c.Value} }

func (c *Counter) OnConstruct() {
	serializable.EnsureDocument(c.Entity())
	printable.EnsureConsole(c.Entity())
}
func (c *Counter) OnDestroy() {
	serializable.ReleaseDocument(c.Entity())
	printable.ReleaseConsole(c.Entity())
}

// Label is a second externally-managed attached object carrying its own
// Document contribution, so the demo's "export" command has more than one
// part to aggregate.
type Label struct {
	kernel.Base
	access.Creatable
	access.Removable
	access.Gettable
	access.Queryable
	Text string
}

func (l *Label) PartName() string { return "label" }
func (l *Label) PartValue() any   { return l.Text }
func (l *Label) LogFields() []any { return []any{"text", l.Text} }

func (l *Label) OnConstruct() {
	serializable.EnsureDocument(l.Entity())
	printable.EnsureConsole(l.Entity())
}
func (l *Label) OnDestroy() {
	serializable.ReleaseDocument(l.Entity())
	printable.ReleaseConsole(l.Entity())
}
