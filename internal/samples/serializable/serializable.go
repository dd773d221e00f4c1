// Package serializable demonstrates the concept-provider pattern: a
// "Document" is an automanaged concept that comes into existence the first
// time some part provides serializable content, and aggregates every
// provider's encoded bytes through internal/codec on demand.
//
// Generalizes internal/kernel's ProviderA/ProviderB test fixtures into a
// reusable shape instead of a test-only one.
package serializable

import (
	"fmt"
	"sort"

	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/codec"
	"github.com/aodb/entitydb/internal/kernel"
)

// Part is implemented by any attached-object type that contributes content
// to a Document. Kept separate from kernel.Object so Document can range
// over parts without a generic type parameter.
type Part interface {
	PartName() string
	PartValue() any
}

// Document is the automanaged concept: it exists exactly as long as at
// least one Part is attached to its entity.
type Document struct {
	kernel.Base
	access.SelfManaged
	access.Gettable
	access.Queryable

	providers int
}

// OnConstruct is intentionally empty: Document is brought into existence by
// a Part's own OnConstruct calling EnsureDocument, not by a constructor of
// its own.
func (d *Document) OnConstruct() {}

// EnsureDocument attaches (or returns the existing) Document for e and
// registers one more provider against it. Call from a Part's OnConstruct.
func EnsureDocument(e kernel.Entity) *Document {
	d := kernel.CreateSelf[Document](e, (*Document)(nil))
	d.providers++
	return d
}

// ReleaseDocument releases one provider's hold on e's Document, self-
// destructing it once the last provider is gone. Call from a Part's
// OnDestroy.
func ReleaseDocument(e kernel.Entity) {
	d, ok := kernel.Get[Document, *Document](e)
	if !ok {
		return
	}
	d.providers--
	if d.providers == 0 {
		kernel.SelfDestruct[Document](d)
	}
}

// Snapshot is the deterministic, codec-ready view of a Document's parts.
type Snapshot struct {
	Fields map[string]any `json:"fields"`
}

// Encode walks the Parts the caller passes for entity e and serializes the
// aggregate through c, an external codec collaborator rather than a
// built-in serialization format.
func Encode(e kernel.Entity, parts []Part, c codec.Codec) ([]byte, error) {
	snap := Snapshot{Fields: make(map[string]any, len(parts))}
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		snap.Fields[p.PartName()] = p.PartValue()
		names = append(names, p.PartName())
	}
	sort.Strings(names) // names is not passed to c; field order in the output is c's choice for a map (encoding/json sorts keys)
	data, err := c.Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("serializable: encode: %w", err)
	}
	return data, nil
}

// Decode reverses Encode into a Snapshot, leaving it to the caller to
// distribute fields back onto the entity's Parts.
func Decode(data []byte, c codec.Codec) (Snapshot, error) {
	var snap Snapshot
	if err := c.Decode(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("serializable: decode: %w", err)
	}
	return snap, nil
}
