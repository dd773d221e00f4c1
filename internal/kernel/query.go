package kernel

import (
	"github.com/aodb/entitydb/internal/access"
	"github.com/aodb/entitydb/internal/assert"
	"github.com/aodb/entitydb/internal/typeid"
)

// Query returns a snapshot slice of every live, fully-constructed T
// currently visible in its per-type index. Unlike ForEach it takes no
// per-entity lock: the returned
// pointers remain valid only as long as the caller does not race a
// concurrent destruction of the same attached objects, the tradeoff of a
// snapshot API. Query is a fatal capability_violation when the per-type
// indices are disabled by configuration.
func Query[T any, PT interface {
	*T
	Object
	access.QueryableRight
}](db *DB) []PT {
	assert.Require(db.cfg.UseAttachedObjectDB, assert.CapabilityViolation,
		"query: per-type indices are disabled by configuration")
	targetID := typeid.Of[T]()
	items := db.typeIndexFor(targetID).snapshot()
	out := make([]PT, 0, len(items))
	for _, obj := range items {
		if obj.base().flags.has(flagAuthorizedDestruction) {
			continue
		}
		out = append(out, obj.(PT))
	}
	return out
}
