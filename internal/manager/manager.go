// Package manager defines the storage contract criteria are executed against
// and an in-memory implementation of it.
package manager

import (
	"context"

	"github.com/eclipse-jnosql/jnosql-sub003/internal/criteria"
)

// DatabaseManager executes resolved criteria against a store.
//
// Criteria passed in must not contain criteria.Param operands; resolve them
// against their Params table first. Implementations must be safe for
// concurrent use.
type DatabaseManager interface {
	// Select returns matching entities in sort order, paginated and projected.
	Select(ctx context.Context, q criteria.Select) ([]Entity, error)

	// Count returns the number of entities matching q.Where.
	Count(ctx context.Context, q criteria.Select) (int64, error)

	// Delete removes matching entities, or only q.Fields of them, and returns
	// how many entities were affected.
	Delete(ctx context.Context, q criteria.Delete) (int64, error)

	// Update applies q.Set to matching entities and returns how many were
	// affected.
	Update(ctx context.Context, q criteria.Update) (int64, error)

	// Insert stores e, assigning an id when it has none, and returns the
	// stored entity.
	Insert(ctx context.Context, e Entity) (Entity, error)
}
