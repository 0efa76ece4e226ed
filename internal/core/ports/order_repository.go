// Package ports defines the contracts between the core and its external
// collaborators: the order store (repositories with optimistic concurrency)
// and the event bus. These interfaces enable dependency inversion and
// testability.
package ports

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrConcurrentModification indicates a compare-and-set write lost to a
// concurrent mutation: the aggregate's version in storage no longer matches
// the version it was read at. The caller must re-read canonical state and
// decide whether its operation still applies. This is the per-order
// serialization point; there are no locks, so unrelated orders proceed
// fully in parallel.
var ErrConcurrentModification = errors.New("concurrent modification")

// OrderRepository defines the persistence contract for order aggregates.
// Writes are optimistic: Update compares the aggregate's version against
// storage and fails with ErrConcurrentModification on a mismatch rather
// than blindly overwriting.
type OrderRepository interface {
	// Add persists a new order aggregate at version 1.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order with a compare-and-set
	// on its version. Returns ErrConcurrentModification when the stored
	// version differs from the version the aggregate was read at.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllDispatchable retrieves orders in pending status that are not
	// flagged for manual dispatch, oldest first. The dispatch sweep feeds
	// on this.
	GetAllDispatchable(ctx context.Context) ([]*order.Order, error)
}
