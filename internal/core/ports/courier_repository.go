package ports

import (
	"context"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// CourierRepository defines the persistence contract for courier
// aggregates. Like OrderRepository, updates are compare-and-set on the
// aggregate version.
type CourierRepository interface {
	// Add persists a new courier aggregate at version 1.
	Add(ctx context.Context, aggregate *courier.Courier) error

	// Update persists changes to an existing courier with a compare-and-set
	// on its version. Returns ErrConcurrentModification on a version
	// mismatch.
	Update(ctx context.Context, aggregate *courier.Courier) error

	// Get retrieves a courier aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error)

	// GetAllIdle retrieves couriers currently eligible for offers
	// (availability is idle). Candidate selection feeds on this.
	GetAllIdle(ctx context.Context) ([]*courier.Courier, error)

	// GetAll retrieves every courier, for the dispatcher's fleet view and
	// reconciliation reads.
	GetAll(ctx context.Context) ([]*courier.Courier, error)
}
