package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
)

// OfferRepository defines the persistence contract for offers. Offers are
// ephemeral: they exist to resolve the accept/reject/timeout race and then
// remain only as an audit trail per order.
type OfferRepository interface {
	// Add persists a newly issued offer.
	Add(ctx context.Context, aggregate *offer.Offer) error

	// Update persists an offer's resolution.
	Update(ctx context.Context, aggregate *offer.Offer) error

	// Get retrieves an offer by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*offer.Offer, error)

	// GetPendingExpiredBefore retrieves pending offers whose response
	// window closed at or before the given instant. The expiry sweep
	// resolves these as expired.
	GetPendingExpiredBefore(ctx context.Context, deadline time.Time) ([]*offer.Offer, error)

	// GetDeclinedCourierIDs returns the couriers that already produced a
	// rejected or expired outcome for the order. They are excluded from
	// subsequent candidate rounds.
	GetDeclinedCourierIDs(ctx context.Context, orderID kernel.UUID) ([]kernel.UUID, error)

	// CountForOrder returns how many offers have ever been issued for the
	// order, bounding the number of re-offer rounds.
	CountForOrder(ctx context.Context, orderID kernel.UUID) (int, error)
}
