package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetFleetQueryIsNotConstructed = errors.New(
	"GetFleetQuery must be created via NewGetFleetQuery constructor",
)

// GetFleetQuery retrieves every courier with its availability and last
// known position. Dispatcher screens load it once on connect and then
// apply the fleet event stream on top.
type GetFleetQuery struct {
	guard guard.ConstructorGuard
}

// NewGetFleetQuery creates a query for the fleet snapshot.
func NewGetFleetQuery() GetFleetQuery {
	return GetFleetQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetFleetQuery) Validate() error {
	return q.guard.Validate(ErrGetFleetQueryIsNotConstructed)
}

// GetFleetQueryResponse represents one courier in the fleet snapshot.
type GetFleetQueryResponse struct {
	ID            kernel.UUID      `json:"id"`
	Name          string           `json:"name"`
	Availability  string           `json:"availability"`
	Location      GeoPointResponse `json:"location"`
	LocationAt    time.Time        `json:"location_at"`
	ActiveOrderID *kernel.UUID     `json:"active_order_id,omitempty"`
}
