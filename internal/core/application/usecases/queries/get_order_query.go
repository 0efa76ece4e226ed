package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves the canonical state of a single order. Clients
// run it after a reconnect, or whenever a stale transition tells them their
// local view drifted; the event stream is advisory, this read is the truth.
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query for the given order.
func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrderID returns the order being read.
func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GeoPointResponse is the read-side shape of a geographic position.
type GeoPointResponse struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Address   string  `json:"address,omitempty"`
}

// GetOrderQueryResponse represents the canonical order state. Proof of
// delivery is deliberately absent: its contents are sensitive and never
// leave the service through read endpoints.
type GetOrderQueryResponse struct {
	ID                  kernel.UUID      `json:"id"`
	Number              string           `json:"number"`
	Status              string           `json:"status"`
	Pickup              GeoPointResponse `json:"pickup_location"`
	Delivery            GeoPointResponse `json:"delivery_location"`
	Price               float64          `json:"price"`
	LegalOrValuable     bool             `json:"legal_or_valuable"`
	CourierID           *kernel.UUID     `json:"courier_id,omitempty"`
	NeedsManualDispatch bool             `json:"needs_manual_dispatch"`
	CreatedAt           time.Time        `json:"created_at"`
}
