package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrPriceIsInvalid = errs.NewValueIsRequiredError("price must not be negative")
)

// CreateOrderCommand represents a request to register a new delivery order.
// The order enters the system in pending status and is picked up by the
// next dispatch sweep.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewCreateOrderCommand(orderID, pickup, delivery, 24.50, true)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	pickup          kernel.GeoPoint
	delivery        kernel.GeoPoint
	price           float64
	legalOrValuable bool

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new delivery order.
// Validates the order ID, both geo points, and that the price is not
// negative.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	pickup kernel.GeoPoint,
	delivery kernel.GeoPoint,
	price float64,
	legalOrValuable bool,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setRoute(pickup, delivery),
		cmd.setPrice(price),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	cmd.legalOrValuable = legalOrValuable
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Pickup returns the pickup geo point.
func (c CreateOrderCommand) Pickup() kernel.GeoPoint {
	return c.pickup
}

// Delivery returns the delivery geo point.
func (c CreateOrderCommand) Delivery() kernel.GeoPoint {
	return c.delivery
}

// Price returns the agreed delivery price.
func (c CreateOrderCommand) Price() float64 {
	return c.price
}

// LegalOrValuable reports whether completion requires recipient identity.
func (c CreateOrderCommand) LegalOrValuable() bool {
	return c.legalOrValuable
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setRoute(pickup, delivery kernel.GeoPoint) error {
	if err := pickup.Validate(); err != nil {
		return err
	}
	if err := delivery.Validate(); err != nil {
		return err
	}
	c.pickup = pickup
	c.delivery = delivery
	return nil
}

func (c *CreateOrderCommand) setPrice(price float64) error {
	if price < 0 {
		return ErrPriceIsInvalid
	}
	c.price = price
	return nil
}
