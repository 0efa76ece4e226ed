package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/envelope"
	"dispatch/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand moves an order through its execution states
// (picked_up, in_transit, delivered, cancelled). The caller states the
// status it believes the order is in; a mismatch surfaces as a stale
// transition so the client can re-fetch.
//
// For delivered the courier app submits the proof of delivery as an
// encrypted envelope; it is never accepted in the clear.
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	expected order.Status
	target   order.Status
	proof    *envelope.Envelope

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand creates a status transition command. proof may
// be nil for every target except delivered.
func NewTransitionOrderCommand(
	orderID kernel.UUID,
	expected order.Status,
	target order.Status,
	proof *envelope.Envelope,
) (TransitionOrderCommand, error) {
	cmd := TransitionOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOrderID(orderID); err != nil {
		return TransitionOrderCommand{}, err
	}
	if err := cmd.setStatuses(expected, target); err != nil {
		return TransitionOrderCommand{}, err
	}
	cmd.proof = proof

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

// OrderID returns the order being transitioned.
func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Expected returns the status the caller believes the order is in.
func (c TransitionOrderCommand) Expected() order.Status {
	return c.expected
}

// Target returns the requested status.
func (c TransitionOrderCommand) Target() order.Status {
	return c.target
}

// Proof returns the encrypted proof envelope, if one was submitted.
func (c TransitionOrderCommand) Proof() *envelope.Envelope {
	return c.proof
}

func (c *TransitionOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *TransitionOrderCommand) setStatuses(expected, target order.Status) error {
	if err := expected.Validate(); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	c.expected = expected
	c.target = target
	return nil
}
