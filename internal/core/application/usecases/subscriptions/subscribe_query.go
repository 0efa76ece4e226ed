// Package subscriptions implements the subscribe / reconnect use case.
// A connecting observer declares who it is; the handler derives the topic
// set it should listen on and returns a reconciliation snapshot of canonical
// state, because any events published while the observer was away are gone.
package subscriptions

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/guard"
)

var ErrSubscribeQueryIsNotConstructed = errors.New(
	"SubscribeQuery must be created via NewSubscribeQuery constructor",
)

// SubscribeQuery is one observer's declared interest on connect.
type SubscribeQuery struct {
	role           services.ObserverRole
	observerID     kernel.UUID
	viewedOrderIDs []kernel.UUID

	guard guard.ConstructorGuard
}

// NewSubscribeQuery creates a subscribe query. viewedOrderIDs is only
// meaningful for customer observers and may be empty.
func NewSubscribeQuery(
	role services.ObserverRole,
	observerID kernel.UUID,
	viewedOrderIDs []kernel.UUID,
) (SubscribeQuery, error) {
	if err := role.Validate(); err != nil {
		return SubscribeQuery{}, err
	}
	if err := observerID.Validate(); err != nil {
		return SubscribeQuery{}, err
	}
	for _, orderID := range viewedOrderIDs {
		if err := orderID.Validate(); err != nil {
			return SubscribeQuery{}, err
		}
	}

	return SubscribeQuery{
		role:           role,
		observerID:     observerID,
		viewedOrderIDs: viewedOrderIDs,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q SubscribeQuery) Validate() error {
	return q.guard.Validate(ErrSubscribeQueryIsNotConstructed)
}

// Role returns the observer's role.
func (q SubscribeQuery) Role() services.ObserverRole {
	return q.role
}

// ObserverID returns the observer's identity.
func (q SubscribeQuery) ObserverID() kernel.UUID {
	return q.observerID
}

// ViewedOrderIDs returns the orders a customer observer has open.
func (q SubscribeQuery) ViewedOrderIDs() []kernel.UUID {
	return q.viewedOrderIDs
}
