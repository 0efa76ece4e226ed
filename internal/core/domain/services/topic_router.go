package services

import (
	"fmt"

	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// ObserverRole identifies which of the three observer kinds a connection
// belongs to.
type ObserverRole int

const (
	// RoleUnknown represents an invalid or undefined role.
	RoleUnknown ObserverRole = iota

	// RoleCourier observes its private offer topic and, when executing an
	// order, that order's tracking room.
	RoleCourier

	// RoleCustomer observes the tracking rooms of the orders it is viewing.
	RoleCustomer

	// RoleDispatcher observes the global fleet and alerts topics.
	RoleDispatcher
)

// String returns the wire name of the role.
func (r ObserverRole) String() string {
	switch r {
	case RoleCourier:
		return "courier"
	case RoleCustomer:
		return "customer"
	case RoleDispatcher:
		return "dispatcher"
	default:
		return "Unknown"
	}
}

// Validate checks the role is one of the defined values.
func (r ObserverRole) Validate() error {
	if r != RoleCourier && r != RoleCustomer && r != RoleDispatcher {
		return errs.NewValueIsInvalidErrorWithCause("role is invalid",
			fmt.Errorf("%d is not a valid observer role", r))
	}
	return nil
}

// Observer is the declared interest of one connected client: who it is and
// which orders it currently views or executes. Subscriptions are ephemeral
// and rebuilt from a fresh Observer on every reconnect; a stale
// subscription list from a previous connection is never trusted.
type Observer struct {
	Role ObserverRole
	ID   kernel.UUID

	// ActiveOrderID is the order a courier observer is executing, if any.
	ActiveOrderID *kernel.UUID

	// ViewedOrderIDs are the orders a customer observer has open.
	ViewedOrderIDs []kernel.UUID
}

// TopicRouter is a domain service that derives the topic set an observer
// should receive from its declared interest.
type TopicRouter struct{}

// NewTopicRouter creates a TopicRouter.
func NewTopicRouter() TopicRouter {
	return TopicRouter{}
}

// TopicsFor returns the topics the observer subscribes to:
//   - courier: its private topic, plus its active order's tracking room
//   - customer: the tracking rooms of the orders it is viewing
//   - dispatcher: the global fleet topic and the dispatch alerts topic
func (t TopicRouter) TopicsFor(obs Observer) ([]string, error) {
	if err := obs.Role.Validate(); err != nil {
		return nil, err
	}
	if err := obs.ID.Validate(); err != nil {
		return nil, err
	}

	switch obs.Role {
	case RoleCourier:
		topics := []string{contracts.CourierTopic(obs.ID.String())}
		if obs.ActiveOrderID != nil {
			topics = append(topics, contracts.OrderTrackingTopic(obs.ActiveOrderID.String()))
		}
		return topics, nil

	case RoleCustomer:
		topics := make([]string, 0, len(obs.ViewedOrderIDs))
		for _, orderID := range obs.ViewedOrderIDs {
			if err := orderID.Validate(); err != nil {
				return nil, err
			}
			topics = append(topics, contracts.OrderTrackingTopic(orderID.String()))
		}
		return topics, nil

	default: // RoleDispatcher, validated above
		return []string{contracts.FleetTopic, contracts.DispatchAlertsTopic}, nil
	}
}
