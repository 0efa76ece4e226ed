package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Status represents the lifecycle state of an order. It implements a
// forward-only state machine: every transition moves one step ahead, no
// backward moves, no skipping, with cancellation reachable from any
// non-terminal state.
//
// State transitions:
//
//	Pending ──> Offered ──> Assigned ──> PickedUp ──> InTransit ──> Delivered
//	   ^           │
//	   └───────────┘
//	 (offer rejected or expired)
//
//	any non-terminal ──> Cancelled
//
// Delivered and Cancelled are terminal: no further transitions are allowed.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status: the order waits for dispatch.
	// Orders return to Pending when an offer is rejected or expires.
	Pending

	// Offered indicates a time-boxed offer is out to exactly one courier.
	Offered

	// Assigned indicates a courier accepted the offer and owns the order.
	Assigned

	// PickedUp indicates the courier collected the package.
	PickedUp

	// InTransit indicates the package is on its way to the delivery point.
	InTransit

	// Delivered is the successful terminal state. Reaching it requires a
	// valid proof of delivery.
	Delivered

	// Cancelled is the abort terminal state, reachable from any
	// non-terminal status.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Pending:   "pending",
		Offered:   "offered",
		Assigned:  "assigned",
		PickedUp:  "picked_up",
		InTransit: "in_transit",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:   "pending",
		Offered:   "offered",
		Assigned:  "assigned",
		PickedUp:  "picked_up",
		InTransit: "in_transit",
		Delivered: "delivered",
		Cancelled: "cancelled",
	}
}

// StatusFromString parses the wire representation of a status.
// Returns an error for unrecognized values.
func StatusFromString(s string) (Status, error) {
	for status, str := range getValidStatusStrings() {
		if str == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid",
		fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the defined lifecycle
// states. Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the wire name of the status ("pending", "offered", ...).
// It implements fmt.Stringer and is safe on any value, including invalid
// ones, for which it returns "Unknown".
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// RequiresCourier reports whether orders in this status must have an
// assigned courier. The invariant is enforced both by the aggregate and by
// the persistence layer on restore.
func (s Status) RequiresCourier() bool {
	return s == Assigned || s == PickedUp || s == InTransit || s == Delivered
}

// CanTransitionTo reports whether target is a legal successor of s.
//
// Rules:
//   - Terminal states have no successors.
//   - Cancelled is reachable from any non-terminal state.
//   - Offered may fall back to Pending (offer rejected or expired).
//   - Otherwise only the next step of the forward chain is legal:
//     Pending -> Offered -> Assigned -> PickedUp -> InTransit -> Delivered.
func (s Status) CanTransitionTo(target Status) bool {
	if s.Validate() != nil || target.Validate() != nil {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if target == Cancelled {
		return true
	}
	if s == Offered && target == Pending {
		return true
	}
	return target == s+1
}
