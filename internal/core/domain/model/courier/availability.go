package courier

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Availability represents a courier's dispatch state.
//
// State transitions:
//
//	Idle ──> Busy   (offer accepted, active order set)
//	Busy ──> Idle   (order reached a terminal state)
//	Idle <─> Offline (shift start/end)
//
// Only Idle couriers are eligible for new offers.
type Availability int

const (
	// AvailabilityUnknown represents an invalid or undefined availability.
	AvailabilityUnknown Availability = iota

	// Idle means the courier is on shift with no active order and may
	// receive offers.
	Idle

	// Busy means the courier is executing an active order.
	Busy

	// Offline means the courier is off shift and invisible to dispatch.
	Offline
)

// getAvailabilityStrings returns a map of Availability values to their
// string representations.
func getAvailabilityStrings() map[Availability]string {
	return map[Availability]string{
		AvailabilityUnknown: "Unknown",
		Idle:                "idle",
		Busy:                "busy",
		Offline:             "offline",
	}
}

// String returns the wire name of the availability.
func (a Availability) String() string {
	if s, ok := getAvailabilityStrings()[a]; ok {
		return s
	}
	return "Unknown"
}

// Validate checks the availability is one of the defined values.
func (a Availability) Validate() error {
	if a != Idle && a != Busy && a != Offline {
		return errs.NewValueIsInvalidErrorWithCause("availability is invalid",
			fmt.Errorf("%d is not a valid availability", a))
	}
	return nil
}
