// Package courier provides domain entities and business logic for courier
// management in the dispatch system. It implements the Courier aggregate
// root with availability tracking, single-active-order handling, and
// monotonic location updates.
//
// The package includes:
//   - Courier: The aggregate root managing identity, availability, location, and the active order
//   - Availability: The idle/busy/offline dispatch state
//
// Key business rules:
//   - Only idle couriers receive offers
//   - The active order is set iff the courier is busy
//   - Location pings with timestamps at or before the last accepted one are discarded
//   - The time since the last availability change feeds the dispatch
//     fairness tie-break
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package courier
