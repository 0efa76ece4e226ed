// Package order provides domain entities and business logic for order
// lifecycle management in the dispatch system. It implements the Order
// aggregate root with forward-only state transitions and the proof record
// required to finalize deliveries.
//
// The package includes:
//   - Order: The aggregate root managing identity, route, offer pointer, and lifecycle
//   - Status: A state machine enforcing monotonic, idempotent status transitions
//   - ProofOfDelivery: The immutable countersigned record captured at completion
//
// Key business rules:
//   - pending -> offered -> assigned -> picked_up -> in_transit -> delivered
//   - offered may fall back to pending when an offer is rejected or expires
//   - cancelled is reachable from any non-terminal status
//   - at most one offer is outstanding per order at any time
//   - delivered requires a proof of delivery; legal or valuable shipments
//     additionally require the recipient's legal identity
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
