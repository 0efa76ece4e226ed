package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrNumberIsRequired is returned when the human-readable order number
	// is missing.
	ErrNumberIsRequired = errs.NewValueIsRequiredError("number")

	// ErrStaleTransition indicates the caller's view of the order status is
	// out of date: the actual status matches neither the expected status nor
	// the target. Recoverable by re-fetching canonical state.
	ErrStaleTransition = errors.New("stale transition")

	// ErrMissingLegalIdentity is returned when a delivery flagged legal or
	// valuable is completed without the recipient's name and ID number.
	ErrMissingLegalIdentity = errors.New("missing recipient legal identity")

	// ErrInvalidProofPayload is returned when the delivered transition is
	// requested without a valid proof of delivery.
	ErrInvalidProofPayload = errors.New("invalid proof of delivery payload")
)

// StaleTransitionError reports a status-transition request whose
// precondition no longer holds. It unwraps to ErrStaleTransition.
type StaleTransitionError struct {
	Actual   Status
	Expected Status
	Target   Status
}

func (e *StaleTransitionError) Error() string {
	return fmt.Sprintf("stale transition: actual status is %s, expected %s, target %s",
		e.Actual, e.Expected, e.Target)
}

func (e *StaleTransitionError) Unwrap() error {
	return ErrStaleTransition
}

// Order is the aggregate root coordinating a delivery order's lifecycle
// from creation to a terminal state.
//
// Order maintains these invariants:
//   - A courier is assigned iff the status is assigned, picked_up,
//     in_transit, or delivered.
//   - A proof of delivery is present iff the status is delivered.
//   - At most one offer is outstanding at a time (currentOfferID is set
//     iff the status is offered).
//   - Status transitions follow the forward-only rules of Status.
//
// The struct uses private fields; all mutation goes through validated
// methods. The version field supports optimistic concurrency at the store:
// every successful write bumps it, and a write against a stale version is
// rejected. That rejection is the serialization point that resolves racing
// offer resolutions and status transitions.
type Order struct {
	id       kernel.UUID
	number   string
	status   Status
	pickup   kernel.GeoPoint
	delivery kernel.GeoPoint
	price    float64

	// legalOrValuable gates the proof-of-delivery identity requirements.
	legalOrValuable bool

	courierID      *kernel.UUID
	currentOfferID *kernel.UUID
	proof          *ProofOfDelivery

	// needsManualDispatch is raised when automatic dispatch exhausted all
	// candidate couriers.
	needsManualDispatch bool

	createdAt time.Time
	version   int64

	guard guard.ConstructorGuard
}

// NewOrder creates a new Order in Pending status awaiting dispatch.
//
// Parameters:
//   - id: unique identifier (must be a valid UUID)
//   - number: human-readable order number (must be non-empty)
//   - pickup, delivery: validated geo points
//   - price: agreed delivery price
//   - legalOrValuable: whether completion requires recipient legal identity
//   - createdAt: creation timestamp
func NewOrder(
	id kernel.UUID,
	number string,
	pickup kernel.GeoPoint,
	delivery kernel.GeoPoint,
	price float64,
	legalOrValuable bool,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status: Pending,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setRoute(pickup, delivery),
	); err != nil {
		return nil, err
	}

	o.price = price
	o.legalOrValuable = legalOrValuable
	o.createdAt = createdAt
	return o, nil
}

// RestoreOrder reconstructs an Order aggregate from persistent storage,
// including its optimistic-concurrency version. The restored state must
// satisfy the aggregate invariants; persistence corruption surfaces here
// rather than later in a transition.
func RestoreOrder(
	id kernel.UUID,
	number string,
	status Status,
	pickup kernel.GeoPoint,
	delivery kernel.GeoPoint,
	price float64,
	legalOrValuable bool,
	courierID *kernel.UUID,
	currentOfferID *kernel.UUID,
	proof *ProofOfDelivery,
	needsManualDispatch bool,
	createdAt time.Time,
	version int64,
) (*Order, error) {
	o := &Order{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setRoute(pickup, delivery),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	o.status = status
	o.price = price
	o.legalOrValuable = legalOrValuable
	o.courierID = courierID
	o.currentOfferID = currentOfferID
	o.proof = proof
	o.needsManualDispatch = needsManualDispatch
	o.createdAt = createdAt
	o.version = version

	if err := o.checkInvariants(); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Number returns the human-readable order number.
func (o *Order) Number() string {
	return o.number
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Pickup returns the pickup geo point.
func (o *Order) Pickup() kernel.GeoPoint {
	return o.pickup
}

// Delivery returns the delivery geo point.
func (o *Order) Delivery() kernel.GeoPoint {
	return o.delivery
}

// Price returns the agreed delivery price.
func (o *Order) Price() float64 {
	return o.price
}

// IsLegalOrValuable reports whether completion requires recipient identity.
func (o *Order) IsLegalOrValuable() bool {
	return o.legalOrValuable
}

// Courier returns the assigned courier's ID, or nil when unassigned.
func (o *Order) Courier() *kernel.UUID {
	return o.courierID
}

// CurrentOffer returns the ID of the outstanding offer, or nil when none is
// pending.
func (o *Order) CurrentOffer() *kernel.UUID {
	return o.currentOfferID
}

// Proof returns the proof of delivery, or nil before completion.
func (o *Order) Proof() *ProofOfDelivery {
	return o.proof
}

// NeedsManualDispatch reports whether automatic dispatch gave up on this
// order and a dispatcher must intervene.
func (o *Order) NeedsManualDispatch() bool {
	return o.needsManualDispatch
}

// CreatedAt returns the creation timestamp.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// Version returns the optimistic-concurrency version read from storage.
func (o *Order) Version() int64 {
	return o.version
}

// MarkOffered records an outstanding offer and moves the order to Offered.
// Only Pending orders can be offered; this preserves the single-pending-offer
// invariant.
func (o *Order) MarkOffered(offerID kernel.UUID) error {
	if err := offerID.Validate(); err != nil {
		return err
	}
	if o.status != Pending {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is not a valid status to offer from", o.status))
	}

	o.status = Offered
	o.currentOfferID = &offerID
	o.needsManualDispatch = false
	return nil
}

// Assign commits an accepted offer: the order moves to Assigned, the
// courier becomes its owner, and the offer pointer is cleared.
func (o *Order) Assign(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	if o.status != Offered {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is not a valid status to assign from", o.status))
	}

	o.status = Assigned
	o.courierID = &courierID
	o.currentOfferID = nil
	return nil
}

// ReturnToPending moves an Offered order back to Pending after its offer was
// rejected or expired, clearing the offer pointer so a new round can start.
func (o *Order) ReturnToPending() error {
	if o.status != Offered {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is not a valid status to return to pending from", o.status))
	}

	o.status = Pending
	o.currentOfferID = nil
	return nil
}

// MarkNeedsManualDispatch flags a Pending order as requiring dispatcher
// intervention after all candidate couriers were exhausted.
func (o *Order) MarkNeedsManualDispatch() error {
	if o.status != Pending {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("%s is not a valid status to flag for manual dispatch", o.status))
	}

	o.needsManualDispatch = true
	return nil
}

// TransitionTo applies a post-assignment status transition.
//
// Semantics:
//   - Idempotence: when the actual status already equals target, the call
//     succeeds with changed=false and no state change. Duplicate taps and
//     retried requests are therefore harmless.
//   - Staleness: when the actual status matches neither expected nor
//     target, a StaleTransitionError is returned so the caller can re-fetch
//     canonical state.
//   - Legality: target must be a legal successor per Status rules. The
//     dispatch-side moves (Pending, Offered, Assigned) are not reachable
//     through this method; they belong to MarkOffered/Assign/ReturnToPending.
//   - Delivered requires a constructed proof of delivery; when the order is
//     flagged legal or valuable the proof must carry the recipient's name
//     and ID number, otherwise ErrMissingLegalIdentity is returned and the
//     order stays in its prior state.
//
// On success with changed=true the terminal bookkeeping (freeing the
// courier) is the caller's responsibility, since the courier is a separate
// aggregate.
func (o *Order) TransitionTo(expected, target Status, proof *ProofOfDelivery) (bool, error) {
	if err := target.Validate(); err != nil {
		return false, err
	}

	if o.status == target {
		return false, nil
	}

	if err := expected.Validate(); err != nil {
		return false, err
	}

	if o.status != expected {
		return false, &StaleTransitionError{Actual: o.status, Expected: expected, Target: target}
	}

	if target == Pending || target == Offered || target == Assigned {
		return false, errs.NewValueIsInvalidErrorWithCause("target status is invalid",
			fmt.Errorf("%s is reachable only through dispatch operations", target))
	}

	if !o.status.CanTransitionTo(target) {
		return false, errs.NewValueIsInvalidErrorWithCause("target status is invalid",
			fmt.Errorf("%s is not a legal successor of %s", target, o.status))
	}

	if target == Delivered {
		if proof == nil || proof.Validate() != nil {
			return false, ErrInvalidProofPayload
		}
		if o.legalOrValuable && !proof.HasLegalIdentity() {
			return false, ErrMissingLegalIdentity
		}
		o.proof = proof
	}

	if target == Cancelled {
		// A cancelled order holds no outstanding offer and no courier.
		o.currentOfferID = nil
		o.courierID = nil
	}

	o.status = target
	return true, nil
}

// checkInvariants verifies the courier/proof/offer consistency rules on a
// restored aggregate.
func (o *Order) checkInvariants() error {
	hasCourier := o.courierID != nil
	if o.status.RequiresCourier() != hasCourier {
		return errs.NewValueIsInvalidErrorWithCause("courier assignment is inconsistent",
			fmt.Errorf("status %s with courier=%t", o.status, hasCourier))
	}

	if (o.status == Delivered) != (o.proof != nil) {
		return errs.NewValueIsInvalidErrorWithCause("proof of delivery is inconsistent",
			fmt.Errorf("status %s with proof=%t", o.status, o.proof != nil))
	}

	if (o.status == Offered) != (o.currentOfferID != nil) {
		return errs.NewValueIsInvalidErrorWithCause("offer pointer is inconsistent",
			fmt.Errorf("status %s with pending offer=%t", o.status, o.currentOfferID != nil))
	}

	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number string) error {
	if number == "" {
		return ErrNumberIsRequired
	}
	o.number = number
	return nil
}

func (o *Order) setRoute(pickup, delivery kernel.GeoPoint) error {
	if err := pickup.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("pickup", err)
	}
	if err := delivery.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("delivery", err)
	}
	o.pickup = pickup
	o.delivery = delivery
	return nil
}
