package offer

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrOfferIsNotConstructed is returned when an Offer was not created via
	// NewOffer or RestoreOffer.
	ErrOfferIsNotConstructed = errors.New("Offer must be created via NewOffer or RestoreOffer constructor")

	// ErrOfferAlreadyResolved indicates a resolution attempt against an
	// offer that already has a final outcome. This is the losing side of
	// the accept/reject/timeout race and is recoverable: the caller treats
	// it as a no-op and re-reads canonical state.
	ErrOfferAlreadyResolved = errors.New("offer already resolved")

	// ErrTTLIsInvalid is returned when an offer is created with a
	// non-positive time-to-live.
	ErrTTLIsInvalid = errs.NewValueIsRequiredError("offer ttl")
)

// Outcome is the final disposition of an offer.
type Outcome int

const (
	// OutcomeUnknown represents an invalid or undefined outcome.
	OutcomeUnknown Outcome = iota

	// OutcomePending means the offer awaits the courier's response or expiry.
	OutcomePending

	// OutcomeAccepted means the courier accepted and won the order.
	OutcomeAccepted

	// OutcomeRejected means the courier declined the offer.
	OutcomeRejected

	// OutcomeExpired means the offer window elapsed with no response.
	OutcomeExpired

	// OutcomeSuperseded tags a resolution attempt that lost the race: the
	// offer had already been resolved when the attempt arrived.
	OutcomeSuperseded
)

// getOutcomeStrings returns a map of Outcome values to their string representations.
func getOutcomeStrings() map[Outcome]string {
	return map[Outcome]string{
		OutcomeUnknown:    "Unknown",
		OutcomePending:    "pending",
		OutcomeAccepted:   "accepted",
		OutcomeRejected:   "rejected",
		OutcomeExpired:    "expired",
		OutcomeSuperseded: "superseded",
	}
}

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	if s, ok := getOutcomeStrings()[o]; ok {
		return s
	}
	return "Unknown"
}

// Validate checks the outcome is one of the defined values.
func (o Outcome) Validate() error {
	if _, ok := getOutcomeStrings()[o]; !ok || o == OutcomeUnknown {
		return errs.NewValueIsInvalidErrorWithCause("outcome is invalid",
			fmt.Errorf("%d is not a valid outcome", o))
	}
	return nil
}

// IsFinal reports whether the outcome terminates the offer.
func (o Outcome) IsFinal() bool {
	return o == OutcomeAccepted || o == OutcomeRejected || o == OutcomeExpired || o == OutcomeSuperseded
}

// Offer is a time-boxed proposal of one order to one courier. An offer is
// created pending, resolved exactly once (accept, reject, or expiry; the
// first resolution wins), and retained only as an audit trail. The
// resolve-once rule, together with the order's compare-and-set write, is
// what guarantees at most one winner among racing responses.
type Offer struct {
	id        kernel.UUID
	orderID   kernel.UUID
	courierID kernel.UUID
	createdAt time.Time
	expiresAt time.Time
	outcome   Outcome

	guard guard.ConstructorGuard
}

// NewOffer creates a pending offer for the given order/courier pair with a
// fixed expiry window.
func NewOffer(id, orderID, courierID kernel.UUID, createdAt time.Time, ttl time.Duration) (*Offer, error) {
	if ttl <= 0 {
		return nil, ErrTTLIsInvalid
	}

	o := &Offer{
		outcome: OutcomePending,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setOrderID(orderID),
		o.setCourierID(courierID),
	); err != nil {
		return nil, err
	}

	o.createdAt = createdAt
	o.expiresAt = createdAt.Add(ttl)
	return o, nil
}

// RestoreOffer reconstructs an Offer from persistent storage.
func RestoreOffer(
	id, orderID, courierID kernel.UUID,
	createdAt, expiresAt time.Time,
	outcome Outcome,
) (*Offer, error) {
	o := &Offer{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setOrderID(orderID),
		o.setCourierID(courierID),
		outcome.Validate(),
	); err != nil {
		return nil, err
	}

	o.createdAt = createdAt
	o.expiresAt = expiresAt
	o.outcome = outcome
	return o, nil
}

// Validate ensures the Offer was properly constructed.
func (o *Offer) Validate() error {
	if o == nil {
		return ErrOfferIsNotConstructed
	}
	return o.guard.Validate(ErrOfferIsNotConstructed)
}

// ID returns the offer's unique identifier.
func (o *Offer) ID() kernel.UUID {
	return o.id
}

// OrderID returns the order this offer proposes.
func (o *Offer) OrderID() kernel.UUID {
	return o.orderID
}

// CourierID returns the courier the offer was issued to.
func (o *Offer) CourierID() kernel.UUID {
	return o.courierID
}

// CreatedAt returns the issuance timestamp.
func (o *Offer) CreatedAt() time.Time {
	return o.createdAt
}

// ExpiresAt returns the end of the response window.
func (o *Offer) ExpiresAt() time.Time {
	return o.expiresAt
}

// Outcome returns the offer's current disposition.
func (o *Offer) Outcome() Outcome {
	return o.outcome
}

// IsPending reports whether the offer still awaits resolution.
func (o *Offer) IsPending() bool {
	return o.outcome == OutcomePending
}

// IsExpiredAt reports whether the response window has elapsed at the given
// instant. Expiry is observed, not applied: a pending offer past its window
// stays pending until Resolve(OutcomeExpired) commits.
func (o *Offer) IsExpiredAt(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

// Resolve applies a final outcome to a pending offer. The first resolution
// wins; any later attempt returns ErrOfferAlreadyResolved and changes
// nothing.
func (o *Offer) Resolve(outcome Outcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}
	if !outcome.IsFinal() {
		return errs.NewValueIsInvalidErrorWithCause("outcome is invalid",
			fmt.Errorf("%s is not a final outcome", outcome))
	}
	if o.outcome != OutcomePending {
		return ErrOfferAlreadyResolved
	}

	o.outcome = outcome
	return nil
}

func (o *Offer) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Offer) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("order id", err)
	}
	o.orderID = id
	return nil
}

func (o *Offer) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("courier id", err)
	}
	o.courierID = id
	return nil
}
