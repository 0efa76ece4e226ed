package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrResolveOfferCommandIsNotConstructed = errors.New(
	"ResolveOfferCommand must be created via NewResolveOfferCommand constructor",
)

// ResolveOfferCommand records the outcome of a pending offer. The outcome
// comes from a courier tapping accept or reject, or from the expiry sweep
// when the response window closes. Whichever arrives first wins; the rest
// become no-ops.
type ResolveOfferCommand struct { //nolint:recvcheck //using for validation
	offerID kernel.UUID
	outcome offer.Outcome

	guard guard.ConstructorGuard
}

// NewResolveOfferCommand creates a command resolving the given offer.
// Only accepted, rejected and expired are meaningful outcomes here;
// superseded is assigned internally when a resolution arrives too late.
func NewResolveOfferCommand(offerID kernel.UUID, outcome offer.Outcome) (ResolveOfferCommand, error) {
	cmd := ResolveOfferCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setOfferID(offerID); err != nil {
		return ResolveOfferCommand{}, err
	}
	if err := cmd.setOutcome(outcome); err != nil {
		return ResolveOfferCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ResolveOfferCommand) Validate() error {
	return c.guard.Validate(ErrResolveOfferCommandIsNotConstructed)
}

// OfferID returns the offer being resolved.
func (c ResolveOfferCommand) OfferID() kernel.UUID {
	return c.offerID
}

// Outcome returns the requested resolution outcome.
func (c ResolveOfferCommand) Outcome() offer.Outcome {
	return c.outcome
}

func (c *ResolveOfferCommand) setOfferID(offerID kernel.UUID) error {
	if err := offerID.Validate(); err != nil {
		return err
	}
	c.offerID = offerID
	return nil
}

func (c *ResolveOfferCommand) setOutcome(outcome offer.Outcome) error {
	switch outcome {
	case offer.OutcomeAccepted, offer.OutcomeRejected, offer.OutcomeExpired:
		c.outcome = outcome
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("outcome", errors.New(outcome.String()))
	}
}
