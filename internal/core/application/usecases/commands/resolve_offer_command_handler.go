package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/metrics"
)

// ResolveOfferCommandHandler applies exactly one resolution to an offer.
// Accept, reject and timeout race against each other; the optimistic lock
// on the order row is the serialization point, so concurrent attempts for
// the same offer collapse to a single winner and silent no-ops.
//
// Accepted: the courier wins, the order is assigned and the courier goes
// busy. Rejected or expired: the order returns to pending and the next
// dispatch sweep tries the remaining candidates.
type ResolveOfferCommandHandler struct {
	uowFactory DispatchUoWFactory
	publisher  ports.EventPublisher
	clock      Clock
	log        *slog.Logger
}

// NewResolveOfferCommandHandler creates a handler for offer resolution.
func NewResolveOfferCommandHandler(
	uowFactory DispatchUoWFactory,
	publisher ports.EventPublisher,
	clock Clock,
	log *slog.Logger,
) ResolveOfferCommandHandler {
	return ResolveOfferCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		clock:      clock,
		log:        log.With("component", "ResolveOfferCommandHandler"),
	}
}

// Handle resolves the offer named in the command. Returns
// offer.ErrOfferAlreadyResolved when another resolution won the race.
func (h ResolveOfferCommandHandler) Handle(ctx context.Context, cmd ResolveOfferCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	pendingOffer, err := uow.OfferRepository().Get(ctx, cmd.OfferID())
	if err != nil {
		return err
	}
	if !pendingOffer.IsPending() {
		return offer.ErrOfferAlreadyResolved
	}

	aggregate, err := uow.OrderRepository().Get(ctx, pendingOffer.OrderID())
	if err != nil {
		return err
	}

	// The order no longer points at this offer: a competing resolution
	// already won and moved the order on. Tag the attempt and bail out.
	if aggregate.CurrentOffer() == nil || !aggregate.CurrentOffer().IsEqual(pendingOffer.ID()) {
		return h.supersede(ctx, uow, pendingOffer)
	}

	if err := pendingOffer.Resolve(cmd.Outcome()); err != nil {
		return err
	}

	var winner *contracts.AssignedMessage

	switch cmd.Outcome() {
	case offer.OutcomeAccepted:
		assignee, err := uow.CourierRepository().Get(ctx, pendingOffer.CourierID())
		if err != nil {
			return err
		}
		if err := assignee.TakeOrder(aggregate.ID(), h.clock()); err != nil {
			return err
		}
		if err := aggregate.Assign(assignee.ID()); err != nil {
			return err
		}
		if err := uow.CourierRepository().Update(ctx, assignee); err != nil {
			return err
		}
		winner = &contracts.AssignedMessage{
			Type:        contracts.EventAssigned,
			OrderID:     aggregate.ID().String(),
			OrderNumber: aggregate.Number(),
			CourierID:   assignee.ID().String(),
			CourierName: assignee.Name(),
		}
	case offer.OutcomeRejected, offer.OutcomeExpired:
		if err := aggregate.ReturnToPending(); err != nil {
			return err
		}
	default:
		return errs.NewValueIsInvalidError("outcome")
	}

	if err := uow.OfferRepository().Update(ctx, pendingOffer); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			return offer.ErrOfferAlreadyResolved
		}
		return err
	}
	if err := uow.OrderRepository().Update(ctx, aggregate); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			// Lost the optimistic lock race on the order row. The winning
			// resolution owns the state change; report this one as late.
			return offer.ErrOfferAlreadyResolved
		}
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}
	metrics.OffersResolved.WithLabelValues(cmd.Outcome().String()).Inc()

	if winner != nil {
		h.publishAssigned(ctx, aggregate.ID().String(), *winner)
	}

	return nil
}

// supersede closes an orphaned pending offer in its own right and reports
// the resolution attempt as late.
func (h ResolveOfferCommandHandler) supersede(
	ctx context.Context,
	uow DispatchUoW,
	pendingOffer *offer.Offer,
) error {
	if err := pendingOffer.Resolve(offer.OutcomeSuperseded); err != nil {
		return err
	}
	if err := uow.OfferRepository().Update(ctx, pendingOffer); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			return offer.ErrOfferAlreadyResolved
		}
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}
	metrics.OffersResolved.WithLabelValues(offer.OutcomeSuperseded.String()).Inc()
	return offer.ErrOfferAlreadyResolved
}

func (h ResolveOfferCommandHandler) publishAssigned(
	ctx context.Context,
	orderID string,
	message contracts.AssignedMessage,
) {
	for _, topic := range []string{
		contracts.DispatchAlertsTopic,
		contracts.OrderTrackingTopic(orderID),
	} {
		if err := h.publisher.Publish(ctx, topic, message); err != nil {
			h.log.Error("failed to publish event", "topic", topic, "error", err)
		}
	}
}
