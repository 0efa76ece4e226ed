package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/metrics"
)

// ErrOrderIsNotDispatchable is returned when the order is no longer in a
// state that accepts a new offer round (already offered, assigned, cancelled
// or escalated to manual dispatch).
var ErrOrderIsNotDispatchable = errors.New("order is not dispatchable")

// DispatchOrderCommandHandler runs a single offer round: pick the closest
// idle courier that has not declined this order yet, create a pending offer
// with a deadline and notify the courier. When no candidate remains, or the
// configured number of rounds is exhausted, the order is escalated to manual
// dispatch and an alert is published.
type DispatchOrderCommandHandler struct {
	uowFactory DispatchUoWFactory
	selector   services.CandidateSelector
	publisher  ports.EventPublisher
	offerTTL   time.Duration
	maxRounds  int
	clock      Clock
	log        *slog.Logger
}

// NewDispatchOrderCommandHandler creates a handler for offer rounds.
// offerTTL bounds how long a courier may hold an offer; maxRounds bounds the
// number of couriers tried before escalating to manual dispatch.
func NewDispatchOrderCommandHandler(
	uowFactory DispatchUoWFactory,
	selector services.CandidateSelector,
	publisher ports.EventPublisher,
	offerTTL time.Duration,
	maxRounds int,
	clock Clock,
	log *slog.Logger,
) DispatchOrderCommandHandler {
	return DispatchOrderCommandHandler{
		uowFactory: uowFactory,
		selector:   selector,
		publisher:  publisher,
		offerTTL:   offerTTL,
		maxRounds:  maxRounds,
		clock:      clock,
		log:        log.With("component", "DispatchOrderCommandHandler"),
	}
}

// Handle executes one offer round for the order named in the command.
func (h DispatchOrderCommandHandler) Handle(ctx context.Context, cmd DispatchOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	aggregate, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if aggregate.Status() != order.Pending || aggregate.NeedsManualDispatch() {
		return ErrOrderIsNotDispatchable
	}

	rounds, err := uow.OfferRepository().CountForOrder(ctx, aggregate.ID())
	if err != nil {
		return err
	}
	if rounds >= h.maxRounds {
		return h.escalate(ctx, uow, aggregate, "offer rounds exhausted", rounds)
	}

	declined, err := uow.OfferRepository().GetDeclinedCourierIDs(ctx, aggregate.ID())
	if err != nil {
		return err
	}

	idleCouriers, err := uow.CourierRepository().GetAllIdle(ctx)
	if err != nil {
		return err
	}

	candidate, err := h.selector.Select(aggregate, idleCouriers, declined)
	if errors.Is(err, services.ErrNoCandidateCourier) {
		return h.escalate(ctx, uow, aggregate, "no candidate courier available", rounds)
	}
	if err != nil {
		return err
	}

	now := h.clock()
	newOffer, err := offer.NewOffer(kernel.NewUUID(), aggregate.ID(), candidate.ID(), now, h.offerTTL)
	if err != nil {
		return err
	}

	if err := aggregate.MarkOffered(newOffer.ID()); err != nil {
		return err
	}

	if err := uow.OfferRepository().Add(ctx, newOffer); err != nil {
		return err
	}
	if err := uow.OrderRepository().Update(ctx, aggregate); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			// Someone touched the order mid-round. Drop this round and let
			// the next sweep re-read the current state.
			return nil
		}
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}
	metrics.OffersIssued.Inc()

	h.publish(ctx, contracts.CourierTopic(candidate.ID().String()), contracts.OfferMessage{
		Type:        contracts.EventOffer,
		OfferID:     newOffer.ID().String(),
		OrderID:     aggregate.ID().String(),
		OrderNumber: aggregate.Number(),
		Pickup:      geoPointPayload(aggregate.Pickup()),
		Delivery:    geoPointPayload(aggregate.Delivery()),
		Price:       aggregate.Price(),
		ExpiresAt:   newOffer.ExpiresAt(),
	})

	return nil
}

// escalate marks the order for manual dispatch and alerts dispatchers.
// The order stays pending so a dispatcher can assign it by hand.
func (h DispatchOrderCommandHandler) escalate(
	ctx context.Context,
	uow DispatchUoW,
	aggregate *order.Order,
	reason string,
	rounds int,
) error {
	if err := aggregate.MarkNeedsManualDispatch(); err != nil {
		return err
	}

	if err := uow.OrderRepository().Update(ctx, aggregate); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			return nil
		}
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}
	metrics.DispatchEscalations.Inc()

	h.log.Warn("order needs manual dispatch",
		"order_id", aggregate.ID().String(),
		"order_number", aggregate.Number(),
		"reason", reason,
		"rounds", rounds)

	h.publish(ctx, contracts.DispatchAlertsTopic, contracts.DispatchFailedAlertMessage{
		Type:        contracts.EventDispatchFailedAlert,
		OrderID:     aggregate.ID().String(),
		OrderNumber: aggregate.Number(),
		Reason:      reason,
		OccurredAt:  h.clock(),
	})

	return nil
}

func (h DispatchOrderCommandHandler) publish(ctx context.Context, topic string, message any) {
	if err := h.publisher.Publish(ctx, topic, message); err != nil {
		h.log.Error("failed to publish event", "topic", topic, "error", err)
	}
}

func geoPointPayload(point kernel.GeoPoint) contracts.GeoPointPayload {
	return contracts.GeoPointPayload{
		Latitude:  point.Latitude(),
		Longitude: point.Longitude(),
		Address:   point.Address(),
	}
}
