package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/ports"
)

// ReportLocationCommandHandler persists courier position pings and fans
// them out to the fleet topic and, when the courier is executing an order,
// to that order's tracking room.
//
// Location reporting is lossy by contract: a ping that arrives out of
// order, or loses a write race, is dropped without error. The next ping
// carries fresher data anyway.
type ReportLocationCommandHandler struct {
	uowFactory CourierUoWFactory
	publisher  ports.EventPublisher
	log        *slog.Logger
}

// NewReportLocationCommandHandler creates a handler for location reports.
func NewReportLocationCommandHandler(
	uowFactory CourierUoWFactory,
	publisher ports.EventPublisher,
	log *slog.Logger,
) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		log:        log.With("component", "ReportLocationCommandHandler"),
	}
}

// Handle records the ping. Stale pings are silently discarded.
func (h ReportLocationCommandHandler) Handle(ctx context.Context, cmd ReportLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	reporter, err := uow.CourierRepository().Get(ctx, cmd.CourierID())
	if err != nil {
		return err
	}

	if err := reporter.RecordLocation(cmd.Location(), cmd.ReportedAt()); err != nil {
		if errors.Is(err, courier.ErrStaleLocation) {
			return nil
		}
		return err
	}

	if err := uow.CourierRepository().Update(ctx, reporter); err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) {
			return nil
		}
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}

	message := contracts.LocationUpdateMessage{
		Type:      contracts.EventLocationUpdate,
		CourierID: reporter.ID().String(),
		Latitude:  cmd.Location().Latitude(),
		Longitude: cmd.Location().Longitude(),
		Timestamp: cmd.ReportedAt(),
	}

	topics := []string{contracts.FleetTopic}
	if orderID := reporter.ActiveOrder(); orderID != nil {
		message.OrderID = orderID.String()
		topics = append(topics, contracts.OrderTrackingTopic(orderID.String()))
	}

	for _, topic := range topics {
		if err := h.publisher.Publish(ctx, topic, message); err != nil {
			h.log.Error("failed to publish event", "topic", topic, "error", err)
		}
	}

	return nil
}
