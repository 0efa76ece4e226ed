package commands

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/envelope"
)

// proofPayload is the plaintext carried inside a proof envelope. It holds
// personal data (recipient identity for legal or valuable shipments), which
// is why it only ever travels encrypted.
type proofPayload struct {
	SignatureRef      string    `json:"signature_ref"`
	Latitude          float64   `json:"lat"`
	Longitude         float64   `json:"lng"`
	Address           string    `json:"address,omitempty"`
	CapturedAt        time.Time `json:"captured_at"`
	RecipientName     string    `json:"recipient_name,omitempty"`
	RecipientIDNumber string    `json:"recipient_id_number,omitempty"`
}

// TransitionOrderCommandHandler applies execution-phase status transitions.
// Delivered additionally opens the submitted proof envelope with the
// service private key and validates the proof against the order's legal or
// valuable flag. Terminal transitions free the assigned courier. Every
// committed change fans out as a status_update event.
type TransitionOrderCommandHandler struct {
	uowFactory DispatchUoWFactory
	publisher  ports.EventPublisher
	privateKey *rsa.PrivateKey
	clock      Clock
	log        *slog.Logger
}

// NewTransitionOrderCommandHandler creates a handler for status transitions.
// privateKey decrypts proof of delivery envelopes.
func NewTransitionOrderCommandHandler(
	uowFactory DispatchUoWFactory,
	publisher ports.EventPublisher,
	privateKey *rsa.PrivateKey,
	clock Clock,
	log *slog.Logger,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		privateKey: privateKey,
		clock:      clock,
		log:        log.With("component", "TransitionOrderCommandHandler"),
	}
}

// Handle applies the transition named in the command. A repeated request
// for the current status succeeds without side effects.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	var (
		proof *order.ProofOfDelivery
		err   error
	)
	if cmd.Target() == order.Delivered {
		proof, err = h.openProof(cmd.Proof())
		if err != nil {
			return err
		}
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

	priorOfferID := aggregate.CurrentOffer()

	// The transition clears the courier pointer on cancellation, so take
	// the assignee before applying it.
	var courierID *kernel.UUID
	if id := aggregate.Courier(); id != nil {
		copied := *id
		courierID = &copied
	}

	changed, err := aggregate.TransitionTo(cmd.Expected(), cmd.Target(), proof)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if aggregate.Status().IsTerminal() && courierID != nil {
		assignee, err := uow.CourierRepository().Get(ctx, *courierID)
		if err != nil {
			return err
		}
		if err := assignee.ReleaseOrder(h.clock()); err != nil {
			return err
		}
		if err := uow.CourierRepository().Update(ctx, assignee); err != nil {
			return err
		}
	}

	// Cancelling an offered order leaves its pending offer orphaned; close
	// it so expiry sweeps and decline queries see a final outcome.
	if cmd.Target() == order.Cancelled && priorOfferID != nil {
		orphan, err := uow.OfferRepository().Get(ctx, *priorOfferID)
		if err != nil {
			return err
		}
		if orphan.IsPending() {
			if err := orphan.Resolve(offer.OutcomeSuperseded); err != nil {
				return err
			}
			err := uow.OfferRepository().Update(ctx, orphan)
			if err != nil && !errors.Is(err, ports.ErrConcurrentModification) {
				return err
			}
		}
	}

	if err := uow.OrderRepository().Update(ctx, aggregate); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}

	h.publishStatusUpdate(ctx, aggregate, courierID)
	return nil
}

// openProof decrypts and validates the proof envelope. Any cryptographic
// failure surfaces as envelope.ErrDecryptionFailed; a well-decrypted but
// malformed payload surfaces as order.ErrInvalidProofPayload.
func (h TransitionOrderCommandHandler) openProof(env *envelope.Envelope) (*order.ProofOfDelivery, error) {
	if env == nil {
		return nil, order.ErrInvalidProofPayload
	}

	plaintext, err := envelope.Decrypt(*env, h.privateKey)
	if err != nil {
		return nil, err
	}

	var payload proofPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, errors.Join(order.ErrInvalidProofPayload, err)
	}

	location, err := kernel.NewGeoPoint(payload.Latitude, payload.Longitude, payload.Address)
	if err != nil {
		return nil, errors.Join(order.ErrInvalidProofPayload, err)
	}

	proof, err := order.NewProofOfDelivery(
		payload.SignatureRef,
		location,
		payload.CapturedAt,
		payload.RecipientName,
		payload.RecipientIDNumber,
	)
	if err != nil {
		return nil, errors.Join(order.ErrInvalidProofPayload, err)
	}

	return &proof, nil
}

func (h TransitionOrderCommandHandler) publishStatusUpdate(
	ctx context.Context,
	aggregate *order.Order,
	courierID *kernel.UUID,
) {
	message := contracts.StatusUpdateMessage{
		Type:        contracts.EventStatusUpdate,
		OrderID:     aggregate.ID().String(),
		OrderNumber: aggregate.Number(),
		Status:      aggregate.Status().String(),
		OccurredAt:  h.clock(),
	}

	topics := []string{
		contracts.DispatchAlertsTopic,
		contracts.OrderTrackingTopic(aggregate.ID().String()),
	}
	if courierID != nil {
		message.CourierID = courierID.String()
		topics = append(topics, contracts.CourierTopic(courierID.String()))
	}

	for _, topic := range topics {
		if err := h.publisher.Publish(ctx, topic, message); err != nil {
			h.log.Error("failed to publish event", "topic", topic, "error", err)
		}
	}
}
