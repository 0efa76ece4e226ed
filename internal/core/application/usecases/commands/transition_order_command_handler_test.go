package commands_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/envelope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTransitionHandler(
	t *testing.T,
	factory commands.DispatchUoWFactory,
	publisher ports.EventPublisher,
) (commands.TransitionOrderCommandHandler, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	handler := commands.NewTransitionOrderCommandHandler(factory, publisher, key, testClock, testLogger())
	return handler, key
}

func sealProof(t *testing.T, key *rsa.PrivateKey, payload map[string]any) *envelope.Envelope {
	t.Helper()

	plaintext, err := json.Marshal(payload)
	require.NoError(t, err)

	env, err := envelope.Encrypt(plaintext, &key.PublicKey)
	require.NoError(t, err)
	return &env
}

func TestTransitionOrderCommandHandler_Handle_PickedUp(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	testOrder := restoredOrder(orderID, order.Assigned, &courierID, false)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)

	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)
	orderRepo.On("Update", ctx, testOrder).Return(nil)

	publisher.On("Publish", ctx, contracts.DispatchAlertsTopic,
		mock.AnythingOfType("contracts.StatusUpdateMessage")).Return(nil).Once()
	publisher.On("Publish", ctx, contracts.OrderTrackingTopic(orderID.String()),
		mock.AnythingOfType("contracts.StatusUpdateMessage")).Return(nil).Once()
	publisher.On("Publish", ctx, contracts.CourierTopic(courierID.String()),
		mock.AnythingOfType("contracts.StatusUpdateMessage")).Return(nil).Once()

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewTransitionOrderCommand(orderID, order.Assigned, order.PickedUp, nil)
	require.NoError(t, err)

	handler, _ := newTransitionHandler(t, factory, publisher)
	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, order.PickedUp, testOrder.Status())

	published := publisher.Calls[0].Arguments.Get(2).(contracts.StatusUpdateMessage)
	assert.Equal(t, contracts.EventStatusUpdate, published.Type)
	assert.Equal(t, "picked_up", published.Status)
	assert.Equal(t, courierID.String(), published.CourierID)
	publisher.AssertExpectations(t)
}

func TestTransitionOrderCommandHandler_Handle_IdempotentRepeat(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	testOrder := restoredOrder(orderID, order.PickedUp, &courierID, false)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	// A duplicate tap restates the transition that already happened.
	cmd, err := commands.NewTransitionOrderCommand(orderID, order.Assigned, order.PickedUp, nil)
	require.NoError(t, err)

	handler, _ := newTransitionHandler(t, factory, publisher)
	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, order.PickedUp, testOrder.Status())
	orderRepo.AssertNotCalled(t, "Update", ctx, testOrder)
	uow.AssertNotCalled(t, "Commit", ctx)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionOrderCommandHandler_Handle_StaleTransition(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	testOrder := restoredOrder(orderID, order.InTransit, &courierID, false)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewTransitionOrderCommand(orderID, order.Assigned, order.PickedUp, nil)
	require.NoError(t, err)

	handler, _ := newTransitionHandler(t, factory, new(MockEventPublisher))
	err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, order.ErrStaleTransition)

	var stale *order.StaleTransitionError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, order.InTransit, stale.Actual)
	assert.Equal(t, order.InTransit, testOrder.Status())
}

func TestTransitionOrderCommandHandler_Handle_Delivered(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	testOrder := restoredOrder(orderID, order.InTransit, &courierID, false)
	assignee := busyCourier(courierID, orderID)

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("CourierRepository").Return(courierRepo)

	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)
	orderRepo.On("Update", ctx, testOrder).Return(nil)
	courierRepo.On("Get", ctx, courierID).Return(assignee, nil)
	courierRepo.On("Update", ctx, assignee).Return(nil)

	publisher.On("Publish", ctx, mock.AnythingOfType("string"),
		mock.AnythingOfType("contracts.StatusUpdateMessage")).Return(nil).Times(3)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	handler, key := newTransitionHandler(t, factory, publisher)

	env := sealProof(t, key, map[string]any{
		"signature_ref": "sig/2025/06/15/abc123.png",
		"lat":           40.4530,
		"lng":           -3.6883,
		"captured_at":   testTime,
	})

	cmd, err := commands.NewTransitionOrderCommand(orderID, order.InTransit, order.Delivered, env)
	require.NoError(t, err)

	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, order.Delivered, testOrder.Status())
	require.NotNil(t, testOrder.Proof())
	assert.Equal(t, "sig/2025/06/15/abc123.png", testOrder.Proof().SignatureRef())
	assert.Equal(t, courier.Idle, assignee.Availability())
	assert.Nil(t, assignee.ActiveOrder())
	publisher.AssertExpectations(t)
}

func TestTransitionOrderCommandHandler_Handle_DeliveredRejectsTamperedEnvelope(t *testing.T) {
	ctx := t.Context()

	factory := new(MockDispatchUoWFactory)
	handler, key := newTransitionHandler(t, factory, new(MockEventPublisher))

	env := sealProof(t, key, map[string]any{
		"signature_ref": "sig/abc.png",
		"lat":           40.4530,
		"lng":           -3.6883,
		"captured_at":   testTime,
	})
	// Flip one ciphertext bit; GCM authentication must reject it.
	raw := []byte(env.Payload)
	raw[10] ^= 0x01
	env.Payload = string(raw)

	cmd, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), order.InTransit, order.Delivered, env)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)
	require.ErrorIs(t, err, envelope.ErrDecryptionFailed)
	factory.AssertNotCalled(t, "Create")
}

func TestTransitionOrderCommandHandler_Handle_DeliveredWithoutEnvelope(t *testing.T) {
	ctx := t.Context()

	factory := new(MockDispatchUoWFactory)
	handler, _ := newTransitionHandler(t, factory, new(MockEventPublisher))

	cmd, err := commands.NewTransitionOrderCommand(kernel.NewUUID(), order.InTransit, order.Delivered, nil)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)
	require.ErrorIs(t, err, order.ErrInvalidProofPayload)
	factory.AssertNotCalled(t, "Create")
}

func TestTransitionOrderCommandHandler_Handle_DeliveredRequiresLegalIdentity(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	testOrder := restoredOrder(orderID, order.InTransit, &courierID, true)

	orderRepo := new(MockOrderRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	handler, key := newTransitionHandler(t, factory, new(MockEventPublisher))

	env := sealProof(t, key, map[string]any{
		"signature_ref": "sig/abc.png",
		"lat":           40.4530,
		"lng":           -3.6883,
		"captured_at":   testTime,
	})

	cmd, err := commands.NewTransitionOrderCommand(orderID, order.InTransit, order.Delivered, env)
	require.NoError(t, err)

	err = handler.Handle(ctx, cmd)
	require.ErrorIs(t, err, order.ErrMissingLegalIdentity)
	assert.Equal(t, order.InTransit, testOrder.Status())
	uow.AssertNotCalled(t, "Commit", ctx)
}

func TestTransitionOrderCommandHandler_Handle_CancelSupersedesPendingOffer(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	offerID := kernel.NewUUID()
	testOrder := offeredOrder(orderID, offerID)
	testOffer := pendingOffer(offerID, orderID, kernel.NewUUID())

	orderRepo := new(MockOrderRepository)
	offerRepo := new(MockOfferRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("OfferRepository").Return(offerRepo)

	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)
	orderRepo.On("Update", ctx, testOrder).Return(nil)
	offerRepo.On("Get", ctx, offerID).Return(testOffer, nil)
	offerRepo.On("Update", ctx, testOffer).Return(nil)

	publisher.On("Publish", ctx, mock.AnythingOfType("string"),
		mock.AnythingOfType("contracts.StatusUpdateMessage")).Return(nil).Times(2)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewTransitionOrderCommand(orderID, order.Offered, order.Cancelled, nil)
	require.NoError(t, err)

	handler, _ := newTransitionHandler(t, factory, publisher)
	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, order.Cancelled, testOrder.Status())
	assert.Nil(t, testOrder.CurrentOffer())
	assert.Equal(t, offer.OutcomeSuperseded, testOffer.Outcome())
	publisher.AssertExpectations(t)
}
