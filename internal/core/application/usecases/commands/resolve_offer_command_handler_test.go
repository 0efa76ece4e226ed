package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newResolveHandler(factory commands.DispatchUoWFactory, publisher ports.EventPublisher) commands.ResolveOfferCommandHandler {
	return commands.NewResolveOfferCommandHandler(factory, publisher, testClock, testLogger())
}

func pendingOffer(offerID, orderID, courierID kernel.UUID) *offer.Offer {
	o, err := offer.NewOffer(offerID, orderID, courierID, testTime, testOfferTTL)
	if err != nil {
		panic(err)
	}
	return o
}

func TestResolveOfferCommandHandler_Handle_Accept(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	offerID := kernel.NewUUID()
	candidate := idleCourier(kernel.NewUUID(), 40.4170, -3.7040)
	testOrder := offeredOrder(orderID, offerID)
	testOffer := pendingOffer(offerID, orderID, candidate.ID())

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	offerRepo := new(MockOfferRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("OrderRepository").Return(orderRepo)
	uow.On("CourierRepository").Return(courierRepo)
	uow.On("OfferRepository").Return(offerRepo)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		offerRepo.On("Get", ctx, offerID).Return(testOffer, nil).Once(),
		orderRepo.On("Get", ctx, orderID).Return(testOrder, nil).Once(),
		courierRepo.On("Get", ctx, candidate.ID()).Return(candidate, nil).Once(),
		courierRepo.On("Update", ctx, candidate).Return(nil).Once(),
		offerRepo.On("Update", ctx, testOffer).Return(nil).Once(),
		orderRepo.On("Update", ctx, testOrder).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	publisher.On("Publish", ctx, contracts.DispatchAlertsTopic,
		mock.AnythingOfType("contracts.AssignedMessage")).Return(nil).Once()
	publisher.On("Publish", ctx, contracts.OrderTrackingTopic(orderID.String()),
		mock.AnythingOfType("contracts.AssignedMessage")).Return(nil).Once()

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow).Once()

	cmd, err := commands.NewResolveOfferCommand(offerID, offer.OutcomeAccepted)
	require.NoError(t, err)

	handler := newResolveHandler(factory, publisher)
	err = handler.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, offer.OutcomeAccepted, testOffer.Outcome())
	assert.Equal(t, order.Assigned, testOrder.Status())
	assert.Nil(t, testOrder.CurrentOffer())
	require.NotNil(t, testOrder.Courier())
	assert.True(t, testOrder.Courier().IsEqual(candidate.ID()))
	assert.Equal(t, courier.Busy, candidate.Availability())
	require.NotNil(t, candidate.ActiveOrder())
	assert.True(t, candidate.ActiveOrder().IsEqual(orderID))

	offerRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	courierRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestResolveOfferCommandHandler_Handle_Reject(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	offerID := kernel.NewUUID()
	courierID := kernel.NewUUID()
	testOrder := offeredOrder(orderID, offerID)
	testOffer := pendingOffer(offerID, orderID, courierID)

	orderRepo := new(MockOrderRepository)
	offerRepo := new(MockOfferRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("OfferRepository").Return(offerRepo)

	offerRepo.On("Get", ctx, offerID).Return(testOffer, nil)
	offerRepo.On("Update", ctx, testOffer).Return(nil)
	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)
	orderRepo.On("Update", ctx, testOrder).Return(nil)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewResolveOfferCommand(offerID, offer.OutcomeRejected)
	require.NoError(t, err)

	handler := newResolveHandler(factory, publisher)
	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, offer.OutcomeRejected, testOffer.Outcome())
	assert.Equal(t, order.Pending, testOrder.Status())
	assert.Nil(t, testOrder.CurrentOffer())
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveOfferCommandHandler_Handle_AlreadyResolved(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	offerID := kernel.NewUUID()
	testOffer := pendingOffer(offerID, orderID, kernel.NewUUID())
	require.NoError(t, testOffer.Resolve(offer.OutcomeAccepted))

	offerRepo := new(MockOfferRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OfferRepository").Return(offerRepo)
	offerRepo.On("Get", ctx, offerID).Return(testOffer, nil)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	publisher := new(MockEventPublisher)

	cmd, err := commands.NewResolveOfferCommand(offerID, offer.OutcomeRejected)
	require.NoError(t, err)

	handler := newResolveHandler(factory, publisher)
	err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, offer.ErrOfferAlreadyResolved)
	assert.Equal(t, offer.OutcomeAccepted, testOffer.Outcome())
	uow.AssertNotCalled(t, "Commit", ctx)
}

func TestResolveOfferCommandHandler_Handle_SupersedesOrphanedOffer(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	offerID := kernel.NewUUID()
	// The order already points at a newer offer: this one lost the race.
	testOrder := offeredOrder(orderID, kernel.NewUUID())
	testOffer := pendingOffer(offerID, orderID, kernel.NewUUID())

	orderRepo := new(MockOrderRepository)
	offerRepo := new(MockOfferRepository)
	uow := new(MockUoW)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("OfferRepository").Return(offerRepo)

	offerRepo.On("Get", ctx, offerID).Return(testOffer, nil)
	offerRepo.On("Update", ctx, testOffer).Return(nil)
	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	publisher := new(MockEventPublisher)

	cmd, err := commands.NewResolveOfferCommand(offerID, offer.OutcomeAccepted)
	require.NoError(t, err)

	handler := newResolveHandler(factory, publisher)
	err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, offer.ErrOfferAlreadyResolved)
	assert.Equal(t, offer.OutcomeSuperseded, testOffer.Outcome())
	orderRepo.AssertNotCalled(t, "Update", ctx, testOrder)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveOfferCommandHandler_Handle_LosesOptimisticLockRace(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	offerID := kernel.NewUUID()
	candidate := idleCourier(kernel.NewUUID(), 40.4170, -3.7040)
	testOrder := offeredOrder(orderID, offerID)
	testOffer := pendingOffer(offerID, orderID, candidate.ID())

	orderRepo := new(MockOrderRepository)
	courierRepo := new(MockCourierRepository)
	offerRepo := new(MockOfferRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("CourierRepository").Return(courierRepo)
	uow.On("OfferRepository").Return(offerRepo)

	offerRepo.On("Get", ctx, offerID).Return(testOffer, nil)
	offerRepo.On("Update", ctx, testOffer).Return(nil)
	orderRepo.On("Get", ctx, orderID).Return(testOrder, nil)
	orderRepo.On("Update", ctx, testOrder).Return(ports.ErrConcurrentModification)
	courierRepo.On("Get", ctx, candidate.ID()).Return(candidate, nil)
	courierRepo.On("Update", ctx, candidate).Return(nil)

	factory := new(MockDispatchUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewResolveOfferCommand(offerID, offer.OutcomeAccepted)
	require.NoError(t, err)

	handler := newResolveHandler(factory, publisher)
	err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, offer.ErrOfferAlreadyResolved)
	uow.AssertNotCalled(t, "Commit", ctx)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveOfferCommand_RejectsNonFinalOutcome(t *testing.T) {
	_, err := commands.NewResolveOfferCommand(kernel.NewUUID(), offer.OutcomePending)
	require.Error(t, err)

	_, err = commands.NewResolveOfferCommand(kernel.NewUUID(), offer.OutcomeSuperseded)
	require.Error(t, err)
}

func TestResolveOfferCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.ResolveOfferCommand{} // not constructed properly

	factory := new(MockDispatchUoWFactory)
	handler := newResolveHandler(factory, new(MockEventPublisher))
	err := handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrResolveOfferCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}
