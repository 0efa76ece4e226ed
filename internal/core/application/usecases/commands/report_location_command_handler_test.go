package commands_test

import (
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/contracts"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportLocationCommandHandler_Handle_PublishesToFleet(t *testing.T) {
	ctx := t.Context()

	reporter := idleCourier(kernel.NewUUID(), 40.4170, -3.7040)
	position := testGeoPoint(40.4200, -3.7000)
	reportedAt := testTime.Add(time.Minute)

	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("CourierRepository").Return(courierRepo)

	courierRepo.On("Get", ctx, reporter.ID()).Return(reporter, nil)
	courierRepo.On("Update", ctx, reporter).Return(nil)

	publisher.On("Publish", ctx, contracts.FleetTopic,
		mock.AnythingOfType("contracts.LocationUpdateMessage")).Return(nil).Once()

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewReportLocationCommand(reporter.ID(), position, reportedAt)
	require.NoError(t, err)

	handler := commands.NewReportLocationCommandHandler(factory, publisher, testLogger())
	require.NoError(t, handler.Handle(ctx, cmd))

	assert.True(t, reporter.Location().IsEqual(position))
	assert.Equal(t, reportedAt, reporter.LocationAt())

	published := publisher.Calls[0].Arguments.Get(2).(contracts.LocationUpdateMessage)
	assert.Equal(t, contracts.EventLocationUpdate, published.Type)
	assert.Empty(t, published.OrderID)
	publisher.AssertExpectations(t)
}

func TestReportLocationCommandHandler_Handle_PublishesToTrackingRoomWhenBusy(t *testing.T) {
	ctx := t.Context()

	orderID := kernel.NewUUID()
	reporter := busyCourier(kernel.NewUUID(), orderID)
	position := testGeoPoint(40.4200, -3.7000)
	reportedAt := testTime.Add(time.Minute)

	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Commit", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("CourierRepository").Return(courierRepo)

	courierRepo.On("Get", ctx, reporter.ID()).Return(reporter, nil)
	courierRepo.On("Update", ctx, reporter).Return(nil)

	publisher.On("Publish", ctx, contracts.FleetTopic,
		mock.AnythingOfType("contracts.LocationUpdateMessage")).Return(nil).Once()
	publisher.On("Publish", ctx, contracts.OrderTrackingTopic(orderID.String()),
		mock.AnythingOfType("contracts.LocationUpdateMessage")).Return(nil).Once()

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewReportLocationCommand(reporter.ID(), position, reportedAt)
	require.NoError(t, err)

	handler := commands.NewReportLocationCommandHandler(factory, publisher, testLogger())
	require.NoError(t, handler.Handle(ctx, cmd))

	published := publisher.Calls[1].Arguments.Get(2).(contracts.LocationUpdateMessage)
	assert.Equal(t, orderID.String(), published.OrderID)
	publisher.AssertExpectations(t)
}

func TestReportLocationCommandHandler_Handle_DiscardsStalePing(t *testing.T) {
	ctx := t.Context()

	reporter := idleCourier(kernel.NewUUID(), 40.4170, -3.7040)
	position := testGeoPoint(40.4200, -3.7000)

	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("CourierRepository").Return(courierRepo)
	courierRepo.On("Get", ctx, reporter.ID()).Return(reporter, nil)

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow)

	// Reported before the courier's last known position was captured.
	cmd, err := commands.NewReportLocationCommand(reporter.ID(), position, testTime.Add(-time.Minute))
	require.NoError(t, err)

	handler := commands.NewReportLocationCommandHandler(factory, publisher, testLogger())
	require.NoError(t, handler.Handle(ctx, cmd))

	assert.Equal(t, testTime, reporter.LocationAt())
	courierRepo.AssertNotCalled(t, "Update", ctx, reporter)
	uow.AssertNotCalled(t, "Commit", ctx)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportLocationCommandHandler_Handle_DropsPingOnConcurrentModification(t *testing.T) {
	ctx := t.Context()

	reporter := idleCourier(kernel.NewUUID(), 40.4170, -3.7040)
	position := testGeoPoint(40.4200, -3.7000)

	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)
	publisher := new(MockEventPublisher)

	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback", ctx).Return(nil)
	uow.On("CourierRepository").Return(courierRepo)
	courierRepo.On("Get", ctx, reporter.ID()).Return(reporter, nil)
	courierRepo.On("Update", ctx, reporter).Return(ports.ErrConcurrentModification)

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow)

	cmd, err := commands.NewReportLocationCommand(reporter.ID(), position, testTime.Add(time.Minute))
	require.NoError(t, err)

	handler := commands.NewReportLocationCommandHandler(factory, publisher, testLogger())
	require.NoError(t, handler.Handle(ctx, cmd))

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestReportLocationCommand_ValidationErrors(t *testing.T) {
	position := testGeoPoint(40.4200, -3.7000)

	t.Run("should reject zero courier id", func(t *testing.T) {
		_, err := commands.NewReportLocationCommand(kernel.UUID{}, position, testTime)
		require.Error(t, err)
	})

	t.Run("should reject zero reported time", func(t *testing.T) {
		_, err := commands.NewReportLocationCommand(kernel.NewUUID(), position, time.Time{})
		require.Error(t, err)
	})

	t.Run("should reject unconstructed command", func(t *testing.T) {
		cmd := commands.ReportLocationCommand{}
		require.ErrorIs(t, cmd.Validate(), commands.ErrReportLocationCommandIsNotConstructed)
	})
}
