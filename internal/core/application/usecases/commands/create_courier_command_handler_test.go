package commands_test

import (
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/courier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateCourierCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()

	cmd, err := commands.NewCreateCourierCommand("Ana Torres", testGeoPoint(40.4170, -3.7040))
	require.NoError(t, err)

	courierRepo := new(MockCourierRepository)
	uow := new(MockUoW)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		courierRepo.On("Add", ctx, mock.AnythingOfType("*courier.Courier")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)
	uow.On("CourierRepository").Return(courierRepo)

	factory := new(MockCourierUoWFactory)
	factory.On("Create").Return(uow).Once()

	handler := commands.NewCreateCourierCommandHandler(factory, testClock)
	require.NoError(t, handler.Handle(ctx, cmd))

	created := courierRepo.Calls[0].Arguments.Get(1).(*courier.Courier)
	assert.True(t, created.ID().IsEqual(cmd.CourierID()))
	assert.Equal(t, "Ana Torres", created.Name())
	assert.Equal(t, courier.Idle, created.Availability())
	assert.Nil(t, created.ActiveOrder())

	courierRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestCreateCourierCommand_RejectsEmptyName(t *testing.T) {
	_, err := commands.NewCreateCourierCommand("", testGeoPoint(40.4170, -3.7040))
	require.ErrorIs(t, err, commands.ErrNameIsRequired)
}

func TestCreateCourierCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.CreateCourierCommand{} // not constructed properly

	factory := new(MockCourierUoWFactory)
	handler := commands.NewCreateCourierCommandHandler(factory, testClock)
	err := handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrCreateCourierCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}
