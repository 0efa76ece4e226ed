package commands

import (
	"context"
	"fmt"
	"math/rand/v2"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/metrics"
)

// CreateOrderCommandHandler handles order registration. New orders enter in
// pending status with a generated human-readable number; the periodic
// dispatch sweep issues the first offer.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	clock      Clock
}

// NewCreateOrderCommandHandler creates a handler for order registration.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, clock Clock) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle processes the order creation command inside a transaction.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	newOrder, err := order.NewOrder(
		cmd.OrderID(),
		generateOrderNumber(),
		cmd.Pickup(),
		cmd.Delivery(),
		cmd.Price(),
		cmd.LegalOrValuable(),
		h.clock(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	metrics.OrdersCreated.Inc()
	return nil
}

// generateOrderNumber mints a short human-readable number for dispatcher
// screens and support calls. Uniqueness is not guaranteed; the UUID is the
// identity.
func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%06d", rand.IntN(1000000))
}
