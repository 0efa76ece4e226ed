// Package jobs contains the scheduled background work that keeps dispatch
// moving: sweeping pending orders into offer rounds and expiring offers
// whose response window elapsed. Both jobs are idempotent per tick, so an
// overlapping or repeated run never double-dispatches.
package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// OrderDispatchJob sweeps dispatchable orders and starts an offer round for
// each. Runs every second so a freshly created or returned order does not
// sit idle.
type OrderDispatchJob struct {
	uowFactory commands.OrderUoWFactory
	handler    commands.DispatchOrderCommandHandler
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewOrderDispatchJob creates the dispatch sweep job.
func NewOrderDispatchJob(
	uowFactory commands.OrderUoWFactory,
	handler commands.DispatchOrderCommandHandler,
	logger *slog.Logger,
) *OrderDispatchJob {
	return &OrderDispatchJob{
		uowFactory: uowFactory,
		handler:    handler,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "order_dispatch_job"),
	}
}

// Start schedules the sweep to run every second.
func (j *OrderDispatchJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		ctx := context.Background()
		if err := j.sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Order dispatch sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Order dispatch job started (running every second)")
	return nil
}

// Stop stops the sweep.
func (j *OrderDispatchJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Order dispatch job stopped")
}

// sweep lists dispatchable orders in one read-only transaction, then runs
// a dispatch round per order. Each round manages its own transaction, so
// one failed order does not block the rest of the sweep.
func (j *OrderDispatchJob) sweep(ctx context.Context) error {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	orders, err := uow.OrderRepository().GetAllDispatchable(ctx)
	if rollbackErr := uow.Rollback(ctx); rollbackErr != nil {
		j.logger.ErrorContext(ctx, "Failed to release sweep transaction", "error", rollbackErr)
	}
	if err != nil {
		return err
	}

	for _, o := range orders {
		cmd, err := commands.NewDispatchOrderCommand(o.ID())
		if err != nil {
			return err
		}

		if err := j.handler.Handle(ctx, cmd); err != nil {
			// A concurrently mutated order is fine, the next sweep sees it.
			if errors.Is(err, commands.ErrOrderIsNotDispatchable) {
				continue
			}
			j.logger.ErrorContext(ctx, "Dispatch round failed",
				"order_id", o.ID().String(), "error", err)
		}
	}
	return nil
}
