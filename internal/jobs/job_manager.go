package jobs

import (
	"fmt"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	orderDispatchJob *OrderDispatchJob
	offerExpiryJob   *OfferExpiryJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	orderUoWFactory commands.OrderUoWFactory,
	dispatchUoWFactory commands.DispatchUoWFactory,
	dispatchHandler commands.DispatchOrderCommandHandler,
	resolveHandler commands.ResolveOfferCommandHandler,
	clock commands.Clock,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		orderDispatchJob: NewOrderDispatchJob(orderUoWFactory, dispatchHandler, logger),
		offerExpiryJob:   NewOfferExpiryJob(dispatchUoWFactory, resolveHandler, clock, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.orderDispatchJob.Start(); err != nil {
		return fmt.Errorf("failed to start order dispatch job: %w", err)
	}

	if err := jm.offerExpiryJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.orderDispatchJob.Stop()
		return fmt.Errorf("failed to start offer expiry job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.orderDispatchJob.Stop()
	jm.offerExpiryJob.Stop()
}
