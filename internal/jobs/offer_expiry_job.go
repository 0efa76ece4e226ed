package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/offer"

	"github.com/robfig/cron/v3"
)

// OfferExpiryJob enforces offer deadlines server side. Runs every second,
// finds pending offers whose window elapsed, and resolves each as expired
// through the same path a courier rejection takes. A courier response that
// lands in the same tick simply wins or loses the resolution race.
type OfferExpiryJob struct {
	uowFactory commands.DispatchUoWFactory
	handler    commands.ResolveOfferCommandHandler
	clock      commands.Clock
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewOfferExpiryJob creates the offer expiry job.
func NewOfferExpiryJob(
	uowFactory commands.DispatchUoWFactory,
	handler commands.ResolveOfferCommandHandler,
	clock commands.Clock,
	logger *slog.Logger,
) *OfferExpiryJob {
	return &OfferExpiryJob{
		uowFactory: uowFactory,
		handler:    handler,
		clock:      clock,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "offer_expiry_job"),
	}
}

// Start schedules the expiry scan to run every second.
func (j *OfferExpiryJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		ctx := context.Background()
		if err := j.scan(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Offer expiry scan failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Offer expiry job started (running every second)")
	return nil
}

// Stop stops the expiry scan.
func (j *OfferExpiryJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Offer expiry job stopped")
}

func (j *OfferExpiryJob) scan(ctx context.Context) error {
	deadline := j.clock()

	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	expired, err := uow.OfferRepository().GetPendingExpiredBefore(ctx, deadline)
	if rollbackErr := uow.Rollback(ctx); rollbackErr != nil {
		j.logger.ErrorContext(ctx, "Failed to release scan transaction", "error", rollbackErr)
	}
	if err != nil {
		return err
	}

	for _, o := range expired {
		cmd, err := commands.NewResolveOfferCommand(o.ID(), offer.OutcomeExpired)
		if err != nil {
			return err
		}

		if err := j.handler.Handle(ctx, cmd); err != nil {
			// The courier answered between the scan and the resolution.
			if errors.Is(err, offer.ErrOfferAlreadyResolved) {
				continue
			}
			j.logger.ErrorContext(ctx, "Offer expiry failed",
				"offer_id", o.ID().String(), "error", err)
		}
	}
	return nil
}
