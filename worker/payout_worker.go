package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/service"
)

const payoutSweepBatch = 100

// PayoutWorker finalizes pending payouts on a cron schedule
type PayoutWorker struct {
	payouts  service.PayoutService
	caller   string
	schedule string
	mu       sync.Mutex // one sweep at a time
}

// NewPayoutWorker creates a new payout worker
func NewPayoutWorker(payouts service.PayoutService, cfg *config.Config) *PayoutWorker {
	return &PayoutWorker{
		payouts:  payouts,
		caller:   cfg.AdminToken,
		schedule: cfg.PayoutSweepSchedule,
	}
}

// Start schedules the sweep and returns a function that stops it
func (w *PayoutWorker) Start(ctx context.Context) (func(), error) {
	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() {
		if _, err := w.Sweep(ctx); err != nil {
			log.WithError(err).Error("Payout sweep failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid payout sweep schedule %q: %w", w.schedule, err)
	}

	c.Start()
	log.WithField("schedule", w.schedule).Info("Payout worker started")

	return func() {
		<-c.Stop().Done()
		log.Info("Payout worker stopped")
	}, nil
}

// Sweep finalizes pending payouts oldest first and returns how many succeeded.
// A failed payout stays pending for the next sweep.
func (w *PayoutWorker) Sweep(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending, err := w.payouts.ListPending(ctx, payoutSweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending payouts: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var successCount, failureCount int
	for _, payout := range pending {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.payouts.Finalize(ctx, w.caller, payout.ID); err != nil {
			log.WithFields(log.Fields{
				"payoutID": payout.ID,
				"winner":   payout.WinnerAccount,
				"error":    err,
			}).Warn("Failed to finalize payout")
			failureCount++
			continue
		}
		successCount++
	}

	log.WithFields(log.Fields{
		"pending":    len(pending),
		"successful": successCount,
		"failed":     failureCount,
	}).Info("Completed payout sweep")

	return successCount, nil
}
