package worker

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/infrastructure/observability"
	"github.com/vitas-brc20/dicer/service"
)

const closeRetryDelay = time.Minute

// DrawWorker closes each period once rolling has stopped
type DrawWorker struct {
	draws        service.DrawService
	clock        service.Clock
	caller       string
	periodLength time.Duration
	periodOffset time.Duration
	rollCutoff   time.Duration
}

// NewDrawWorker creates a new draw worker that closes periods as the engine operator
func NewDrawWorker(draws service.DrawService, clock service.Clock, cfg *config.Config) *DrawWorker {
	return &DrawWorker{
		draws:        draws,
		clock:        clock,
		caller:       cfg.AdminToken,
		periodLength: cfg.PeriodLength,
		periodOffset: cfg.PeriodOffset,
		rollCutoff:   cfg.RollCutoff,
	}
}

// Start begins the draw loop and returns a function that stops it
func (w *DrawWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Draw worker started")

		var lastAttempted int64
		for {
			now := w.clock.Now()
			period := service.PeriodAt(now, w.periodLength, w.periodOffset)

			closeAt := service.GetNextCloseTime(now, w.periodLength, w.periodOffset, w.rollCutoff)
			if period.ID() == lastAttempted {
				closeAt = service.GetNextCloseTime(period.End, w.periodLength, w.periodOffset, w.rollCutoff)
			}

			waitDuration := closeAt.Sub(now)
			if waitDuration <= 0 {
				if w.CloseCurrentPeriod(ctx) != observability.CloseResultError {
					lastAttempted = period.ID()
					continue
				}
				// Retry the same period until it leaves the closing window
				waitDuration = closeRetryDelay
			} else {
				log.WithFields(log.Fields{
					"closeAt": closeAt.UTC(),
					"in":      waitDuration.String(),
				}).Info("Next period close scheduled")
			}

			select {
			case <-ctx.Done():
				log.Info("Draw worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw worker shutting down (stop requested)...")
				return
			case <-time.After(waitDuration):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// CloseCurrentPeriod runs one close attempt and reports its result
func (w *DrawWorker) CloseCurrentPeriod(ctx context.Context) string {
	metrics := observability.GetMetrics()

	result, err := w.draws.ClosePeriod(ctx, w.caller)
	switch {
	case err == nil:
		log.WithFields(log.Fields{
			"periodID":       result.Draw.PeriodID,
			"winningOutcome": result.Draw.WinningOutcome,
			"winnerCount":    result.Draw.WinnerCount,
			"totalPaid":      result.TotalPaid(),
		}).Info("Draw worker settled period")
		metrics.RecordCloseAttempt(observability.CloseResultSettled)
		return observability.CloseResultSettled

	case errors.Is(err, service.ErrNoEntries):
		log.Info("No rolls this period, nothing to settle")
		metrics.RecordCloseAttempt(observability.CloseResultNoEntries)
		return observability.CloseResultNoEntries

	case errors.Is(err, service.ErrNoWinners):
		log.Info("No winning rolls this period, pot stays unresolved")
		metrics.RecordCloseAttempt(observability.CloseResultNoWinners)
		return observability.CloseResultNoWinners

	case errors.Is(err, service.ErrPeriodClosed):
		log.Info("Period already settled")
		metrics.RecordCloseAttempt(observability.CloseResultSettled)
		return observability.CloseResultSettled

	default:
		log.WithError(err).Error("Draw worker failed to close period")
		metrics.RecordCloseAttempt(observability.CloseResultError)
		return observability.CloseResultError
	}
}
