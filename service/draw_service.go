package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"

	log "github.com/sirupsen/logrus"
)

type drawService struct {
	uowFactory     UnitOfWorkFactory
	authorizer     Authorizer
	clock          Clock
	outcomes       OutcomeGenerator
	disburser      payoutDisburser
	periodLength   time.Duration
	periodOffset   time.Duration
	rollCutoff     time.Duration
	payoutFraction decimal.Decimal
	directPayout   bool
}

// NewDrawService creates a new draw engine service.
// The transferer is only used when the payout mode is direct.
func NewDrawService(uowFactory UnitOfWorkFactory, cfg *config.Config, authorizer Authorizer, clock Clock, outcomes OutcomeGenerator, transferer Transferer) DrawService {
	return &drawService{
		uowFactory:     uowFactory,
		authorizer:     authorizer,
		clock:          clock,
		outcomes:       outcomes,
		disburser:      newPayoutDisburser(uowFactory, cfg, clock, transferer),
		periodLength:   cfg.PeriodLength,
		periodOffset:   cfg.PeriodOffset,
		rollCutoff:     cfg.RollCutoff,
		payoutFraction: cfg.GetPayoutFraction(),
		directPayout:   cfg.IsDirectPayout(),
	}
}

// ClosePeriod settles the period containing the current time. The scan, the
// draw row, the payout batch and the roll deletion commit together or not at all.
// In direct mode each entry is paid after that commit in its own unit of work,
// so a failed transfer leaves only that entry pending.
func (s *drawService) ClosePeriod(ctx context.Context, caller string) (*models.DrawResult, error) {
	if err := s.authorizer.AuthorizePrivileged(ctx, caller); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	drawRepo := uow.WinningDrawRepository()
	if err := drawRepo.AcquireSettlementLock(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire settlement lock: %w", err)
	}

	now := s.clock.Now()
	period := PeriodAt(now, s.periodLength, s.periodOffset)
	if s.rollCutoff > 0 && now.Before(period.CutoffAt(s.rollCutoff)) {
		log.WithFields(log.Fields{
			"periodID": period.ID(),
			"cutoffAt": period.CutoffAt(s.rollCutoff),
		}).Warn("Closing period before its roll cutoff, later rolls this period will be refused")
	}

	rolls, err := uow.RollRepository().GetInRangeForUpdate(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rolls: %w", err)
	}

	pot := int64(len(rolls)) * models.TicketPrice
	if pot == 0 {
		return nil, ErrNoEntries
	}

	existing, err := drawRepo.GetByPeriodID(ctx, period.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to check period state: %w", err)
	}
	if existing != nil {
		return nil, ErrPeriodClosed
	}

	// Chain the previous draw's digest into this draw's seed
	chain := make([]byte, 32)
	previous, err := drawRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get previous draw: %w", err)
	}
	if previous != nil && len(previous.Digest) > 0 {
		chain = previous.Digest
	}

	winningOutcome, digest := s.outcomes.Derive(
		Int64Seed(int64(uow.Elapsed())),
		Int64Seed(period.ID()),
		chain,
	)

	var winners []*models.RollEntry
	for _, roll := range rolls {
		if roll.IsWinner(winningOutcome) {
			winners = append(winners, roll)
		}
	}

	logFields := log.Fields{
		"periodID":       period.ID(),
		"winningOutcome": winningOutcome,
		"rollCount":      len(rolls),
		"pot":            pot,
	}

	if len(winners) == 0 {
		log.WithFields(logFields).Info("Period has no winning rolls, leaving it unresolved")
		return nil, ErrNoWinners
	}

	payable, share := SplitPot(pot, s.payoutFraction, len(winners))
	if share <= 0 {
		return nil, ErrShareTooSmall
	}

	draw := &models.WinningDraw{
		PeriodID:       period.ID(),
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		WinningOutcome: winningOutcome,
		DrawnAt:        now,
		Pot:            pot,
		PayablePot:     payable,
		Share:          share,
		RollCount:      len(rolls),
		WinnerCount:    len(winners),
		Digest:         digest[:],
	}
	if err := drawRepo.Create(ctx, draw); err != nil {
		return nil, fmt.Errorf("failed to record winning draw: %w", err)
	}

	// One payout per winning roll, so an account with two winning rolls gets two shares
	payouts := make([]*models.PayoutEntry, 0, len(winners))
	for _, roll := range winners {
		payouts = append(payouts, &models.PayoutEntry{
			PeriodID:      period.ID(),
			WinnerAccount: roll.Account,
			Amount:        share,
		})
	}
	if err := uow.PayoutRepository().CreateBatch(ctx, payouts); err != nil {
		return nil, fmt.Errorf("failed to schedule payouts: %w", err)
	}

	ids := make([]int64, len(rolls))
	for i, roll := range rolls {
		ids[i] = roll.ID
	}
	deleted, err := uow.RollRepository().DeleteByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to clear roll log: %w", err)
	}
	if deleted != int64(len(ids)) {
		return nil, fmt.Errorf("roll log changed during settlement: scanned %d, deleted %d", len(ids), deleted)
	}

	bus := uow.EventBus()
	bus.Publish(events.PeriodClosedEvent{
		PeriodID:       draw.PeriodID,
		WinningOutcome: draw.WinningOutcome,
		Pot:            draw.Pot,
		PayablePot:     draw.PayablePot,
		Share:          draw.Share,
		WinnerCount:    draw.WinnerCount,
		RollCount:      draw.RollCount,
		DrawnAt:        draw.DrawnAt,
	})
	for _, payout := range payouts {
		bus.Publish(events.PayoutScheduledEvent{
			PayoutID:      payout.ID,
			PeriodID:      payout.PeriodID,
			WinnerAccount: payout.WinnerAccount,
			Amount:        payout.Amount,
			Processed:     payout.Processed,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logFields["winnerCount"] = len(winners)
	logFields["share"] = share
	logFields["direct"] = s.directPayout
	log.WithFields(logFields).Info("Period closed")

	if s.directPayout {
		s.disburseAll(ctx, payouts)
	}

	return &models.DrawResult{
		Draw:    draw,
		Payouts: payouts,
	}, nil
}

// disburseAll pays each entry of a settled period. Entries whose transfer fails
// stay pending for Finalize; they are never paid twice by a retried close.
func (s *drawService) disburseAll(ctx context.Context, payouts []*models.PayoutEntry) {
	for i, payout := range payouts {
		paid, err := s.disburser.disburse(ctx, payout.ID)
		if err != nil {
			log.WithFields(log.Fields{
				"payoutID": payout.ID,
				"winner":   payout.WinnerAccount,
				"error":    err,
			}).Warn("Direct payout failed, entry left pending")
			continue
		}
		payouts[i] = paid
	}
}

// SplitPot returns the payable part of the pot and each winning roll's share.
// Both are truncated so the engine never pays out more than the fraction allows.
func SplitPot(pot int64, fraction decimal.Decimal, winners int) (payable int64, share int64) {
	payable = decimal.NewFromInt(pot).Mul(fraction).Truncate(0).IntPart()
	if winners <= 0 {
		return payable, 0
	}
	return payable, payable / int64(winners)
}

func (s *drawService) GetDraw(ctx context.Context, periodID int64) (*models.WinningDraw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	draw, err := uow.WinningDrawRepository().GetByPeriodID(ctx, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	return draw, nil
}

func (s *drawService) ListDraws(ctx context.Context, limit int) ([]*models.WinningDraw, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	draws, err := uow.WinningDrawRepository().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	return draws, nil
}

func (s *drawService) CurrentPeriod(ctx context.Context) (*models.PeriodStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := s.clock.Now()
	period := PeriodAt(now, s.periodLength, s.periodOffset)

	draw, err := uow.WinningDrawRepository().GetByPeriodID(ctx, period.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}

	count, err := uow.RollRepository().CountInRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to count rolls: %w", err)
	}

	cutoffAt := period.CutoffAt(s.rollCutoff)
	return &models.PeriodStatus{
		Period:    period,
		PeriodID:  period.ID(),
		CutoffAt:  cutoffAt,
		Rolling:   draw == nil && now.Before(cutoffAt),
		Draw:      draw,
		RollCount: count,
		Pot:       int64(count) * models.TicketPrice,
	}, nil
}
