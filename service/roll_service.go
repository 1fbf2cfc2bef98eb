package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"

	log "github.com/sirupsen/logrus"
)

type rollService struct {
	uowFactory   UnitOfWorkFactory
	authorizer   Authorizer
	clock        Clock
	outcomes     OutcomeGenerator
	periodLength time.Duration
	periodOffset time.Duration
	rollCutoff   time.Duration
}

// NewRollService creates a new roll log service
func NewRollService(uowFactory UnitOfWorkFactory, cfg *config.Config, authorizer Authorizer, clock Clock, outcomes OutcomeGenerator) RollService {
	return &rollService{
		uowFactory:   uowFactory,
		authorizer:   authorizer,
		clock:        clock,
		outcomes:     outcomes,
		periodLength: cfg.PeriodLength,
		periodOffset: cfg.PeriodOffset,
		rollCutoff:   cfg.RollCutoff,
	}
}

func (s *rollService) SubmitRoll(ctx context.Context, caller, account string) (*models.RollEntry, error) {
	if err := s.authorizer.AuthorizeAccount(ctx, caller, account); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	period := PeriodAt(now, s.periodLength, s.periodOffset)
	if s.rollCutoff > 0 && !now.Before(period.CutoffAt(s.rollCutoff)) {
		return nil, ErrRollingClosed
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Shared lock: a concurrent close either sees this roll or this roll sees the close
	if err := uow.WinningDrawRepository().AcquireSettlementLockShared(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire settlement lock: %w", err)
	}

	draw, err := uow.WinningDrawRepository().GetByPeriodID(ctx, period.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to check period state: %w", err)
	}
	if draw != nil {
		return nil, ErrPeriodClosed
	}

	if _, err := DebitTickets(ctx, uow, account, 1); err != nil {
		return nil, err
	}

	outcome, _ := s.outcomes.Derive(
		Int64Seed(int64(uow.Elapsed())),
		[]byte(account),
		Int64Seed(now.UnixNano()),
	)

	roll := &models.RollEntry{
		Account:  account,
		Outcome:  outcome,
		RolledAt: now,
	}
	if err := uow.RollRepository().Create(ctx, roll); err != nil {
		return nil, fmt.Errorf("failed to record roll: %w", err)
	}

	uow.EventBus().Publish(events.RollSubmittedEvent{
		RollID:   roll.ID,
		Account:  roll.Account,
		Outcome:  roll.Outcome,
		RolledAt: roll.RolledAt,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"rollID":   roll.ID,
		"account":  roll.Account,
		"outcome":  roll.Outcome,
		"periodID": period.ID(),
	}).Info("Roll submitted")

	return roll, nil
}

func (s *rollService) ListByAccount(ctx context.Context, account string, limit int) ([]*models.RollEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rolls, err := uow.RollRepository().GetByAccount(ctx, account, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rolls: %w", err)
	}
	return rolls, nil
}

func (s *rollService) ListInRange(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rolls, err := uow.RollRepository().GetInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get rolls: %w", err)
	}
	return rolls, nil
}
