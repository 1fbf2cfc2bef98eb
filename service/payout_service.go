package service

import (
	"context"
	"fmt"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"

	log "github.com/sirupsen/logrus"
)

type payoutService struct {
	uowFactory UnitOfWorkFactory
	authorizer Authorizer
	disburser  payoutDisburser
}

// payoutDisburser pays one queued entry per unit of work
type payoutDisburser struct {
	uowFactory    UnitOfWorkFactory
	clock         Clock
	transferer    Transferer
	engineAccount string
}

func newPayoutDisburser(uowFactory UnitOfWorkFactory, cfg *config.Config, clock Clock, transferer Transferer) payoutDisburser {
	return payoutDisburser{
		uowFactory:    uowFactory,
		clock:         clock,
		transferer:    transferer,
		engineAccount: cfg.EngineAccount,
	}
}

// NewPayoutService creates a new payout queue service
func NewPayoutService(uowFactory UnitOfWorkFactory, cfg *config.Config, authorizer Authorizer, clock Clock, transferer Transferer) PayoutService {
	return &payoutService{
		uowFactory: uowFactory,
		authorizer: authorizer,
		disburser:  newPayoutDisburser(uowFactory, cfg, clock, transferer),
	}
}

// Finalize pays one queued entry. Replays are rejected with ErrAlreadyProcessed.
func (s *payoutService) Finalize(ctx context.Context, caller string, payoutID int64) (*models.PayoutEntry, error) {
	if err := s.authorizer.AuthorizePrivileged(ctx, caller); err != nil {
		return nil, err
	}
	return s.disburser.disburse(ctx, payoutID)
}

// disburse flips the processed flag and requests the transfer in the same
// transaction. A failed transfer rolls the flag back so the payout stays pending.
func (d payoutDisburser) disburse(ctx context.Context, payoutID int64) (*models.PayoutEntry, error) {
	uow := d.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	payoutRepo := uow.PayoutRepository()
	payout, err := payoutRepo.MarkProcessed(ctx, payoutID, d.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark payout processed: %w", err)
	}
	if payout == nil {
		existing, err := payoutRepo.GetByID(ctx, payoutID)
		if err != nil {
			return nil, fmt.Errorf("failed to get payout: %w", err)
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyProcessed
	}

	if err := d.transferer.Transfer(ctx, models.NewTransferRequest(payout, d.engineAccount)); err != nil {
		return nil, fmt.Errorf("failed to transfer payout %d: %w", payoutID, err)
	}

	uow.EventBus().Publish(events.PayoutFinalizedEvent{
		PayoutID:      payout.ID,
		PeriodID:      payout.PeriodID,
		WinnerAccount: payout.WinnerAccount,
		Amount:        payout.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"payoutID": payout.ID,
		"winner":   payout.WinnerAccount,
		"amount":   payout.Amount,
	}).Info("Payout finalized")

	return payout, nil
}

func (s *payoutService) Get(ctx context.Context, payoutID int64) (*models.PayoutEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payout, err := uow.PayoutRepository().GetByID(ctx, payoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout: %w", err)
	}
	if payout == nil {
		return nil, ErrNotFound
	}
	return payout, nil
}

func (s *payoutService) ListPending(ctx context.Context, limit int) ([]*models.PayoutEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payouts, err := uow.PayoutRepository().GetPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payouts: %w", err)
	}
	return payouts, nil
}

func (s *payoutService) ListByWinner(ctx context.Context, account string, limit int) ([]*models.PayoutEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payouts, err := uow.PayoutRepository().GetByWinner(ctx, account, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	return payouts, nil
}
