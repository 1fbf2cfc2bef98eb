package service

import (
	"context"
	"fmt"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/models"

	log "github.com/sirupsen/logrus"
)

type ticketService struct {
	uowFactory    UnitOfWorkFactory
	engineAccount string
}

// NewTicketService creates a new ticket ledger service
func NewTicketService(uowFactory UnitOfWorkFactory, cfg *config.Config) TicketService {
	return &ticketService{
		uowFactory:    uowFactory,
		engineAccount: cfg.EngineAccount,
	}
}

func (s *ticketService) HandlePayment(ctx context.Context, payment models.Payment) (*models.TicketBalance, error) {
	// Transfers not addressed to the engine, or sent by it, are not ticket purchases
	if payment.To != s.engineAccount || payment.From == s.engineAccount {
		log.WithFields(log.Fields{
			"from": payment.From,
			"to":   payment.To,
		}).Debug("Ignoring transfer not addressed to the engine")
		return nil, nil
	}

	if payment.From == "" || !payment.IsTicketPurchase() {
		log.WithFields(log.Fields{
			"from":      payment.From,
			"amount":    payment.Amount,
			"symbol":    payment.Symbol,
			"precision": payment.Precision,
		}).Warn("Rejected invalid ticket payment")
		return nil, ErrInvalidPayment
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	balance, err := CreditTickets(ctx, uow, payment.From, 1, payment.Amount)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"account": payment.From,
		"tickets": balance.Tickets,
	}).Info("Ticket purchased")

	return balance, nil
}

func (s *ticketService) Credit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	balance, err := CreditTickets(ctx, uow, account, count, count*models.TicketPrice)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return balance, nil
}

func (s *ticketService) Debit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	balance, err := DebitTickets(ctx, uow, account, count)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return balance, nil
}

func (s *ticketService) GetBalance(ctx context.Context, account string) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	balance, err := uow.TicketBalanceRepository().GetByAccount(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get ticket balance: %w", err)
	}
	if balance == nil {
		return 0, nil
	}

	return balance.Tickets, nil
}
