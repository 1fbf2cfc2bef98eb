package service

import (
	"context"
	"fmt"

	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"
)

// CreditTickets adds tickets inside an open unit of work and publishes the credit.
func CreditTickets(ctx context.Context, uow UnitOfWork, account string, count int64, amount int64) (*models.TicketBalance, error) {
	if count <= 0 {
		return nil, fmt.Errorf("ticket count must be positive")
	}

	balance, err := uow.TicketBalanceRepository().Credit(ctx, account, count)
	if err != nil {
		return nil, fmt.Errorf("failed to credit tickets: %w", err)
	}

	uow.EventBus().Publish(events.TicketCreditedEvent{
		Account:    account,
		Count:      count,
		NewBalance: balance.Tickets,
		Amount:     amount,
	})

	return balance, nil
}

// DebitTickets removes tickets inside an open unit of work.
// Every ticket spend goes through here so it commits or aborts together with the caller's writes.
func DebitTickets(ctx context.Context, uow UnitOfWork, account string, count int64) (*models.TicketBalance, error) {
	if count <= 0 {
		return nil, fmt.Errorf("ticket count must be positive")
	}

	balance, err := uow.TicketBalanceRepository().Debit(ctx, account, count)
	if err != nil {
		return nil, fmt.Errorf("failed to debit tickets: %w", err)
	}

	return balance, nil
}
