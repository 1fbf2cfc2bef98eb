package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vitas-brc20/dicer/database"
	"github.com/vitas-brc20/dicer/models"
	"github.com/vitas-brc20/dicer/service"
)

// TicketBalanceRepository implements the ticket ledger storage
type TicketBalanceRepository struct {
	q queryable
}

// NewTicketBalanceRepository creates a new ticket balance repository
func NewTicketBalanceRepository(db *database.DB) *TicketBalanceRepository {
	return &TicketBalanceRepository{q: db.Pool}
}

// newTicketBalanceRepositoryWithTx creates a new ticket balance repository with a transaction
func newTicketBalanceRepositoryWithTx(tx queryable) *TicketBalanceRepository {
	return &TicketBalanceRepository{q: tx}
}

// GetByAccount retrieves an account's ticket balance
func (r *TicketBalanceRepository) GetByAccount(ctx context.Context, account string) (*models.TicketBalance, error) {
	query := `
		SELECT account, tickets, created_at, updated_at
		FROM ticket_balances
		WHERE account = $1
	`

	var balance models.TicketBalance
	err := r.q.QueryRow(ctx, query, account).Scan(
		&balance.Account,
		&balance.Tickets,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket balance for %s: %w", account, err)
	}

	return &balance, nil
}

// Credit adds tickets, creating the row on the account's first payment
func (r *TicketBalanceRepository) Credit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	query := `
		INSERT INTO ticket_balances (account, tickets)
		VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE
		SET tickets = ticket_balances.tickets + EXCLUDED.tickets
		RETURNING account, tickets, created_at, updated_at
	`

	var balance models.TicketBalance
	err := r.q.QueryRow(ctx, query, account, count).Scan(
		&balance.Account,
		&balance.Tickets,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to credit %d tickets to %s: %w", count, account, err)
	}

	return &balance, nil
}

// Debit removes tickets only if the balance covers them
func (r *TicketBalanceRepository) Debit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	query := `
		UPDATE ticket_balances
		SET tickets = tickets - $2
		WHERE account = $1 AND tickets >= $2
		RETURNING account, tickets, created_at, updated_at
	`

	var balance models.TicketBalance
	err := r.q.QueryRow(ctx, query, account, count).Scan(
		&balance.Account,
		&balance.Tickets,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := r.GetByAccount(ctx, account)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, service.ErrNotEligible
		}
		return nil, service.ErrInsufficientTickets
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit %d tickets from %s: %w", count, account, err)
	}

	return &balance, nil
}
