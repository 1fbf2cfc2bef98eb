package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitas-brc20/dicer/database"
	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/service"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	startedAt        time.Time
	transactionalBus *events.TransactionalBus
	ticketRepo       service.TicketBalanceRepository
	rollRepo         service.RollRepository
	drawRepo         service.WinningDrawRepository
	payoutRepo       service.PayoutRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.startedAt = time.Now()

	u.ticketRepo = newTicketBalanceRepositoryWithTx(tx)
	u.rollRepo = newRollRepositoryWithTx(tx)
	u.drawRepo = newWinningDrawRepositoryWithTx(tx)
	u.payoutRepo = newPayoutRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// Elapsed reports how long the transaction has been open, zero before Begin
func (u *unitOfWork) Elapsed() time.Duration {
	if u.startedAt.IsZero() {
		return 0
	}
	return time.Since(u.startedAt)
}

// TicketBalanceRepository returns the ticket ledger repository for this unit of work
func (u *unitOfWork) TicketBalanceRepository() service.TicketBalanceRepository {
	if u.ticketRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ticketRepo
}

// RollRepository returns the roll log repository for this unit of work
func (u *unitOfWork) RollRepository() service.RollRepository {
	if u.rollRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.rollRepo
}

// WinningDrawRepository returns the draw history repository for this unit of work
func (u *unitOfWork) WinningDrawRepository() service.WinningDrawRepository {
	if u.drawRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawRepo
}

// PayoutRepository returns the payout queue repository for this unit of work
func (u *unitOfWork) PayoutRepository() service.PayoutRepository {
	if u.payoutRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.payoutRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
