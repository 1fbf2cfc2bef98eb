package service

import (
	"context"
	"time"

	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"
)

// TicketBalanceRepository defines the interface for ticket ledger data access
type TicketBalanceRepository interface {
	// GetByAccount retrieves an account's balance, nil if the account never paid
	GetByAccount(ctx context.Context, account string) (*models.TicketBalance, error)

	// Credit adds tickets, creating the row if absent
	Credit(ctx context.Context, account string, count int64) (*models.TicketBalance, error)

	// Debit removes tickets atomically.
	// Returns ErrNotEligible when no row exists and ErrInsufficientTickets when the balance is too low.
	Debit(ctx context.Context, account string, count int64) (*models.TicketBalance, error)
}

// RollRepository defines the interface for roll log data access
type RollRepository interface {
	// Create appends a roll and assigns its sequential ID
	Create(ctx context.Context, roll *models.RollEntry) error

	// GetByAccount returns an account's most recent rolls
	GetByAccount(ctx context.Context, account string, limit int) ([]*models.RollEntry, error)

	// GetInRange returns rolls with start <= rolled_at < end in timestamp order
	GetInRange(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error)

	// GetInRangeForUpdate is GetInRange with row locks held until the transaction ends
	GetInRangeForUpdate(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error)

	// CountInRange returns the number of rolls with start <= rolled_at < end
	CountInRange(ctx context.Context, start, end time.Time) (int, error)

	// DeleteByIDs removes the given rolls and returns how many were deleted
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// WinningDrawRepository defines the interface for draw history data access
type WinningDrawRepository interface {
	// AcquireSettlementLock serialises period closes until the transaction ends
	AcquireSettlementLock(ctx context.Context) error

	// AcquireSettlementLockShared blocks while a close holds the exclusive lock
	AcquireSettlementLockShared(ctx context.Context) error

	// Create records a draw. Returns ErrPeriodClosed if the period already has one.
	Create(ctx context.Context, draw *models.WinningDraw) error

	// GetByPeriodID retrieves a draw, nil if the period was never closed
	GetByPeriodID(ctx context.Context, periodID int64) (*models.WinningDraw, error)

	// GetLatest returns the most recent draw, nil if none exist
	GetLatest(ctx context.Context) (*models.WinningDraw, error)

	// List returns draws newest first
	List(ctx context.Context, limit int) ([]*models.WinningDraw, error)
}

// PayoutRepository defines the interface for payout queue data access
type PayoutRepository interface {
	// CreateBatch inserts payouts and assigns IDs and creation times
	CreateBatch(ctx context.Context, payouts []*models.PayoutEntry) error

	// GetByID retrieves a payout, nil if not found
	GetByID(ctx context.Context, id int64) (*models.PayoutEntry, error)

	// MarkProcessed flips processed false->true in a single statement.
	// Returns nil when the payout does not exist or was already processed.
	MarkProcessed(ctx context.Context, id int64, processedAt time.Time) (*models.PayoutEntry, error)

	// GetPending returns unprocessed payouts oldest first
	GetPending(ctx context.Context, limit int) ([]*models.PayoutEntry, error)

	// GetByWinner returns payouts for an account newest first
	GetByWinner(ctx context.Context, account string, limit int) ([]*models.PayoutEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Elapsed returns the time spent since Begin
	Elapsed() time.Duration

	// Repository getters
	TicketBalanceRepository() TicketBalanceRepository
	RollRepository() RollRepository
	WinningDrawRepository() WinningDrawRepository
	PayoutRepository() PayoutRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Authorizer decides whether a caller may act. The caller value is the bearer
// credential presented at the edge.
type Authorizer interface {
	// AuthorizeAccount succeeds only when the caller is the account itself
	AuthorizeAccount(ctx context.Context, caller, account string) error

	// AuthorizePrivileged succeeds only for the engine operator
	AuthorizePrivileged(ctx context.Context, caller string) error
}

// Clock is the external time source
type Clock interface {
	Now() time.Time
}

// Hasher is the cryptographic hash primitive used for outcome derivation
type Hasher interface {
	Sum(data []byte) [32]byte
}

// OutcomeGenerator maps seed material to a dice outcome
type OutcomeGenerator interface {
	// Derive returns an outcome in 1..Sides() and the digest it was reduced from
	Derive(seeds ...[]byte) (int, [32]byte)

	// Sides returns the size of the outcome range
	Sides() int
}

// Transferer moves funds through the external ledger
type Transferer interface {
	Transfer(ctx context.Context, req models.TransferRequest) error
}

// TicketService defines the ticket ledger operations
type TicketService interface {
	// HandlePayment credits one ticket for a valid ticket payment.
	// Returns a nil balance for transfers the engine ignores.
	HandlePayment(ctx context.Context, payment models.Payment) (*models.TicketBalance, error)

	// Credit adds tickets to an account
	Credit(ctx context.Context, account string, count int64) (*models.TicketBalance, error)

	// Debit removes tickets from an account
	Debit(ctx context.Context, account string, count int64) (*models.TicketBalance, error)

	// GetBalance returns an account's unspent tickets, zero if it never paid
	GetBalance(ctx context.Context, account string) (int64, error)
}

// RollService defines the roll log operations
type RollService interface {
	// SubmitRoll spends one ticket and appends a roll for the account
	SubmitRoll(ctx context.Context, caller, account string) (*models.RollEntry, error)

	// ListByAccount returns an account's most recent rolls
	ListByAccount(ctx context.Context, account string, limit int) ([]*models.RollEntry, error)

	// ListInRange returns rolls placed in [start, end) in timestamp order
	ListInRange(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error)
}

// DrawService defines the draw engine operations
type DrawService interface {
	// ClosePeriod settles the period containing the current time
	ClosePeriod(ctx context.Context, caller string) (*models.DrawResult, error)

	// GetDraw returns the draw for a period, nil if not closed
	GetDraw(ctx context.Context, periodID int64) (*models.WinningDraw, error)

	// ListDraws returns draw history newest first
	ListDraws(ctx context.Context, limit int) ([]*models.WinningDraw, error)

	// CurrentPeriod describes the period containing the current time
	CurrentPeriod(ctx context.Context) (*models.PeriodStatus, error)
}

// PayoutService defines the payout queue operations
type PayoutService interface {
	// Finalize marks one payout processed and triggers its transfer
	Finalize(ctx context.Context, caller string, payoutID int64) (*models.PayoutEntry, error)

	// Get returns a payout by ID
	Get(ctx context.Context, payoutID int64) (*models.PayoutEntry, error)

	// ListPending returns unprocessed payouts oldest first
	ListPending(ctx context.Context, limit int) ([]*models.PayoutEntry, error)

	// ListByWinner returns an account's payouts newest first
	ListByWinner(ctx context.Context, account string, limit int) ([]*models.PayoutEntry, error)
}
