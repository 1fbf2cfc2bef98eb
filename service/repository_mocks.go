package service

import (
	"context"
	"time"

	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"

	"github.com/stretchr/testify/mock"
)

// MockTicketBalanceRepository is a mock implementation of TicketBalanceRepository
type MockTicketBalanceRepository struct {
	mock.Mock
}

func (m *MockTicketBalanceRepository) GetByAccount(ctx context.Context, account string) (*models.TicketBalance, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *MockTicketBalanceRepository) Credit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	args := m.Called(ctx, account, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *MockTicketBalanceRepository) Debit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	args := m.Called(ctx, account, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

// MockRollRepository is a mock implementation of RollRepository
type MockRollRepository struct {
	mock.Mock
}

func (m *MockRollRepository) Create(ctx context.Context, roll *models.RollEntry) error {
	args := m.Called(ctx, roll)
	return args.Error(0)
}

func (m *MockRollRepository) GetByAccount(ctx context.Context, account string, limit int) ([]*models.RollEntry, error) {
	args := m.Called(ctx, account, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RollEntry), args.Error(1)
}

func (m *MockRollRepository) GetInRange(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RollEntry), args.Error(1)
}

func (m *MockRollRepository) GetInRangeForUpdate(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RollEntry), args.Error(1)
}

func (m *MockRollRepository) CountInRange(ctx context.Context, start, end time.Time) (int, error) {
	args := m.Called(ctx, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockRollRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockWinningDrawRepository is a mock implementation of WinningDrawRepository
type MockWinningDrawRepository struct {
	mock.Mock
}

func (m *MockWinningDrawRepository) AcquireSettlementLock(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWinningDrawRepository) AcquireSettlementLockShared(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWinningDrawRepository) Create(ctx context.Context, draw *models.WinningDraw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockWinningDrawRepository) GetByPeriodID(ctx context.Context, periodID int64) (*models.WinningDraw, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WinningDraw), args.Error(1)
}

func (m *MockWinningDrawRepository) GetLatest(ctx context.Context) (*models.WinningDraw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WinningDraw), args.Error(1)
}

func (m *MockWinningDrawRepository) List(ctx context.Context, limit int) ([]*models.WinningDraw, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WinningDraw), args.Error(1)
}

// MockPayoutRepository is a mock implementation of PayoutRepository
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) CreateBatch(ctx context.Context, payouts []*models.PayoutEntry) error {
	args := m.Called(ctx, payouts)
	return args.Error(0)
}

func (m *MockPayoutRepository) GetByID(ctx context.Context, id int64) (*models.PayoutEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutEntry), args.Error(1)
}

func (m *MockPayoutRepository) MarkProcessed(ctx context.Context, id int64, processedAt time.Time) (*models.PayoutEntry, error) {
	args := m.Called(ctx, id, processedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutEntry), args.Error(1)
}

func (m *MockPayoutRepository) GetPending(ctx context.Context, limit int) ([]*models.PayoutEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutEntry), args.Error(1)
}

func (m *MockPayoutRepository) GetByWinner(ctx context.Context, account string, limit int) ([]*models.PayoutEntry, error) {
	args := m.Called(ctx, account, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutEntry), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repository getters return the repositories set with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock
	ticketBalanceRepo TicketBalanceRepository
	rollRepo          RollRepository
	winningDrawRepo   WinningDrawRepository
	payoutRepo        PayoutRepository
	eventPublisher    EventPublisher
	elapsed           time.Duration
}

// SetRepositories wires the repositories and publisher returned by the getters
func (m *MockUnitOfWork) SetRepositories(tickets TicketBalanceRepository, rolls RollRepository, draws WinningDrawRepository, payouts PayoutRepository, publisher EventPublisher) {
	m.ticketBalanceRepo = tickets
	m.rollRepo = rolls
	m.winningDrawRepo = draws
	m.payoutRepo = payouts
	m.eventPublisher = publisher
}

// SetElapsed fixes the value returned by Elapsed
func (m *MockUnitOfWork) SetElapsed(d time.Duration) {
	m.elapsed = d
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Elapsed() time.Duration {
	return m.elapsed
}

func (m *MockUnitOfWork) TicketBalanceRepository() TicketBalanceRepository {
	return m.ticketBalanceRepo
}

func (m *MockUnitOfWork) RollRepository() RollRepository {
	return m.rollRepo
}

func (m *MockUnitOfWork) WinningDrawRepository() WinningDrawRepository {
	return m.winningDrawRepo
}

func (m *MockUnitOfWork) PayoutRepository() PayoutRepository {
	return m.payoutRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventPublisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockAuthorizer is a mock implementation of Authorizer
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) AuthorizeAccount(ctx context.Context, caller, account string) error {
	args := m.Called(ctx, caller, account)
	return args.Error(0)
}

func (m *MockAuthorizer) AuthorizePrivileged(ctx context.Context, caller string) error {
	args := m.Called(ctx, caller)
	return args.Error(0)
}

// MockOutcomeGenerator is a mock implementation of OutcomeGenerator
type MockOutcomeGenerator struct {
	mock.Mock
}

func (m *MockOutcomeGenerator) Derive(seeds ...[]byte) (int, [32]byte) {
	args := m.Called(seeds)
	return args.Int(0), args.Get(1).([32]byte)
}

func (m *MockOutcomeGenerator) Sides() int {
	args := m.Called()
	return args.Int(0)
}

// MockTransferer is a mock implementation of Transferer
type MockTransferer struct {
	mock.Mock
}

func (m *MockTransferer) Transfer(ctx context.Context, req models.TransferRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// FixedClock is a Clock that always returns the same instant
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}
