package service

import (
	"context"
	"testing"
	"time"

	"github.com/vitas-brc20/dicer/models"

	"github.com/stretchr/testify/mock"
)

// Test constants for consistent test data
const (
	testAdminCaller   = "admin-token"
	testAccountCaller = "alice-token"
	testEngine        = "inchgame"
)

var (
	// 2024-01-01 is inside the period [2024-01-01, 2024-01-02) for 24h periods
	testNoon     = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	testPeriodID = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()
)

// serviceMocks aggregates all mocks a service needs
type serviceMocks struct {
	factory    *MockUnitOfWorkFactory
	uow        *MockUnitOfWork
	tickets    *MockTicketBalanceRepository
	rolls      *MockRollRepository
	draws      *MockWinningDrawRepository
	payouts    *MockPayoutRepository
	publisher  *MockEventPublisher
	authorizer *MockAuthorizer
	outcomes   *MockOutcomeGenerator
	transferer *MockTransferer
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		factory:    new(MockUnitOfWorkFactory),
		uow:        new(MockUnitOfWork),
		tickets:    new(MockTicketBalanceRepository),
		rolls:      new(MockRollRepository),
		draws:      new(MockWinningDrawRepository),
		payouts:    new(MockPayoutRepository),
		publisher:  new(MockEventPublisher),
		authorizer: new(MockAuthorizer),
		outcomes:   new(MockOutcomeGenerator),
		transferer: new(MockTransferer),
	}
	m.uow.SetRepositories(m.tickets, m.rolls, m.draws, m.payouts, m.publisher)
	return m
}

// expectTransaction sets up a unit of work that begins, always rolls back
// (a no-op after commit) and commits only when commit is true.
func (m *serviceMocks) expectTransaction(ctx context.Context, commit bool) {
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	if commit {
		m.uow.On("Commit").Return(nil)
	}
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.tickets.AssertExpectations(t)
	m.rolls.AssertExpectations(t)
	m.draws.AssertExpectations(t)
	m.payouts.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
	m.authorizer.AssertExpectations(t)
	m.outcomes.AssertExpectations(t)
	m.transferer.AssertExpectations(t)
}

// assertNothingWritten verifies a settlement aborted before touching any table
func (m *serviceMocks) assertNothingWritten(t *testing.T) {
	m.uow.AssertNotCalled(t, "Commit")
	m.draws.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.payouts.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	m.rolls.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func createTestRoll(id int64, account string, outcome int) *models.RollEntry {
	return &models.RollEntry{
		ID:       id,
		Account:  account,
		Outcome:  outcome,
		RolledAt: testNoon.Add(time.Duration(id) * time.Minute),
	}
}
