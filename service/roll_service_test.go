package service

import (
	"context"
	"testing"
	"time"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRollService(m *serviceMocks, now time.Time, cutoff time.Duration) RollService {
	cfg := config.NewTestConfig()
	cfg.RollCutoff = cutoff
	return NewRollService(m.factory, cfg, m.authorizer, FixedClock{At: now}, m.outcomes)
}

func TestRollService_SubmitRoll_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newServiceMocks()
	m.authorizer.On("AuthorizeAccount", ctx, testAccountCaller, "alice").Return(nil)
	m.expectTransaction(ctx, true)
	m.draws.On("AcquireSettlementLockShared", ctx).Return(nil)
	m.draws.On("GetByPeriodID", ctx, testPeriodID).Return(nil, nil)
	m.tickets.On("Debit", ctx, "alice", int64(1)).Return(&models.TicketBalance{Account: "alice", Tickets: 0}, nil)
	m.outcomes.On("Derive", mock.MatchedBy(func(seeds [][]byte) bool {
		return len(seeds) == 3 && string(seeds[1]) == "alice"
	})).Return(4, [32]byte{})
	m.rolls.On("Create", ctx, mock.MatchedBy(func(r *models.RollEntry) bool {
		return r.Account == "alice" && r.Outcome == 4 && r.RolledAt.Equal(testNoon)
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.RollEntry).ID = 17
	})
	m.publisher.On("Publish", events.RollSubmittedEvent{
		RollID:   17,
		Account:  "alice",
		Outcome:  4,
		RolledAt: testNoon,
	}).Return()

	service := newTestRollService(m, testNoon, time.Hour)

	roll, err := service.SubmitRoll(ctx, testAccountCaller, "alice")

	require.NoError(t, err)
	require.NotNil(t, roll)
	assert.Equal(t, int64(17), roll.ID)
	assert.Equal(t, 4, roll.Outcome)
	m.assertExpectations(t)
}

func TestRollService_SubmitRoll_DebitFailureLeavesNoRoll(t *testing.T) {
	t.Parallel()

	for _, debitErr := range []error{ErrNotEligible, ErrInsufficientTickets} {
		t.Run(debitErr.Error(), func(t *testing.T) {
			ctx := context.Background()

			m := newServiceMocks()
			m.authorizer.On("AuthorizeAccount", ctx, testAccountCaller, "alice").Return(nil)
			m.expectTransaction(ctx, false)
			m.draws.On("AcquireSettlementLockShared", ctx).Return(nil)
			m.draws.On("GetByPeriodID", ctx, testPeriodID).Return(nil, nil)
			m.tickets.On("Debit", ctx, "alice", int64(1)).Return(nil, debitErr)

			service := newTestRollService(m, testNoon, time.Hour)

			roll, err := service.SubmitRoll(ctx, testAccountCaller, "alice")

			assert.ErrorIs(t, err, debitErr)
			assert.Nil(t, roll)
			m.rolls.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			m.outcomes.AssertNotCalled(t, "Derive", mock.Anything)
			m.uow.AssertNotCalled(t, "Commit")
			m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
		})
	}
}

func TestRollService_SubmitRoll_CreateFailureRollsBackDebit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newServiceMocks()
	m.authorizer.On("AuthorizeAccount", ctx, testAccountCaller, "alice").Return(nil)
	m.expectTransaction(ctx, false)
	m.draws.On("AcquireSettlementLockShared", ctx).Return(nil)
	m.draws.On("GetByPeriodID", ctx, testPeriodID).Return(nil, nil)
	m.tickets.On("Debit", ctx, "alice", int64(1)).Return(&models.TicketBalance{Account: "alice"}, nil)
	m.outcomes.On("Derive", mock.Anything).Return(2, [32]byte{})
	m.rolls.On("Create", ctx, mock.Anything).Return(assert.AnError)

	service := newTestRollService(m, testNoon, time.Hour)

	_, err := service.SubmitRoll(ctx, testAccountCaller, "alice")

	assert.ErrorIs(t, err, assert.AnError)
	m.uow.AssertNotCalled(t, "Commit")
	m.uow.AssertCalled(t, "Rollback")
}

func TestRollService_SubmitRoll_Unauthorized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newServiceMocks()
	m.authorizer.On("AuthorizeAccount", ctx, "bob-token", "alice").Return(ErrUnauthorized)

	service := newTestRollService(m, testNoon, time.Hour)

	_, err := service.SubmitRoll(ctx, "bob-token", "alice")

	assert.ErrorIs(t, err, ErrUnauthorized)
	m.factory.AssertNotCalled(t, "Create")
}

func TestRollService_SubmitRoll_ClosingWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		now    time.Time
		cutoff time.Duration
		closed bool
	}{
		{"just before cutoff", time.Date(2024, 1, 1, 22, 59, 59, 0, time.UTC), time.Hour, false},
		{"at cutoff", time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), time.Hour, true},
		{"inside tally hour", time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC), time.Hour, true},
		{"cutoff disabled", time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newServiceMocks()
			m.authorizer.On("AuthorizeAccount", ctx, testAccountCaller, "alice").Return(nil)

			if !tt.closed {
				// Stop right after the gate by reporting the period as settled
				m.expectTransaction(ctx, false)
				m.draws.On("AcquireSettlementLockShared", ctx).Return(nil)
				m.draws.On("GetByPeriodID", ctx, testPeriodID).Return(&models.WinningDraw{PeriodID: testPeriodID}, nil)
			}

			service := newTestRollService(m, tt.now, tt.cutoff)
			_, err := service.SubmitRoll(ctx, testAccountCaller, "alice")

			if tt.closed {
				assert.ErrorIs(t, err, ErrRollingClosed)
				m.factory.AssertNotCalled(t, "Create")
			} else {
				assert.ErrorIs(t, err, ErrPeriodClosed)
			}
		})
	}
}

func TestRollService_SubmitRoll_PeriodAlreadyClosed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newServiceMocks()
	m.authorizer.On("AuthorizeAccount", ctx, testAccountCaller, "alice").Return(nil)
	m.expectTransaction(ctx, false)
	m.draws.On("AcquireSettlementLockShared", ctx).Return(nil)
	m.draws.On("GetByPeriodID", ctx, testPeriodID).Return(&models.WinningDraw{PeriodID: testPeriodID, WinningOutcome: 3}, nil)

	service := newTestRollService(m, testNoon, 0)

	_, err := service.SubmitRoll(ctx, testAccountCaller, "alice")

	assert.ErrorIs(t, err, ErrPeriodClosed)
	m.tickets.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything)
}

func TestRollService_ListByAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newServiceMocks()
	m.expectTransaction(ctx, false)
	rolls := []*models.RollEntry{createTestRoll(2, "alice", 6), createTestRoll(1, "alice", 3)}
	m.rolls.On("GetByAccount", ctx, "alice", 10).Return(rolls, nil)

	service := newTestRollService(m, testNoon, 0)

	result, err := service.ListByAccount(ctx, "alice", 10)

	require.NoError(t, err)
	assert.Equal(t, rolls, result)
	m.assertExpectations(t)
}
