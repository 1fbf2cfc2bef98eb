package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vitas-brc20/dicer/models"
)

type mockTicketService struct {
	mock.Mock
}

func (m *mockTicketService) HandlePayment(ctx context.Context, payment models.Payment) (*models.TicketBalance, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *mockTicketService) Credit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	args := m.Called(ctx, account, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *mockTicketService) Debit(ctx context.Context, account string, count int64) (*models.TicketBalance, error) {
	args := m.Called(ctx, account, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketBalance), args.Error(1)
}

func (m *mockTicketService) GetBalance(ctx context.Context, account string) (int64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(int64), args.Error(1)
}

type mockRollService struct {
	mock.Mock
}

func (m *mockRollService) SubmitRoll(ctx context.Context, caller, account string) (*models.RollEntry, error) {
	args := m.Called(ctx, caller, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RollEntry), args.Error(1)
}

func (m *mockRollService) ListByAccount(ctx context.Context, account string, limit int) ([]*models.RollEntry, error) {
	args := m.Called(ctx, account, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RollEntry), args.Error(1)
}

func (m *mockRollService) ListInRange(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RollEntry), args.Error(1)
}

type mockDrawService struct {
	mock.Mock
}

func (m *mockDrawService) ClosePeriod(ctx context.Context, caller string) (*models.DrawResult, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrawResult), args.Error(1)
}

func (m *mockDrawService) GetDraw(ctx context.Context, periodID int64) (*models.WinningDraw, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WinningDraw), args.Error(1)
}

func (m *mockDrawService) ListDraws(ctx context.Context, limit int) ([]*models.WinningDraw, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WinningDraw), args.Error(1)
}

func (m *mockDrawService) CurrentPeriod(ctx context.Context) (*models.PeriodStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PeriodStatus), args.Error(1)
}

type mockPayoutService struct {
	mock.Mock
}

func (m *mockPayoutService) Finalize(ctx context.Context, caller string, payoutID int64) (*models.PayoutEntry, error) {
	args := m.Called(ctx, caller, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutEntry), args.Error(1)
}

func (m *mockPayoutService) Get(ctx context.Context, payoutID int64) (*models.PayoutEntry, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutEntry), args.Error(1)
}

func (m *mockPayoutService) ListPending(ctx context.Context, limit int) ([]*models.PayoutEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutEntry), args.Error(1)
}

func (m *mockPayoutService) ListByWinner(ctx context.Context, account string, limit int) ([]*models.PayoutEntry, error) {
	args := m.Called(ctx, account, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutEntry), args.Error(1)
}
