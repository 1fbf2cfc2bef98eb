package worker

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vitas-brc20/dicer/models"
)

type MockDrawService struct {
	mock.Mock
}

func (m *MockDrawService) ClosePeriod(ctx context.Context, caller string) (*models.DrawResult, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrawResult), args.Error(1)
}

func (m *MockDrawService) GetDraw(ctx context.Context, periodID int64) (*models.WinningDraw, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WinningDraw), args.Error(1)
}

func (m *MockDrawService) ListDraws(ctx context.Context, limit int) ([]*models.WinningDraw, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WinningDraw), args.Error(1)
}

func (m *MockDrawService) CurrentPeriod(ctx context.Context) (*models.PeriodStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PeriodStatus), args.Error(1)
}

type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) Finalize(ctx context.Context, caller string, payoutID int64) (*models.PayoutEntry, error) {
	args := m.Called(ctx, caller, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutEntry), args.Error(1)
}

func (m *MockPayoutService) Get(ctx context.Context, payoutID int64) (*models.PayoutEntry, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutEntry), args.Error(1)
}

func (m *MockPayoutService) ListPending(ctx context.Context, limit int) ([]*models.PayoutEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutEntry), args.Error(1)
}

func (m *MockPayoutService) ListByWinner(ctx context.Context, account string, limit int) ([]*models.PayoutEntry, error) {
	args := m.Called(ctx, account, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayoutEntry), args.Error(1)
}
