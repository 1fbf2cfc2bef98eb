package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/models"
	"github.com/vitas-brc20/dicer/repository/testutil"
	"github.com/vitas-brc20/dicer/service"
)

func TestSettlement_EndToEnd(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	cfg := config.NewTestConfig()
	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	authorizer := new(service.MockAuthorizer)
	authorizer.On("AuthorizeAccount", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	authorizer.On("AuthorizePrivileged", mock.Anything, mock.Anything).Return(nil)

	var digest [32]byte
	digest[0] = 0x42
	outcomes := new(service.MockOutcomeGenerator)
	outcomes.On("Derive", mock.Anything).Return(4, [32]byte{}).Once()
	outcomes.On("Derive", mock.Anything).Return(4, [32]byte{}).Once()
	outcomes.On("Derive", mock.Anything).Return(1, [32]byte{}).Once()
	outcomes.On("Derive", mock.Anything).Return(4, digest).Once()

	clock := service.FixedClock{At: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}

	tickets := service.NewTicketService(factory, cfg)
	rolls := service.NewRollService(factory, cfg, authorizer, clock, outcomes)
	draws := service.NewDrawService(factory, cfg, authorizer, clock, outcomes, new(service.MockTransferer))
	transferer := new(service.MockTransferer)
	transferer.On("Transfer", mock.Anything, mock.AnythingOfType("models.TransferRequest")).Return(nil)
	payouts := service.NewPayoutService(factory, cfg, authorizer, clock, transferer)

	for _, account := range []string{"alice", "bob", "carol"} {
		_, err := tickets.HandlePayment(ctx, models.Payment{
			From:      account,
			To:        cfg.EngineAccount,
			Amount:    models.TicketPrice,
			Symbol:    models.TicketSymbol,
			Precision: models.TicketPrecision,
		})
		require.NoError(t, err)
	}

	for _, account := range []string{"alice", "bob", "carol"} {
		_, err := rolls.SubmitRoll(ctx, "token", account)
		require.NoError(t, err)
	}

	t.Run("second roll without a ticket is rejected", func(t *testing.T) {
		_, err := rolls.SubmitRoll(ctx, "token", "alice")
		assert.ErrorIs(t, err, service.ErrInsufficientTickets)
	})

	result, err := draws.ClosePeriod(ctx, "admin")
	require.NoError(t, err)

	t.Run("draw splits the pot between winning rolls", func(t *testing.T) {
		assert.Equal(t, int64(330000), result.Draw.Pot)
		assert.Equal(t, int64(297000), result.Draw.PayablePot)
		assert.Equal(t, int64(148500), result.Draw.Share)
		require.Len(t, result.Payouts, 2)
		assert.Equal(t, "alice", result.Payouts[0].WinnerAccount)
		assert.Equal(t, "bob", result.Payouts[1].WinnerAccount)
	})

	t.Run("roll log is cleared for the period", func(t *testing.T) {
		status, err := draws.CurrentPeriod(ctx)
		require.NoError(t, err)
		assert.Zero(t, status.RollCount)
		require.NotNil(t, status.Draw)
		assert.Equal(t, digest[:], status.Draw.Digest)
	})

	t.Run("closing again finds no entries", func(t *testing.T) {
		_, err := draws.ClosePeriod(ctx, "admin")
		assert.ErrorIs(t, err, service.ErrNoEntries)
	})

	t.Run("rolls after settlement are refused", func(t *testing.T) {
		_, err := tickets.Credit(ctx, "alice", 1)
		require.NoError(t, err)

		_, err = rolls.SubmitRoll(ctx, "token", "alice")
		assert.ErrorIs(t, err, service.ErrPeriodClosed)

		balance, err := tickets.GetBalance(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), balance)
	})

	t.Run("payouts finalize exactly once", func(t *testing.T) {
		pending, err := payouts.ListPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 2)

		finalized, err := payouts.Finalize(ctx, "admin", pending[0].ID)
		require.NoError(t, err)
		assert.True(t, finalized.Processed)

		_, err = payouts.Finalize(ctx, "admin", pending[0].ID)
		assert.ErrorIs(t, err, service.ErrAlreadyProcessed)

		_, err = payouts.Finalize(ctx, "admin", 999999)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestSettlement_DirectPayoutFailureNeverRepays(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	cfg := config.NewTestConfig()
	cfg.PayoutMode = config.PayoutModeDirect
	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	authorizer := new(service.MockAuthorizer)
	authorizer.On("AuthorizeAccount", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	authorizer.On("AuthorizePrivileged", mock.Anything, mock.Anything).Return(nil)

	outcomes := new(service.MockOutcomeGenerator)
	outcomes.On("Derive", mock.Anything).Return(2, [32]byte{})

	transferer := new(service.MockTransferer)
	transferer.On("Transfer", mock.Anything, mock.MatchedBy(func(r models.TransferRequest) bool { return r.To == "alice" })).Return(nil)
	transferer.On("Transfer", mock.Anything, mock.MatchedBy(func(r models.TransferRequest) bool { return r.To == "bob" })).Return(assert.AnError)

	clock := service.FixedClock{At: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rolls := service.NewRollService(factory, cfg, authorizer, clock, outcomes)
	draws := service.NewDrawService(factory, cfg, authorizer, clock, outcomes, transferer)
	payouts := service.NewPayoutService(factory, cfg, authorizer, clock, transferer)
	tickets := service.NewTicketService(factory, cfg)

	for _, account := range []string{"alice", "bob"} {
		_, err := tickets.Credit(ctx, account, 1)
		require.NoError(t, err)
		_, err = rolls.SubmitRoll(ctx, "token", account)
		require.NoError(t, err)
	}

	result, err := draws.ClosePeriod(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, result.Payouts, 2)

	// A retried close finds the period already cleared
	_, err = draws.ClosePeriod(ctx, "admin")
	assert.ErrorIs(t, err, service.ErrNoEntries)

	var aliceTransfers int
	for _, call := range transferer.Calls {
		if call.Arguments.Get(1).(models.TransferRequest).To == "alice" {
			aliceTransfers++
		}
	}
	assert.Equal(t, 1, aliceTransfers)

	pending, err := payouts.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "bob", pending[0].WinnerAccount)
}
