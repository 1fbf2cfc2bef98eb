package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitas-brc20/dicer/models"
	"github.com/vitas-brc20/dicer/service"
)

func TestPaymentListener_HandlePaymentReceived(t *testing.T) {
	ctx := context.Background()

	payment := models.Payment{
		From:      "alice",
		To:        "inchgame",
		Amount:    models.TicketPrice,
		Symbol:    models.TicketSymbol,
		Precision: models.TicketPrecision,
	}
	data, err := json.Marshal(payment)
	require.NoError(t, err)

	t.Run("valid payment credits a ticket", func(t *testing.T) {
		tickets := new(mockTicketService)
		tickets.On("HandlePayment", mock.Anything, payment).
			Return(&models.TicketBalance{Account: "alice", Tickets: 1}, nil)

		assert.NoError(t, NewPaymentListener(tickets).HandlePaymentReceived(ctx, data))
		tickets.AssertExpectations(t)
	})

	t.Run("ignored transfer", func(t *testing.T) {
		tickets := new(mockTicketService)
		tickets.On("HandlePayment", mock.Anything, payment).Return(nil, nil)

		assert.NoError(t, NewPaymentListener(tickets).HandlePaymentReceived(ctx, data))
	})

	t.Run("invalid payment is acknowledged", func(t *testing.T) {
		tickets := new(mockTicketService)
		tickets.On("HandlePayment", mock.Anything, payment).Return(nil, service.ErrInvalidPayment)

		assert.NoError(t, NewPaymentListener(tickets).HandlePaymentReceived(ctx, data))
	})

	t.Run("storage failure asks for redelivery", func(t *testing.T) {
		tickets := new(mockTicketService)
		tickets.On("HandlePayment", mock.Anything, payment).Return(nil, errors.New("connection reset"))

		assert.Error(t, NewPaymentListener(tickets).HandlePaymentReceived(ctx, data))
	})

	t.Run("malformed message is dropped", func(t *testing.T) {
		tickets := new(mockTicketService)

		assert.NoError(t, NewPaymentListener(tickets).HandlePaymentReceived(ctx, []byte("{not json")))
		tickets.AssertNotCalled(t, "HandlePayment", mock.Anything, mock.Anything)
	})
}
