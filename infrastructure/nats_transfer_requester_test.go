package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitas-brc20/dicer/models"
)

func TestNATSTransferRequester_Transfer(t *testing.T) {
	publisher := &recordingPublisher{}
	requester := NewNATSTransferRequester(publisher)

	payout := &models.PayoutEntry{ID: 42, PeriodID: 1704153600, WinnerAccount: "alice", Amount: 148500}
	req := models.NewTransferRequest(payout, "inchgame")

	require.NoError(t, requester.Transfer(context.Background(), req))

	messages := publisher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, TransferRequestedSubject, messages[0].Subject)
	assert.Equal(t, "payout-42", messages[0].MsgID)

	var decoded models.TransferRequest
	require.NoError(t, json.Unmarshal(messages[0].Data, &decoded))
	assert.Equal(t, req, decoded)
	assert.Equal(t, "inchgame", decoded.From)
	assert.Equal(t, models.TicketSymbol, decoded.Symbol)
}

func TestNATSTransferRequester_PublishFailure(t *testing.T) {
	requester := NewNATSTransferRequester(&recordingPublisher{err: errors.New("timeout")})

	err := requester.Transfer(context.Background(), models.TransferRequest{PayoutID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payout 1")
}

func TestLogTransferer_Transfer(t *testing.T) {
	assert.NoError(t, NewLogTransferer().Transfer(context.Background(), models.TransferRequest{PayoutID: 1}))
}
