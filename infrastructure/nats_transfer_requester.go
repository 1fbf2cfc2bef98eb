package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/models"
)

// NATSTransferRequester asks the external ledger to move funds by publishing
// transfer requests to JetStream. The payout ID doubles as the message ID, so a
// request replayed after a failed commit is dropped by the stream.
type NATSTransferRequester struct {
	publisher MessagePublisher
	subject   string
}

// NewNATSTransferRequester creates a new transfer requester
func NewNATSTransferRequester(publisher MessagePublisher) *NATSTransferRequester {
	return &NATSTransferRequester{
		publisher: publisher,
		subject:   TransferRequestedSubject,
	}
}

// Transfer publishes the request and waits for the stream to persist it
func (r *NATSTransferRequester) Transfer(ctx context.Context, req models.TransferRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	if err := r.publisher.Publish(ctx, r.subject, data, req.IdempotencyKey()); err != nil {
		return fmt.Errorf("failed to request transfer for payout %d: %w", req.PayoutID, err)
	}

	log.WithFields(log.Fields{
		"payoutID": req.PayoutID,
		"to":       req.To,
		"amount":   req.Amount,
	}).Info("Transfer requested")

	return nil
}

// EnsureTransferStream ensures the transfer request stream exists
func EnsureTransferStream(client *NATSClient) error {
	return client.EnsureStream("ledger_transfers", []string{TransferRequestedSubject}, "Outgoing payout transfer requests")
}
