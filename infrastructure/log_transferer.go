package infrastructure

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/models"
)

// LogTransferer records transfers without moving funds. Used when NATS is disabled.
type LogTransferer struct{}

// NewLogTransferer creates a new log-only transferer
func NewLogTransferer() *LogTransferer {
	return &LogTransferer{}
}

// Transfer logs the request
func (t *LogTransferer) Transfer(ctx context.Context, req models.TransferRequest) error {
	log.WithFields(log.Fields{
		"payoutID":  req.PayoutID,
		"from":      req.From,
		"to":        req.To,
		"amount":    req.Amount,
		"symbol":    req.Symbol,
		"memo":      req.Memo,
		"messageID": req.IdempotencyKey(),
	}).Warn("Transfer not dispatched, no ledger connection configured")
	return nil
}
