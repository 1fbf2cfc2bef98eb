package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/models"
	"github.com/vitas-brc20/dicer/service"
)

// PaymentListener turns payment notifications from the ledger into ticket credits
type PaymentListener struct {
	tickets service.TicketService
}

// NewPaymentListener creates a new payment listener
func NewPaymentListener(tickets service.TicketService) *PaymentListener {
	return &PaymentListener{
		tickets: tickets,
	}
}

// HandlePaymentReceived processes one payment notification. Invalid payments are
// logged and acknowledged; only infrastructure failures ask for redelivery.
func (l *PaymentListener) HandlePaymentReceived(ctx context.Context, data []byte) error {
	var payment models.Payment
	if err := json.Unmarshal(data, &payment); err != nil {
		log.WithError(err).Error("Dropping malformed payment notification")
		return nil
	}

	balance, err := l.tickets.HandlePayment(ctx, payment)
	if errors.Is(err, service.ErrInvalidPayment) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to handle payment from %s: %w", payment.From, err)
	}

	if balance != nil {
		log.WithFields(log.Fields{
			"account": balance.Account,
			"tickets": balance.Tickets,
		}).Debug("Credited ticket from ledger notification")
	}

	return nil
}

// Start subscribes the listener and makes sure the stream exists
func (l *PaymentListener) Start(client *NATSClient) error {
	if err := client.EnsureStream("ledger_payments", []string{PaymentReceivedSubject}, "Incoming ledger payments"); err != nil {
		return err
	}
	return client.Subscribe(PaymentReceivedSubject, l.HandlePaymentReceived)
}
