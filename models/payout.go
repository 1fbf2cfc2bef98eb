package models

import (
	"fmt"
	"time"
)

// PayoutEntry is a scheduled payment to one winning roll
type PayoutEntry struct {
	ID            int64      `db:"id" json:"id"`
	PeriodID      int64      `db:"period_id" json:"period_id"`
	WinnerAccount string     `db:"winner_account" json:"winner_account"`
	Amount        int64      `db:"amount" json:"amount"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	Processed     bool       `db:"processed" json:"processed"`
	ProcessedAt   *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// TransferRequest asks the external ledger to move funds to a winner
type TransferRequest struct {
	PayoutID  int64  `json:"payout_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"` // minor units
	Symbol    string `json:"symbol"`
	Precision int    `json:"precision"`
	Memo      string `json:"memo"`
}

// NewTransferRequest builds the transfer for a payout sent from the engine account
func NewTransferRequest(payout *PayoutEntry, from string) TransferRequest {
	return TransferRequest{
		PayoutID:  payout.ID,
		From:      from,
		To:        payout.WinnerAccount,
		Amount:    payout.Amount,
		Symbol:    TicketSymbol,
		Precision: TicketPrecision,
		Memo:      fmt.Sprintf("dice payout for period %d", payout.PeriodID),
	}
}

// IdempotencyKey identifies the transfer for deduplication downstream
func (r TransferRequest) IdempotencyKey() string {
	return fmt.Sprintf("payout-%d", r.PayoutID)
}
