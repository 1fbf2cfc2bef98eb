package models

import (
	"time"
)

// Ticket pricing is fixed: one ticket costs exactly 11.0000 XPR.
const (
	TicketPrice     int64  = 110000 // minor units
	TicketSymbol    string = "XPR"
	TicketPrecision int    = 4
)

// TicketBalance represents an account's unspent tickets
type TicketBalance struct {
	Account   string    `db:"account" json:"account"`
	Tickets   int64     `db:"tickets" json:"tickets"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Payment is an incoming transfer reported by the external ledger
type Payment struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"` // minor units
	Symbol    string `json:"symbol"`
	Precision int    `json:"precision"`
	Memo      string `json:"memo,omitempty"`
}

// IsTicketPurchase reports whether the payment matches the ticket price in the ticket currency
func (p *Payment) IsTicketPurchase() bool {
	return p.Symbol == TicketSymbol && p.Precision == TicketPrecision && p.Amount == TicketPrice
}
