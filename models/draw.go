package models

import (
	"time"
)

// WinningDraw records the settlement of one closed period
type WinningDraw struct {
	PeriodID       int64     `db:"period_id" json:"period_id"`
	PeriodStart    time.Time `db:"period_start" json:"period_start"`
	PeriodEnd      time.Time `db:"period_end" json:"period_end"`
	WinningOutcome int       `db:"winning_outcome" json:"winning_outcome"`
	DrawnAt        time.Time `db:"drawn_at" json:"drawn_at"`
	Pot            int64     `db:"pot" json:"pot"`
	PayablePot     int64     `db:"payable_pot" json:"payable_pot"`
	Share          int64     `db:"share" json:"share"`
	RollCount      int       `db:"roll_count" json:"roll_count"`
	WinnerCount    int       `db:"winner_count" json:"winner_count"`
	Digest         []byte    `db:"digest" json:"digest"` // chains into the next draw's seed
}

// Retained returns the part of the pot kept by the engine
func (d *WinningDraw) Retained() int64 {
	return d.Pot - d.Share*int64(d.WinnerCount)
}

// DrawResult is the outcome of closing a period
type DrawResult struct {
	Draw    *WinningDraw   `json:"draw"`
	Payouts []*PayoutEntry `json:"payouts"`
}

// TotalPaid returns the sum of all scheduled payout amounts
func (r *DrawResult) TotalPaid() int64 {
	var total int64
	for _, p := range r.Payouts {
		total += p.Amount
	}
	return total
}
