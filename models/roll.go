package models

import (
	"time"
)

// RollEntry is one dice roll placed during the open period
type RollEntry struct {
	ID       int64     `db:"id" json:"id"`
	Account  string    `db:"account" json:"account"`
	Outcome  int       `db:"outcome" json:"outcome"`
	RolledAt time.Time `db:"rolled_at" json:"rolled_at"`
}

// IsWinner returns true if the roll matches the winning outcome
func (r *RollEntry) IsWinner(winningOutcome int) bool {
	return r.Outcome == winningOutcome
}
