package models

import (
	"time"
)

// Period is a fixed-length settlement window [Start, End)
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ID returns the period identifier: the closing timestamp in unix seconds
func (p Period) ID() int64 {
	return p.End.Unix()
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// CutoffAt returns the time rolls stop being accepted for this period.
// A zero cutoff keeps the period open until its end.
func (p Period) CutoffAt(cutoff time.Duration) time.Time {
	return p.End.Add(-cutoff)
}

// PeriodStatus describes the current period for display
type PeriodStatus struct {
	Period    Period       `json:"period"`
	PeriodID  int64        `json:"period_id"`
	CutoffAt  time.Time    `json:"cutoff_at"`
	Rolling   bool         `json:"rolling"` // rolls are currently accepted
	Draw      *WinningDraw `json:"draw,omitempty"`
	RollCount int          `json:"roll_count"`
	Pot       int64        `json:"pot"`
}
