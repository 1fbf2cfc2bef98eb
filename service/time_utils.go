package service

import (
	"time"

	"github.com/vitas-brc20/dicer/models"
)

// PeriodAt returns the period containing now. Boundaries are aligned to
// midnight UTC on the unix epoch shifted by offset, independent of any roll.
func PeriodAt(now time.Time, length, offset time.Duration) models.Period {
	anchor := time.Unix(0, 0).UTC().Add(offset)
	elapsed := now.Sub(anchor)

	n := elapsed / length
	if elapsed < 0 && elapsed%length != 0 {
		n--
	}

	start := anchor.Add(n * length)
	return models.Period{
		Start: start,
		End:   start.Add(length),
	}
}

// GetNextCloseTime returns when the draw worker should close the period containing now.
// With no cutoff the close runs a minute before the boundary so it still lands inside the period.
func GetNextCloseTime(now time.Time, length, offset, cutoff time.Duration) time.Time {
	period := PeriodAt(now, length, offset)
	lead := cutoff
	if lead <= 0 {
		lead = time.Minute
	}
	if lead >= length {
		lead = length / 2
	}
	return period.End.Add(-lead)
}

// SystemClock reads the host clock in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
