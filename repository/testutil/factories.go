package testutil

import (
	"time"

	"github.com/vitas-brc20/dicer/models"
)

// CreateTestRoll creates a roll entry for an account at the given time
func CreateTestRoll(account string, outcome int, rolledAt time.Time) *models.RollEntry {
	return &models.RollEntry{
		Account:  account,
		Outcome:  outcome,
		RolledAt: rolledAt,
	}
}

// CreateTestDraw creates a settled draw for the period ending at end
func CreateTestDraw(end time.Time, winningOutcome int, winners int) *models.WinningDraw {
	pot := int64(3) * models.TicketPrice
	payable := pot * 9 / 10
	var share int64
	if winners > 0 {
		share = payable / int64(winners)
	}
	return &models.WinningDraw{
		PeriodID:       end.Unix(),
		PeriodStart:    end.Add(-24 * time.Hour),
		PeriodEnd:      end,
		WinningOutcome: winningOutcome,
		DrawnAt:        end,
		Pot:            pot,
		PayablePot:     payable,
		Share:          share,
		RollCount:      3,
		WinnerCount:    winners,
		Digest:         make([]byte, 32),
	}
}

// CreateTestPayout creates a pending payout for a winner
func CreateTestPayout(periodID int64, winner string, amount int64) *models.PayoutEntry {
	return &models.PayoutEntry{
		PeriodID:      periodID,
		WinnerAccount: winner,
		Amount:        amount,
	}
}
