package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitas-brc20/dicer/database"
	"github.com/vitas-brc20/dicer/models"
)

const payoutColumns = `id, period_id, winner_account, amount, created_at, processed, processed_at`

// PayoutRepository implements payout queue storage
type PayoutRepository struct {
	q queryable
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *database.DB) *PayoutRepository {
	return &PayoutRepository{q: db.Pool}
}

// newPayoutRepositoryWithTx creates a new payout repository with a transaction
func newPayoutRepositoryWithTx(tx queryable) *PayoutRepository {
	return &PayoutRepository{q: tx}
}

// CreateBatch inserts payouts in one statement, assigning IDs in entry order
func (r *PayoutRepository) CreateBatch(ctx context.Context, payouts []*models.PayoutEntry) error {
	if len(payouts) == 0 {
		return nil
	}

	query := `
		INSERT INTO payouts (period_id, winner_account, amount, processed, processed_at)
		VALUES
	`

	var args []interface{}
	for i, payout := range payouts {
		if i > 0 {
			query += ","
		}
		paramIndex := i * 5
		query += fmt.Sprintf(" ($%d, $%d, $%d, $%d, $%d)",
			paramIndex+1, paramIndex+2, paramIndex+3, paramIndex+4, paramIndex+5)

		args = append(args,
			payout.PeriodID,
			payout.WinnerAccount,
			payout.Amount,
			payout.Processed,
			payout.ProcessedAt,
		)
	}

	query += " RETURNING id, created_at"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create payouts: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(payouts) {
			return fmt.Errorf("unexpected number of rows returned")
		}
		if err := rows.Scan(&payouts[i].ID, &payouts[i].CreatedAt); err != nil {
			return fmt.Errorf("failed to scan payout ID: %w", err)
		}
		i++
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating created payouts: %w", err)
	}
	if i != len(payouts) {
		return fmt.Errorf("expected %d created payouts, got %d", len(payouts), i)
	}

	return nil
}

// GetByID retrieves a payout
func (r *PayoutRepository) GetByID(ctx context.Context, id int64) (*models.PayoutEntry, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	payout, err := scanPayout(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout %d: %w", id, err)
	}

	return payout, nil
}

// MarkProcessed flips a pending payout to processed
func (r *PayoutRepository) MarkProcessed(ctx context.Context, id int64, processedAt time.Time) (*models.PayoutEntry, error) {
	query := `
		UPDATE payouts
		SET processed = TRUE, processed_at = $2
		WHERE id = $1 AND processed = FALSE
		RETURNING ` + payoutColumns

	payout, err := scanPayout(r.q.QueryRow(ctx, query, id, processedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark payout %d processed: %w", id, err)
	}

	return payout, nil
}

// GetPending returns unprocessed payouts oldest first
func (r *PayoutRepository) GetPending(ctx context.Context, limit int) ([]*models.PayoutEntry, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE processed = FALSE
		ORDER BY created_at, id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending payouts: %w", err)
	}

	return scanPayouts(rows)
}

// GetByWinner returns an account's payouts newest first
func (r *PayoutRepository) GetByWinner(ctx context.Context, account string, limit int) ([]*models.PayoutEntry, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE winner_account = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, account, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query payouts for %s: %w", account, err)
	}

	return scanPayouts(rows)
}

func scanPayout(row pgx.Row) (*models.PayoutEntry, error) {
	var payout models.PayoutEntry
	err := row.Scan(
		&payout.ID,
		&payout.PeriodID,
		&payout.WinnerAccount,
		&payout.Amount,
		&payout.CreatedAt,
		&payout.Processed,
		&payout.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func scanPayouts(rows pgx.Rows) ([]*models.PayoutEntry, error) {
	defer rows.Close()

	payouts := make([]*models.PayoutEntry, 0)
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payouts: %w", err)
	}

	return payouts, nil
}
