package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vitas-brc20/dicer/database"
	"github.com/vitas-brc20/dicer/models"
)

// RollRepository implements the roll log storage
type RollRepository struct {
	q queryable
}

// NewRollRepository creates a new roll repository
func NewRollRepository(db *database.DB) *RollRepository {
	return &RollRepository{q: db.Pool}
}

// newRollRepositoryWithTx creates a new roll repository with a transaction
func newRollRepositoryWithTx(tx queryable) *RollRepository {
	return &RollRepository{q: tx}
}

// Create appends a roll
func (r *RollRepository) Create(ctx context.Context, roll *models.RollEntry) error {
	query := `
		INSERT INTO rolls (account, outcome, rolled_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query, roll.Account, roll.Outcome, roll.RolledAt).Scan(&roll.ID)
	if err != nil {
		return fmt.Errorf("failed to create roll for %s: %w", roll.Account, err)
	}

	return nil
}

// GetByAccount returns an account's most recent rolls
func (r *RollRepository) GetByAccount(ctx context.Context, account string, limit int) ([]*models.RollEntry, error) {
	query := `
		SELECT id, account, outcome, rolled_at
		FROM rolls
		WHERE account = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, account, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query rolls for %s: %w", account, err)
	}

	return scanRolls(rows)
}

// GetInRange returns rolls placed in [start, end) in timestamp order
func (r *RollRepository) GetInRange(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error) {
	query := `
		SELECT id, account, outcome, rolled_at
		FROM rolls
		WHERE rolled_at >= $1 AND rolled_at < $2
		ORDER BY rolled_at, id
	`

	rows, err := r.q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query rolls in range: %w", err)
	}

	return scanRolls(rows)
}

// GetInRangeForUpdate returns rolls placed in [start, end) and locks them
func (r *RollRepository) GetInRangeForUpdate(ctx context.Context, start, end time.Time) ([]*models.RollEntry, error) {
	query := `
		SELECT id, account, outcome, rolled_at
		FROM rolls
		WHERE rolled_at >= $1 AND rolled_at < $2
		ORDER BY rolled_at, id
		FOR UPDATE
	`

	rows, err := r.q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to lock rolls in range: %w", err)
	}

	return scanRolls(rows)
}

// CountInRange counts rolls placed in [start, end)
func (r *RollRepository) CountInRange(ctx context.Context, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM rolls
		WHERE rolled_at >= $1 AND rolled_at < $2
	`

	var count int
	if err := r.q.QueryRow(ctx, query, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rolls in range: %w", err)
	}

	return count, nil
}

// DeleteByIDs removes rolls by ID
func (r *RollRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.q.Exec(ctx, `DELETE FROM rolls WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %d rolls: %w", len(ids), err)
	}

	return result.RowsAffected(), nil
}

func scanRolls(rows pgx.Rows) ([]*models.RollEntry, error) {
	defer rows.Close()

	rolls := make([]*models.RollEntry, 0)
	for rows.Next() {
		var roll models.RollEntry
		if err := rows.Scan(&roll.ID, &roll.Account, &roll.Outcome, &roll.RolledAt); err != nil {
			return nil, fmt.Errorf("failed to scan roll: %w", err)
		}
		rolls = append(rolls, &roll)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rolls: %w", err)
	}

	return rolls, nil
}
