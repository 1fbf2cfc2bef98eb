package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vitas-brc20/dicer/database"
	"github.com/vitas-brc20/dicer/models"
	"github.com/vitas-brc20/dicer/service"
)

// settlementLockKey is the advisory lock shared by roll submission and period close
const settlementLockKey int64 = 0x6469636572 // "dicer"

const uniqueViolation = "23505"

const winningDrawColumns = `
	period_id, period_start, period_end, winning_outcome, drawn_at,
	pot, payable_pot, share, roll_count, winner_count, digest
`

// WinningDrawRepository implements draw history storage
type WinningDrawRepository struct {
	q queryable
}

// NewWinningDrawRepository creates a new winning draw repository
func NewWinningDrawRepository(db *database.DB) *WinningDrawRepository {
	return &WinningDrawRepository{q: db.Pool}
}

// newWinningDrawRepositoryWithTx creates a new winning draw repository with a transaction
func newWinningDrawRepositoryWithTx(tx queryable) *WinningDrawRepository {
	return &WinningDrawRepository{q: tx}
}

// AcquireSettlementLock takes the exclusive settlement lock for the current transaction
func (r *WinningDrawRepository) AcquireSettlementLock(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, settlementLockKey); err != nil {
		return fmt.Errorf("failed to acquire settlement lock: %w", err)
	}
	return nil
}

// AcquireSettlementLockShared takes the settlement lock in shared mode for the current transaction
func (r *WinningDrawRepository) AcquireSettlementLockShared(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, settlementLockKey); err != nil {
		return fmt.Errorf("failed to acquire shared settlement lock: %w", err)
	}
	return nil
}

// Create records a draw
func (r *WinningDrawRepository) Create(ctx context.Context, draw *models.WinningDraw) error {
	query := `
		INSERT INTO winning_draws (` + winningDrawColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.Exec(ctx, query,
		draw.PeriodID,
		draw.PeriodStart,
		draw.PeriodEnd,
		draw.WinningOutcome,
		draw.DrawnAt,
		draw.Pot,
		draw.PayablePot,
		draw.Share,
		draw.RollCount,
		draw.WinnerCount,
		draw.Digest,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return service.ErrPeriodClosed
	}
	if err != nil {
		return fmt.Errorf("failed to create draw for period %d: %w", draw.PeriodID, err)
	}

	return nil
}

// GetByPeriodID retrieves the draw for a period
func (r *WinningDrawRepository) GetByPeriodID(ctx context.Context, periodID int64) (*models.WinningDraw, error) {
	query := `SELECT ` + winningDrawColumns + ` FROM winning_draws WHERE period_id = $1`

	draw, err := scanWinningDraw(r.q.QueryRow(ctx, query, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw for period %d: %w", periodID, err)
	}

	return draw, nil
}

// GetLatest returns the most recently settled draw
func (r *WinningDrawRepository) GetLatest(ctx context.Context) (*models.WinningDraw, error) {
	query := `
		SELECT ` + winningDrawColumns + `
		FROM winning_draws
		ORDER BY drawn_at DESC, period_id DESC
		LIMIT 1
	`

	draw, err := scanWinningDraw(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest draw: %w", err)
	}

	return draw, nil
}

// List returns draws newest first
func (r *WinningDrawRepository) List(ctx context.Context, limit int) ([]*models.WinningDraw, error) {
	query := `
		SELECT ` + winningDrawColumns + `
		FROM winning_draws
		ORDER BY drawn_at DESC, period_id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}
	defer rows.Close()

	draws := make([]*models.WinningDraw, 0)
	for rows.Next() {
		draw, err := scanWinningDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draws: %w", err)
	}

	return draws, nil
}

func scanWinningDraw(row pgx.Row) (*models.WinningDraw, error) {
	var draw models.WinningDraw
	err := row.Scan(
		&draw.PeriodID,
		&draw.PeriodStart,
		&draw.PeriodEnd,
		&draw.WinningOutcome,
		&draw.DrawnAt,
		&draw.Pot,
		&draw.PayablePot,
		&draw.Share,
		&draw.RollCount,
		&draw.WinnerCount,
		&draw.Digest,
	)
	if err != nil {
		return nil, err
	}
	return &draw, nil
}
