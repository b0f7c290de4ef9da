package repository

import (
	"context"
	"fmt"

	"cellbet/database"
	"cellbet/domain/entities"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository implements the BalanceRepository interface
type BalanceRepository struct {
	q Queryable
}

// NewBalanceRepository creates a new balance repository backed by the pool
func NewBalanceRepository(db *database.DB) *BalanceRepository {
	return &BalanceRepository{q: db.Pool}
}

// newBalanceRepository creates a balance repository bound to a transaction
func newBalanceRepository(tx Queryable) *BalanceRepository {
	return &BalanceRepository{q: tx}
}

const balanceColumns = `id, user_id, coin_id, available, locked, created_at, updated_at`

func scanBalance(row pgx.Row) (*entities.Balance, error) {
	var balance entities.Balance
	err := row.Scan(
		&balance.ID,
		&balance.UserID,
		&balance.CoinID,
		&balance.Available,
		&balance.Locked,
		&balance.CreatedAt,
		&balance.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// GetForUpdate retrieves a balance row with a row-level lock held for the
// duration of the enclosing transaction
func (r *BalanceRepository) GetForUpdate(ctx context.Context, userID, coinID int64) (*entities.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE user_id = $1 AND coin_id = $2
		FOR UPDATE
	`

	balance, err := scanBalance(r.q.QueryRow(ctx, query, userID, coinID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance for user %d coin %d: %w", userID, coinID, err)
	}
	return balance, nil
}

// GetOrCreateForUpdate retrieves a locked balance row, creating a zero
// balance first if none exists. The insert is idempotent so two concurrent
// callers converge on the same row and serialize on its lock.
func (r *BalanceRepository) GetOrCreateForUpdate(ctx context.Context, userID, coinID int64) (*entities.Balance, error) {
	insert := `
		INSERT INTO balances (user_id, coin_id, available, locked)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (user_id, coin_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, userID, coinID); err != nil {
		return nil, fmt.Errorf("failed to ensure balance for user %d coin %d: %w", userID, coinID, err)
	}

	return r.GetForUpdate(ctx, userID, coinID)
}

// Update persists the available and locked amounts of a balance
func (r *BalanceRepository) Update(ctx context.Context, balance *entities.Balance) error {
	query := `
		UPDATE balances
		SET available = $1, locked = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, balance.Available, balance.Locked, balance.ID)
	if err != nil {
		return fmt.Errorf("failed to update balance %d: %w", balance.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("balance %d not found", balance.ID)
	}

	return nil
}

// GetByUser returns all balances for a user
func (r *BalanceRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Balance, error) {
	query := `
		SELECT ` + balanceColumns + `
		FROM balances
		WHERE user_id = $1
		ORDER BY coin_id
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances for user %d: %w", userID, err)
	}
	defer rows.Close()

	var balances []*entities.Balance
	for rows.Next() {
		var balance entities.Balance
		err := rows.Scan(
			&balance.ID,
			&balance.UserID,
			&balance.CoinID,
			&balance.Available,
			&balance.Locked,
			&balance.CreatedAt,
			&balance.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, &balance)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	return balances, nil
}
