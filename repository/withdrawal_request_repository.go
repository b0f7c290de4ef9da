package repository

import (
	"context"
	"fmt"

	"cellbet/database"
	"cellbet/domain/entities"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRequestRepository implements the WithdrawalRequestRepository interface
type WithdrawalRequestRepository struct {
	q Queryable
}

// NewWithdrawalRequestRepository creates a new withdrawal repository backed by the pool
func NewWithdrawalRequestRepository(db *database.DB) *WithdrawalRequestRepository {
	return &WithdrawalRequestRepository{q: db.Pool}
}

// newWithdrawalRequestRepository creates a withdrawal repository bound to a transaction
func newWithdrawalRequestRepository(tx Queryable) *WithdrawalRequestRepository {
	return &WithdrawalRequestRepository{q: tx}
}

const withdrawalColumns = `id, user_id, coin_id, amount, wallet_address, status,
		frozen_amount, is_suspicious, approved_by, rejection_reason,
		request_time, approved_time, rejected_time`

func scanWithdrawal(row pgx.Row) (*entities.WithdrawalRequest, error) {
	var request entities.WithdrawalRequest
	err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.CoinID,
		&request.Amount,
		&request.WalletAddress,
		&request.Status,
		&request.FrozenAmount,
		&request.IsSuspicious,
		&request.ApprovedBy,
		&request.RejectionReason,
		&request.RequestTime,
		&request.ApprovedTime,
		&request.RejectedTime,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a new withdrawal request
func (r *WithdrawalRequestRepository) Create(ctx context.Context, request *entities.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawal_requests (user_id, coin_id, amount, wallet_address,
			status, frozen_amount, is_suspicious, request_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		request.UserID,
		request.CoinID,
		request.Amount,
		request.WalletAddress,
		request.Status,
		request.FrozenAmount,
		request.IsSuspicious,
		request.RequestTime,
	).Scan(&request.ID)

	if err != nil {
		return fmt.Errorf("failed to create withdrawal request for user %d: %w", request.UserID, err)
	}
	return nil
}

// GetByIDForUpdate retrieves a request row with a row-level lock
func (r *WithdrawalRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`

	request, err := scanWithdrawal(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock withdrawal request %d: %w", id, err)
	}
	return request, nil
}

// Update persists request state changes
func (r *WithdrawalRequestRepository) Update(ctx context.Context, request *entities.WithdrawalRequest) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $1, frozen_amount = $2, is_suspicious = $3, approved_by = $4,
			rejection_reason = $5, approved_time = $6, rejected_time = $7
		WHERE id = $8
	`

	result, err := r.q.Exec(ctx, query,
		request.Status,
		request.FrozenAmount,
		request.IsSuspicious,
		request.ApprovedBy,
		request.RejectionReason,
		request.ApprovedTime,
		request.RejectedTime,
		request.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal request %d: %w", request.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal request %d not found", request.ID)
	}

	return nil
}

// ListByStatus returns requests in the given state, oldest first
func (r *WithdrawalRequestRepository) ListByStatus(ctx context.Context, status entities.WithdrawalStatus, limit int) ([]*entities.WithdrawalRequest, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY request_time
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q withdrawal requests: %w", status, err)
	}
	defer rows.Close()

	var requests []*entities.WithdrawalRequest
	for rows.Next() {
		var request entities.WithdrawalRequest
		err := rows.Scan(
			&request.ID,
			&request.UserID,
			&request.CoinID,
			&request.Amount,
			&request.WalletAddress,
			&request.Status,
			&request.FrozenAmount,
			&request.IsSuspicious,
			&request.ApprovedBy,
			&request.RejectionReason,
			&request.RequestTime,
			&request.ApprovedTime,
			&request.RejectedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal request: %w", err)
		}
		requests = append(requests, &request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawal requests: %w", err)
	}

	return requests, nil
}
