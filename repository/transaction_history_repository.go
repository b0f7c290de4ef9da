package repository

import (
	"context"
	"fmt"

	"cellbet/database"
	"cellbet/domain/entities"

	"github.com/shopspring/decimal"
)

// TransactionHistoryRepository implements the TransactionHistoryRepository interface
type TransactionHistoryRepository struct {
	q Queryable
}

// NewTransactionHistoryRepository creates a new ledger repository backed by the pool
func NewTransactionHistoryRepository(db *database.DB) *TransactionHistoryRepository {
	return &TransactionHistoryRepository{q: db.Pool}
}

// newTransactionHistoryRepository creates a ledger repository bound to a transaction
func newTransactionHistoryRepository(tx Queryable) *TransactionHistoryRepository {
	return &TransactionHistoryRepository{q: tx}
}

// Record creates a new ledger entry. Entries are append-only; there is no
// update or delete path in this repository.
func (r *TransactionHistoryRepository) Record(ctx context.Context, entry *entities.TransactionHistory) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	query := `
		INSERT INTO transaction_history (balance_id, amount, type, subtype,
			session_id, ticket_id, memo, transaction_id, trace_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.BalanceID,
		entry.Amount,
		entry.Type,
		entry.Subtype,
		entry.SessionID,
		entry.TicketID,
		entry.Memo,
		entry.TransactionID,
		entry.TraceID,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record ledger entry for balance %d: %w", entry.BalanceID, err)
	}
	return nil
}

// ExistsByTraceID reports whether a deposit with this trace has been applied
func (r *TransactionHistoryRepository) ExistsByTraceID(ctx context.Context, traceID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM transaction_history WHERE trace_id = $1)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, traceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check trace %q: %w", traceID, err)
	}
	return exists, nil
}

// ExistsWinForTicket reports whether a win payout was already recorded for
// the ticket
func (r *TransactionHistoryRepository) ExistsWinForTicket(ctx context.Context, ticketID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM transaction_history
			WHERE ticket_id = $1 AND subtype = $2
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, ticketID, entities.TransactionSubtypeWin).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check win payout for ticket %d: %w", ticketID, err)
	}
	return exists, nil
}

// ListByBalance returns recent ledger entries for a balance, newest first
func (r *TransactionHistoryRepository) ListByBalance(ctx context.Context, balanceID int64, limit int) ([]*entities.TransactionHistory, error) {
	query := `
		SELECT id, balance_id, amount, type, subtype, session_id, ticket_id,
			memo, transaction_id, trace_id, created_at
		FROM transaction_history
		WHERE balance_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, balanceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for balance %d: %w", balanceID, err)
	}
	defer rows.Close()

	var entries []*entities.TransactionHistory
	for rows.Next() {
		var entry entities.TransactionHistory
		err := rows.Scan(
			&entry.ID,
			&entry.BalanceID,
			&entry.Amount,
			&entry.Type,
			&entry.Subtype,
			&entry.SessionID,
			&entry.TicketID,
			&entry.Memo,
			&entry.TransactionID,
			&entry.TraceID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// SumBySubtype returns the lifetime signed sum of entries of one subtype
// across all of a user's balances for a coin
func (r *TransactionHistoryRepository) SumBySubtype(ctx context.Context, userID, coinID int64, subtype entities.TransactionSubtype) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(h.amount), 0)
		FROM transaction_history h
		JOIN balances b ON b.id = h.balance_id
		WHERE b.user_id = $1 AND b.coin_id = $2 AND h.subtype = $3
	`

	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, userID, coinID, subtype).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %q entries for user %d coin %d: %w", subtype, userID, coinID, err)
	}
	return sum, nil
}
