package repository

import (
	"context"
	"fmt"

	"cellbet/database"
	"cellbet/domain/entities"
)

// TicketRepository implements the TicketRepository interface
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a new ticket repository backed by the pool
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

// newTicketRepository creates a ticket repository bound to a transaction
func newTicketRepository(tx Queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

// CreateBatch inserts all tickets of one admission atomically. The unique
// (user_id, session_id, cell_number) constraint backs the application-level
// duplicate check against concurrent admissions.
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	query := `
		INSERT INTO tickets (user_id, coin_id, session_id, cell_number, bet_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	for _, ticket := range tickets {
		err := r.q.QueryRow(ctx, query,
			ticket.UserID,
			ticket.CoinID,
			ticket.SessionID,
			ticket.CellNumber,
			ticket.BetAmount,
			ticket.Status,
		).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)

		if err != nil {
			return fmt.Errorf("failed to create ticket on cell %d in session %d: %w",
				ticket.CellNumber, ticket.SessionID, err)
		}
	}

	return nil
}

// ListBySession returns every ticket placed in a session
func (r *TicketRepository) ListBySession(ctx context.Context, sessionID int64) ([]*entities.Ticket, error) {
	query := `
		SELECT id, user_id, coin_id, session_id, cell_number, bet_amount,
			status, result, winning_amount, created_at, updated_at
		FROM tickets
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var tickets []*entities.Ticket
	for rows.Next() {
		var ticket entities.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.CoinID,
			&ticket.SessionID,
			&ticket.CellNumber,
			&ticket.BetAmount,
			&ticket.Status,
			&ticket.Result,
			&ticket.WinningAmount,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	return tickets, nil
}

// ListUserCells returns the cell numbers a user already holds in a session
func (r *TicketRepository) ListUserCells(ctx context.Context, userID, sessionID int64) ([]int, error) {
	query := `
		SELECT cell_number FROM tickets
		WHERE user_id = $1 AND session_id = $2
		ORDER BY cell_number
	`

	rows, err := r.q.Query(ctx, query, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells for user %d in session %d: %w", userID, sessionID, err)
	}
	defer rows.Close()

	var cells []int
	for rows.Next() {
		var cell int
		if err := rows.Scan(&cell); err != nil {
			return nil, fmt.Errorf("failed to scan cell number: %w", err)
		}
		cells = append(cells, cell)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cells: %w", err)
	}

	return cells, nil
}

// Update persists a ticket's settlement result
func (r *TicketRepository) Update(ctx context.Context, ticket *entities.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $1, result = $2, winning_amount = $3, updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, ticket.Status, ticket.Result, ticket.WinningAmount, ticket.ID)
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", ticket.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ticket %d not found", ticket.ID)
	}

	return nil
}

// FinishSessionTickets moves every ticket of a session to the given status
func (r *TicketRepository) FinishSessionTickets(ctx context.Context, sessionID int64, status entities.SessionStatus) error {
	query := `
		UPDATE tickets
		SET status = $1, updated_at = NOW()
		WHERE session_id = $2
	`

	if _, err := r.q.Exec(ctx, query, status, sessionID); err != nil {
		return fmt.Errorf("failed to finish tickets for session %d: %w", sessionID, err)
	}
	return nil
}
