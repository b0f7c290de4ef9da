package repository

import (
	"context"
	"fmt"

	"cellbet/database"
	"cellbet/domain/entities"
)

// WinningCellRepository implements the WinningCellRepository interface
type WinningCellRepository struct {
	q Queryable
}

// NewWinningCellRepository creates a new winning cell repository backed by the pool
func NewWinningCellRepository(db *database.DB) *WinningCellRepository {
	return &WinningCellRepository{q: db.Pool}
}

// newWinningCellRepository creates a winning cell repository bound to a transaction
func newWinningCellRepository(tx Queryable) *WinningCellRepository {
	return &WinningCellRepository{q: tx}
}

// CreateBatch records the winning cells of a settled session
func (r *WinningCellRepository) CreateBatch(ctx context.Context, cells []*entities.WinningCell) error {
	query := `
		INSERT INTO winning_cells (session_id, cell_number)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	for _, cell := range cells {
		err := r.q.QueryRow(ctx, query, cell.SessionID, cell.CellNumber).
			Scan(&cell.ID, &cell.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record winning cell %d for session %d: %w",
				cell.CellNumber, cell.SessionID, err)
		}
	}

	return nil
}

// ListBySession returns the winning cells recorded for a session
func (r *WinningCellRepository) ListBySession(ctx context.Context, sessionID int64) ([]*entities.WinningCell, error) {
	query := `
		SELECT id, session_id, cell_number, created_at
		FROM winning_cells
		WHERE session_id = $1
		ORDER BY cell_number
	`

	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winning cells for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	var cells []*entities.WinningCell
	for rows.Next() {
		var cell entities.WinningCell
		if err := rows.Scan(&cell.ID, &cell.SessionID, &cell.CellNumber, &cell.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan winning cell: %w", err)
		}
		cells = append(cells, &cell)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winning cells: %w", err)
	}

	return cells, nil
}
