package repository

import (
	"context"
	"fmt"

	"cellbet/database"
	"cellbet/domain/entities"

	"github.com/jackc/pgx/v5"
)

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q Queryable
}

// NewGameRepository creates a new game repository backed by the pool
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepository creates a game repository bound to a transaction
func newGameRepository(tx Queryable) *GameRepository {
	return &GameRepository{q: tx}
}

const gameColumns = `id, name, cell_count, bet_amount, commission_percent,
		game_time_seconds, auto_start_seconds, status, created_at, updated_at`

func scanGame(row pgx.Row) (*entities.Game, error) {
	var game entities.Game
	err := row.Scan(
		&game.ID,
		&game.Name,
		&game.CellCount,
		&game.BetAmount,
		&game.CommissionPercent,
		&game.GameTimeSeconds,
		&game.AutoStartSeconds,
		&game.Status,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetByID retrieves a game by its ID
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*entities.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game, err := scanGame(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return game, nil
}

// GetByIDForUpdate retrieves a game row with a row-level lock. Session
// creation locks the game row first so only one round can be opened per game.
func (r *GameRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1 FOR UPDATE`

	game, err := scanGame(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock game %d: %w", id, err)
	}
	return game, nil
}

// ListActive returns all games accepting bets
func (r *GameRepository) ListActive(ctx context.Context) ([]*entities.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE status = 'active' ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active games: %w", err)
	}
	defer rows.Close()

	var games []*entities.Game
	for rows.Next() {
		var game entities.Game
		err := rows.Scan(
			&game.ID,
			&game.Name,
			&game.CellCount,
			&game.BetAmount,
			&game.CommissionPercent,
			&game.GameTimeSeconds,
			&game.AutoStartSeconds,
			&game.Status,
			&game.CreatedAt,
			&game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}

	return games, nil
}

// IsCoinSupported reports whether a game accepts stakes in the coin
func (r *GameRepository) IsCoinSupported(ctx context.Context, gameID, coinID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM game_coins WHERE game_id = $1 AND coin_id = $2)`

	var supported bool
	if err := r.q.QueryRow(ctx, query, gameID, coinID).Scan(&supported); err != nil {
		return false, fmt.Errorf("failed to check coin %d support for game %d: %w", coinID, gameID, err)
	}
	return supported, nil
}
