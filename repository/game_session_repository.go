package repository

import (
	"context"
	"fmt"
	"time"

	"cellbet/database"
	"cellbet/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// GameSessionRepository implements the GameSessionRepository interface
type GameSessionRepository struct {
	q Queryable
}

// NewGameSessionRepository creates a new session repository backed by the pool
func NewGameSessionRepository(db *database.DB) *GameSessionRepository {
	return &GameSessionRepository{q: db.Pool}
}

// newGameSessionRepository creates a session repository bound to a transaction
func newGameSessionRepository(tx Queryable) *GameSessionRepository {
	return &GameSessionRepository{q: tx}
}

const sessionColumns = `id, game_id, start_time, end_time, status, commission_percent,
		total_bet_amount, commission_amount, is_processing, processing_started_at,
		created_at, updated_at`

func scanSession(row pgx.Row) (*entities.GameSession, error) {
	var session entities.GameSession
	err := row.Scan(
		&session.ID,
		&session.GameID,
		&session.StartTime,
		&session.EndTime,
		&session.Status,
		&session.CommissionPercent,
		&session.TotalBetAmount,
		&session.CommissionAmount,
		&session.IsProcessing,
		&session.ProcessingStartedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByID retrieves a session by its ID
func (r *GameSessionRepository) GetByID(ctx context.Context, id int64) (*entities.GameSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM game_sessions WHERE id = $1`

	session, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", id, err)
	}
	return session, nil
}

// GetByIDForUpdate retrieves a session row with a row-level lock
func (r *GameSessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.GameSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM game_sessions WHERE id = $1 FOR UPDATE`

	session, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock session %d: %w", id, err)
	}
	return session, nil
}

// Create inserts a new session
func (r *GameSessionRepository) Create(ctx context.Context, session *entities.GameSession) error {
	query := `
		INSERT INTO game_sessions (game_id, start_time, end_time, status,
			commission_percent, total_bet_amount, commission_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		session.GameID,
		session.StartTime,
		session.EndTime,
		session.Status,
		session.CommissionPercent,
		session.TotalBetAmount,
		session.CommissionAmount,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create session for game %d: %w", session.GameID, err)
	}
	return nil
}

// Update persists session state changes
func (r *GameSessionRepository) Update(ctx context.Context, session *entities.GameSession) error {
	query := `
		UPDATE game_sessions
		SET status = $1, total_bet_amount = $2, commission_amount = $3,
			is_processing = $4, processing_started_at = $5, updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.q.Exec(ctx, query,
		session.Status,
		session.TotalBetAmount,
		session.CommissionAmount,
		session.IsProcessing,
		session.ProcessingStartedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session %d: %w", session.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %d not found", session.ID)
	}

	return nil
}

// GetActiveByGame returns the game's current pending or active session, or nil
func (r *GameSessionRepository) GetActiveByGame(ctx context.Context, gameID int64) (*entities.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE game_id = $1 AND status IN ('pending', 'active')
		ORDER BY start_time DESC
		LIMIT 1
	`

	session, err := scanSession(r.q.QueryRow(ctx, query, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to get active session for game %d: %w", gameID, err)
	}
	return session, nil
}

// ListExpired returns active sessions whose betting window has closed and
// which are either unclaimed or whose claim predates staleBefore. Claims
// older than the staleness threshold belong to workers that crashed mid
// settlement and are offered to the sweep again.
func (r *GameSessionRepository) ListExpired(ctx context.Context, now, staleBefore time.Time) ([]*entities.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE status = 'active'
		  AND end_time <= $1
		  AND (is_processing = FALSE
		       OR processing_started_at IS NULL
		       OR processing_started_at <= $2)
		ORDER BY end_time
	`

	rows, err := r.q.Query(ctx, query, now, staleBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entities.GameSession
	for rows.Next() {
		var session entities.GameSession
		err := rows.Scan(
			&session.ID,
			&session.GameID,
			&session.StartTime,
			&session.EndTime,
			&session.Status,
			&session.CommissionPercent,
			&session.TotalBetAmount,
			&session.CommissionAmount,
			&session.IsProcessing,
			&session.ProcessingStartedAt,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// SetProcessing marks a session as claimed by a settlement worker
func (r *GameSessionRepository) SetProcessing(ctx context.Context, sessionID int64, startedAt time.Time) error {
	query := `
		UPDATE game_sessions
		SET is_processing = TRUE, processing_started_at = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, startedAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to mark session %d processing: %w", sessionID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %d not found", sessionID)
	}

	return nil
}

// ClearProcessing releases the settlement claim on a session
func (r *GameSessionRepository) ClearProcessing(ctx context.Context, sessionID int64) error {
	query := `
		UPDATE game_sessions
		SET is_processing = FALSE, processing_started_at = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.q.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to clear processing flag on session %d: %w", sessionID, err)
	}
	return nil
}

// LastFinished returns the most recently finished session for a game, or nil
func (r *GameSessionRepository) LastFinished(ctx context.Context, gameID int64) (*entities.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE game_id = $1 AND status IN ('finished', 'canceled')
		ORDER BY end_time DESC
		LIMIT 1
	`

	session, err := scanSession(r.q.QueryRow(ctx, query, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to get last finished session for game %d: %w", gameID, err)
	}
	return session, nil
}

// IncrementTotalBet atomically adds amount to the session's running total
func (r *GameSessionRepository) IncrementTotalBet(ctx context.Context, sessionID int64, amount decimal.Decimal) error {
	query := `
		UPDATE game_sessions
		SET total_bet_amount = total_bet_amount + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, sessionID)
	if err != nil {
		return fmt.Errorf("failed to increment total bet on session %d: %w", sessionID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %d not found", sessionID)
	}

	return nil
}

// ListActiveInfos returns broadcast summaries for all unexpired sessions
func (r *GameSessionRepository) ListActiveInfos(ctx context.Context, now time.Time) ([]*entities.SessionInfo, error) {
	query := `
		SELECT s.game_id, s.id, s.end_time,
			(SELECT COUNT(DISTINCT t.user_id) FROM tickets t WHERE t.session_id = s.id) AS player_count
		FROM game_sessions s
		WHERE s.status = 'active' AND s.end_time > $1
		ORDER BY s.game_id
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active session infos: %w", err)
	}
	defer rows.Close()

	var infos []*entities.SessionInfo
	for rows.Next() {
		var info entities.SessionInfo
		if err := rows.Scan(&info.GameID, &info.SessionID, &info.EndTime, &info.PlayerCount); err != nil {
			return nil, fmt.Errorf("failed to scan session info: %w", err)
		}
		infos = append(infos, &info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session infos: %w", err)
	}

	return infos, nil
}
