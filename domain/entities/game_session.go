package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle state of a game session
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusActive   SessionStatus = "active"
	SessionStatusFinished SessionStatus = "finished"
	SessionStatusCanceled SessionStatus = "canceled"
)

// GameSession is one timed betting round of a game. The commission percent is
// snapshotted at creation so later game edits never change an open round.
type GameSession struct {
	ID                  int64           `db:"id"`
	GameID              int64           `db:"game_id"`
	StartTime           time.Time       `db:"start_time"`
	EndTime             time.Time       `db:"end_time"`
	Status              SessionStatus   `db:"status"`
	CommissionPercent   decimal.Decimal `db:"commission_percent"`
	TotalBetAmount      decimal.Decimal `db:"total_bet_amount"`
	CommissionAmount    decimal.Decimal `db:"commission_amount"`
	IsProcessing        bool            `db:"is_processing"`
	ProcessingStartedAt *time.Time      `db:"processing_started_at"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

// NewGameSession creates an active session for the game starting at start.
// The end time is derived from the game's round duration.
func NewGameSession(game *Game, start time.Time) *GameSession {
	return &GameSession{
		GameID:            game.ID,
		StartTime:         start,
		EndTime:           start.Add(game.RoundDuration()),
		Status:            SessionStatusActive,
		CommissionPercent: game.CommissionPercent,
		TotalBetAmount:    decimal.Zero,
		CommissionAmount:  decimal.Zero,
	}
}

// IsActive returns true if the session still accepts bets at the given time
func (s *GameSession) IsActive(now time.Time) bool {
	return s.Status == SessionStatusActive && now.Before(s.EndTime)
}

// IsExpired returns true if the betting window has closed
func (s *GameSession) IsExpired(now time.Time) bool {
	return !now.Before(s.EndTime)
}

// IsSettled returns true once the session reached a terminal state
func (s *GameSession) IsSettled() bool {
	return s.Status == SessionStatusFinished || s.Status == SessionStatusCanceled
}

// ProcessingStale reports whether a processing flag has been held longer than
// the given threshold, which means the holder crashed and the session may be
// reclaimed by the next sweep.
func (s *GameSession) ProcessingStale(now time.Time, staleAfter time.Duration) bool {
	if !s.IsProcessing {
		return false
	}
	if s.ProcessingStartedAt == nil {
		return true
	}
	return now.Sub(*s.ProcessingStartedAt) >= staleAfter
}

// RemainingTime returns the seconds left in the betting window, never negative
func (s *GameSession) RemainingTime(now time.Time) int64 {
	remaining := int64(s.EndTime.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Commission computes the commission owed on the given total stake using the
// session's snapshotted percent.
func (s *GameSession) Commission(totalBet decimal.Decimal) decimal.Decimal {
	return totalBet.Mul(s.CommissionPercent).Div(decimal.NewFromInt(100))
}

// Finish marks the session settled with its final totals
func (s *GameSession) Finish(totalBet, commission decimal.Decimal) {
	s.Status = SessionStatusFinished
	s.TotalBetAmount = totalBet
	s.CommissionAmount = commission
}
