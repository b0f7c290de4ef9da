package entities

import "time"

// SessionInfo is the live snapshot of one active session surfaced to
// real-time subscribers: at most one per game.
type SessionInfo struct {
	GameID      int64     `db:"game_id"`
	SessionID   int64     `db:"session_id"`
	EndTime     time.Time `db:"end_time"`
	PlayerCount int       `db:"player_count"`
}

// Remaining returns the seconds left in the betting window, never negative
func (i *SessionInfo) Remaining(now time.Time) int64 {
	remaining := int64(i.EndTime.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
