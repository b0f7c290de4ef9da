package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameStatus represents the lifecycle state of a game template
type GameStatus string

const (
	GameStatusActive   GameStatus = "active"
	GameStatusDisabled GameStatus = "disabled"
	GameStatusArchived GameStatus = "archived"
)

// Game is the template a session is stamped from: the cell grid, the round
// duration and the commission taken from each settled round.
type Game struct {
	ID                int64           `db:"id"`
	Name              string          `db:"name"`
	CellCount         int             `db:"cell_count"`
	BetAmount         decimal.Decimal `db:"bet_amount"`
	CommissionPercent decimal.Decimal `db:"commission_percent"`
	GameTimeSeconds   int64           `db:"game_time_seconds"`
	AutoStartSeconds  int64           `db:"auto_start_seconds"`
	Status            GameStatus      `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// IsActive returns true if the game accepts new sessions and bets
func (g *Game) IsActive() bool {
	return g.Status == GameStatusActive
}

// RoundDuration returns the betting window length of one session
func (g *Game) RoundDuration() time.Duration {
	return time.Duration(g.GameTimeSeconds) * time.Second
}

// AutoStartDelay returns how long after the last finished session a new one
// is auto-started
func (g *Game) AutoStartDelay() time.Duration {
	return time.Duration(g.AutoStartSeconds) * time.Second
}

// ValidCell returns true if the cell number is within the game's grid
func (g *Game) ValidCell(cell int) bool {
	return cell >= 1 && cell <= g.CellCount
}
