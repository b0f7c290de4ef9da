package testutil

import (
	"context"
	"testing"

	"cellbet/database"
	"cellbet/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Seed helpers insert catalog rows directly. Users, coins and games have no
// write path through the repositories, so tests create them here.

// SeedUser inserts a user and returns it with its assigned ID
func SeedUser(t *testing.T, db *database.DB, username, memo string) *entities.User {
	t.Helper()

	user := &entities.User{Username: username, MemoPhrase: &memo}
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO users (username, memo_phrase) VALUES ($1, $2) RETURNING id, created_at`,
		username, memo,
	).Scan(&user.ID, &user.CreatedAt)
	require.NoError(t, err)

	return user
}

// SeedCoin inserts a coin and returns it with its assigned ID
func SeedCoin(t *testing.T, db *database.DB, name, symbol string) *entities.Coin {
	t.Helper()

	coin := &entities.Coin{Name: name, Symbol: symbol}
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO coins (name, symbol) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		name, symbol,
	).Scan(&coin.ID, &coin.CreatedAt, &coin.UpdatedAt)
	require.NoError(t, err)

	return coin
}

// SeedBetLimit inserts the allowed stake set for a coin
func SeedBetLimit(t *testing.T, db *database.DB, coinID int64, amounts ...string) {
	t.Helper()

	raw := make([]string, 0, len(amounts))
	raw = append(raw, amounts...)
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO bet_limits (coin_id, allowed_bets) VALUES ($1, $2::numeric[])`,
		coinID, raw,
	)
	require.NoError(t, err)
}

// SeedGame inserts an active game template and returns it with its assigned ID
func SeedGame(t *testing.T, db *database.DB, name string, cellCount int, commissionPercent string, gameTimeSeconds int64) *entities.Game {
	t.Helper()

	game := &entities.Game{
		Name:              name,
		CellCount:         cellCount,
		BetAmount:         decimal.Zero,
		CommissionPercent: decimal.RequireFromString(commissionPercent),
		GameTimeSeconds:   gameTimeSeconds,
		AutoStartSeconds:  60,
		Status:            entities.GameStatusActive,
	}
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO games (name, cell_count, bet_amount, commission_percent, game_time_seconds, auto_start_seconds, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		game.Name, game.CellCount, game.BetAmount, game.CommissionPercent,
		game.GameTimeSeconds, game.AutoStartSeconds, game.Status,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)
	require.NoError(t, err)

	return game
}

// SeedGameCoin marks a coin as accepted by a game
func SeedGameCoin(t *testing.T, db *database.DB, gameID, coinID int64) {
	t.Helper()

	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO game_coins (game_id, coin_id) VALUES ($1, $2)`,
		gameID, coinID,
	)
	require.NoError(t, err)
}

// SeedBalance inserts a funded balance row for a user
func SeedBalance(t *testing.T, db *database.DB, userID, coinID int64, available string) *entities.Balance {
	t.Helper()

	balance := &entities.Balance{
		UserID:    userID,
		CoinID:    coinID,
		Available: decimal.RequireFromString(available),
		Locked:    decimal.Zero,
	}
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO balances (user_id, coin_id, available, locked)
		 VALUES ($1, $2, $3, 0)
		 RETURNING id, created_at, updated_at`,
		userID, coinID, balance.Available,
	).Scan(&balance.ID, &balance.CreatedAt, &balance.UpdatedAt)
	require.NoError(t, err)

	return balance
}
