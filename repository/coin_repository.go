package repository

import (
	"context"
	"fmt"

	"cellbet/database"
	"cellbet/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CoinRepository implements the CoinRepository interface
type CoinRepository struct {
	q Queryable
}

// NewCoinRepository creates a new coin repository backed by the pool
func NewCoinRepository(db *database.DB) *CoinRepository {
	return &CoinRepository{q: db.Pool}
}

// newCoinRepository creates a coin repository bound to a transaction
func newCoinRepository(tx Queryable) *CoinRepository {
	return &CoinRepository{q: tx}
}

const coinColumns = `id, name, symbol, contract_address, created_at, updated_at`

func scanCoin(row pgx.Row) (*entities.Coin, error) {
	var coin entities.Coin
	err := row.Scan(
		&coin.ID,
		&coin.Name,
		&coin.Symbol,
		&coin.ContractAddress,
		&coin.CreatedAt,
		&coin.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

// GetByID retrieves a coin by its internal ID
func (r *CoinRepository) GetByID(ctx context.Context, id int64) (*entities.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins WHERE id = $1`

	coin, err := scanCoin(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get coin %d: %w", id, err)
	}
	return coin, nil
}

// GetBySymbol retrieves a coin by its ticker symbol
func (r *CoinRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins WHERE symbol = $1`

	coin, err := scanCoin(r.q.QueryRow(ctx, query, symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to get coin %q: %w", symbol, err)
	}
	return coin, nil
}

// GetBetLimit returns the allowed stake amounts for a coin.
// The amounts are stored as a numeric array and parsed via their text form to
// keep exact decimal precision.
func (r *CoinRepository) GetBetLimit(ctx context.Context, coinID int64) (*entities.BetLimit, error) {
	query := `SELECT id, coin_id, allowed_bets::text[] FROM bet_limits WHERE coin_id = $1`

	var limit entities.BetLimit
	var raw []string
	err := r.q.QueryRow(ctx, query, coinID).Scan(&limit.ID, &limit.CoinID, &raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet limit for coin %d: %w", coinID, err)
	}

	limit.AllowedBets = make([]decimal.Decimal, 0, len(raw))
	for _, s := range raw {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse bet limit amount %q: %w", s, err)
		}
		limit.AllowedBets = append(limit.AllowedBets, amount)
	}

	return &limit, nil
}
