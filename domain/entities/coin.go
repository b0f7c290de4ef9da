package entities

import "time"

// Coin represents a supported currency. Its identity is immutable once
// balances reference it.
type Coin struct {
	ID              int64   `db:"id"`
	Name            string  `db:"name"`
	Symbol          string  `db:"symbol"`
	ContractAddress *string `db:"contract_address"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
