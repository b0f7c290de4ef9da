package entities

import (
	"errors"

	"github.com/shopspring/decimal"
)

// BetLimit is the per-coin set of allowed discrete bet amounts.
type BetLimit struct {
	ID          int64             `db:"id"`
	CoinID      int64             `db:"coin_id"`
	AllowedBets []decimal.Decimal `db:"allowed_bets"`
}

// Validate checks that all amounts are positive and distinct
func (l *BetLimit) Validate() error {
	if len(l.AllowedBets) == 0 {
		return errors.New("allowed bets cannot be empty")
	}

	seen := make(map[string]bool, len(l.AllowedBets))
	for _, amount := range l.AllowedBets {
		if !amount.IsPositive() {
			return errors.New("each bet amount must be positive")
		}
		key := amount.String()
		if seen[key] {
			return errors.New("bet amounts cannot contain duplicates")
		}
		seen[key] = true
	}

	return nil
}

// Allows returns true if the given amount is a member of the allowed set
func (l *BetLimit) Allows(amount decimal.Decimal) bool {
	for _, allowed := range l.AllowedBets {
		if allowed.Equal(amount) {
			return true
		}
	}
	return false
}
