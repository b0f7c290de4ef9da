package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Balance holds the available and locked funds of one user in one coin.
// Both amounts are non-negative at rest and are only mutated by ledger
// operations while the row is held under a write lock.
type Balance struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	CoinID    int64           `db:"coin_id"`
	Available decimal.Decimal `db:"available"`
	Locked    decimal.Decimal `db:"locked"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Total returns available plus locked funds
func (b *Balance) Total() decimal.Decimal {
	return b.Available.Add(b.Locked)
}

// Credit adds amount to the available funds
func (b *Balance) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("credit amount must be positive")
	}
	b.Available = b.Available.Add(amount)
	return nil
}

// DebitAndLock moves amount from available to locked funds
func (b *Balance) DebitAndLock(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("debit amount must be positive")
	}
	if b.Available.LessThan(amount) {
		return errors.New("available balance is less than debit amount")
	}
	b.Available = b.Available.Sub(amount)
	b.Locked = b.Locked.Add(amount)
	return nil
}

// UnlockAndDebit removes amount from the locked funds entirely
func (b *Balance) UnlockAndDebit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("debit amount must be positive")
	}
	if b.Locked.LessThan(amount) {
		return errors.New("locked balance is less than debit amount")
	}
	b.Locked = b.Locked.Sub(amount)
	return nil
}

// Unlock moves amount from locked back to available funds
func (b *Balance) Unlock(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("unlock amount must be positive")
	}
	if b.Locked.LessThan(amount) {
		return errors.New("locked balance is less than unlock amount")
	}
	b.Locked = b.Locked.Sub(amount)
	b.Available = b.Available.Add(amount)
	return nil
}
