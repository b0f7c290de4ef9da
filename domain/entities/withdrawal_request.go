package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// WithdrawalRequest tracks a user's request to move funds off-platform.
// Funds are only locked at approval, never at request time, so rejection
// releases nothing.
type WithdrawalRequest struct {
	ID              int64            `db:"id"`
	UserID          int64            `db:"user_id"`
	CoinID          int64            `db:"coin_id"`
	Amount          decimal.Decimal  `db:"amount"`
	WalletAddress   string           `db:"wallet_address"`
	Status          WithdrawalStatus `db:"status"`
	FrozenAmount    decimal.Decimal  `db:"frozen_amount"`
	IsSuspicious    bool             `db:"is_suspicious"`
	ApprovedBy      *int64           `db:"approved_by"`
	RejectionReason *string          `db:"rejection_reason"`
	RequestTime     time.Time        `db:"request_time"`
	ApprovedTime    *time.Time       `db:"approved_time"`
	RejectedTime    *time.Time       `db:"rejected_time"`
}

// Approve transitions pending -> approved
func (w *WithdrawalRequest) Approve(adminID int64, now time.Time) error {
	if w.Status != WithdrawalStatusPending {
		return fmt.Errorf("cannot approve withdrawal in state %q", w.Status)
	}
	w.Status = WithdrawalStatusApproved
	w.ApprovedBy = &adminID
	w.ApprovedTime = &now
	return nil
}

// Reject transitions pending -> rejected
func (w *WithdrawalRequest) Reject(reason string, now time.Time) error {
	if w.Status != WithdrawalStatusPending {
		return fmt.Errorf("cannot reject withdrawal in state %q", w.Status)
	}
	w.Status = WithdrawalStatusRejected
	w.RejectionReason = &reason
	w.RejectedTime = &now
	return nil
}

// Complete transitions approved -> completed
func (w *WithdrawalRequest) Complete() error {
	if w.Status != WithdrawalStatusApproved {
		return fmt.Errorf("cannot complete withdrawal in state %q", w.Status)
	}
	w.Status = WithdrawalStatusCompleted
	return nil
}
