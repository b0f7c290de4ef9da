package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionHistory is an append-only ledger entry. Every balance mutation is
// paired with exactly one row; rows are never updated or deleted. The unique
// trace_id deduplicates inbound deposits from the external payment feed.
type TransactionHistory struct {
	ID            int64              `db:"id"`
	BalanceID     int64              `db:"balance_id"`
	Amount        decimal.Decimal    `db:"amount"`
	Type          TransactionType    `db:"type"`
	Subtype       TransactionSubtype `db:"subtype"`
	SessionID     *int64             `db:"session_id"`
	TicketID      *int64             `db:"ticket_id"`
	Memo          *string            `db:"memo"`
	TransactionID string             `db:"transaction_id"`
	TraceID       *string            `db:"trace_id"`
	CreatedAt     time.Time          `db:"created_at"`
}

// Validate performs basic consistency checks before the row is recorded
func (h *TransactionHistory) Validate() error {
	if h.Amount.IsZero() {
		return errors.New("transaction amount cannot be zero")
	}
	if h.BalanceID == 0 {
		return errors.New("transaction must reference a balance")
	}
	return nil
}

// IsDeposit returns true for externally funded arrivals
func (h *TransactionHistory) IsDeposit() bool {
	return h.Type == TransactionTypeArrival && h.Subtype == TransactionSubtypeDeposit
}
