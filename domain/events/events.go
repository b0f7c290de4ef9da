package events

import (
	"time"

	"github.com/shopspring/decimal"

	"cellbet/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange          EventType = "balance_change"
	EventTypeSessionStarted         EventType = "session_started"
	EventTypeSessionUpdated         EventType = "session_updated"
	EventTypeSessionSettled         EventType = "session_settled"
	EventTypeDepositCredited        EventType = "deposit_credited"
	EventTypeWithdrawalStateChanged EventType = "withdrawal_state_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                       `json:"user_id"`
	CoinID          int64                       `json:"coin_id"`
	OldAvailable    decimal.Decimal             `json:"old_available"`
	NewAvailable    decimal.Decimal             `json:"new_available"`
	TransactionType entities.TransactionType    `json:"transaction_type"`
	Subtype         entities.TransactionSubtype `json:"subtype"`
	ChangeAmount    decimal.Decimal             `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// SessionStartedEvent represents a freshly opened betting round
type SessionStartedEvent struct {
	GameID    int64     `json:"game_id"`
	SessionID int64     `json:"session_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

func (e SessionStartedEvent) Type() EventType {
	return EventTypeSessionStarted
}

// SessionUpdatedEvent carries the live countdown state for one round
type SessionUpdatedEvent struct {
	GameID        int64     `json:"game_id"`
	SessionID     int64     `json:"session_id"`
	EndTime       time.Time `json:"end_time"`
	RemainingTime int64     `json:"remaining_time"`
	PlayerCount   int       `json:"player_count"`
}

func (e SessionUpdatedEvent) Type() EventType {
	return EventTypeSessionUpdated
}

// SessionSettledEvent represents the final outcome of a round
type SessionSettledEvent struct {
	GameID       int64           `json:"game_id"`
	SessionID    int64           `json:"session_id"`
	Voided       bool            `json:"voided"`
	WinningCells []int           `json:"winning_cells"`
	TotalBet     decimal.Decimal `json:"total_bet"`
	Commission   decimal.Decimal `json:"commission"`
	WinnerCount  int             `json:"winner_count"`
}

func (e SessionSettledEvent) Type() EventType {
	return EventTypeSessionSettled
}

// DepositCreditedEvent represents an on-chain deposit applied to a balance
type DepositCreditedEvent struct {
	UserID  int64           `json:"user_id"`
	CoinID  int64           `json:"coin_id"`
	Amount  decimal.Decimal `json:"amount"`
	TraceID string          `json:"trace_id"`
}

func (e DepositCreditedEvent) Type() EventType {
	return EventTypeDepositCredited
}

// WithdrawalStateChangedEvent represents a withdrawal request transition
type WithdrawalStateChangedEvent struct {
	RequestID int64                     `json:"request_id"`
	UserID    int64                     `json:"user_id"`
	CoinID    int64                     `json:"coin_id"`
	Amount    decimal.Decimal           `json:"amount"`
	OldStatus entities.WithdrawalStatus `json:"old_status"`
	NewStatus entities.WithdrawalStatus `json:"new_status"`
}

func (e WithdrawalStateChangedEvent) Type() EventType {
	return EventTypeWithdrawalStateChanged
}
