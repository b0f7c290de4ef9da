package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cellbet/domain/entities"
)

// OutcomeKind classifies a per-user settlement notice
type OutcomeKind string

const (
	OutcomeWin    OutcomeKind = "win"
	OutcomeLose   OutcomeKind = "lose"
	OutcomeRefund OutcomeKind = "refund"
)

// OutcomeNotice is one user-facing message produced by settlement.
// Loser notices are aggregated per user, win and refund notices are
// per ticket batch.
type OutcomeNotice struct {
	UserID     int64
	Kind       OutcomeKind
	Amount     decimal.Decimal
	CoinSymbol string
	SessionID  int64
	Cells      []int
}

// SettlementResult summarizes one settled session
type SettlementResult struct {
	SessionID    int64
	GameID       int64
	Voided       bool
	Empty        bool
	WinningCells []int
	TotalBet     decimal.Decimal
	Commission   decimal.Decimal
	PrizePool    decimal.Decimal
	Notices      []OutcomeNotice
}

// BetPlacement is the admission request for one batch of cells
type BetPlacement struct {
	UserID     int64
	GameID     int64
	SessionID  int64
	CoinSymbol string
	Amount     decimal.Decimal
	Cells      []int
}

// BetReceipt reports a successful admission
type BetReceipt struct {
	SessionID  int64
	Tickets    []*entities.Ticket
	TotalDebit decimal.Decimal
	NewBalance decimal.Decimal
}

// LedgerService owns all balance mutations and their history entries
type LedgerService interface {
	// Credit adds amount to a user's available funds. The optional
	// session and ticket refs tie the ledger row to a betting round.
	Credit(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID, ticketID *int64) (*entities.Balance, error)

	// DebitAndLock moves amount from available into locked funds,
	// recording the outflow. Bet stakes and approved withdrawals both
	// escrow funds this way.
	DebitAndLock(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID *int64) (*entities.Balance, error)

	// UnlockAndDebit removes amount from locked funds entirely,
	// finalizing an escrowed withdrawal
	UnlockAndDebit(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype) (*entities.Balance, error)

	// Unlock returns amount from locked funds to available, recording
	// the refund that cancels the original escrow row
	Unlock(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID, ticketID *int64) (*entities.Balance, error)

	// Forfeit consumes a locked stake into a settled round's pool.
	// The admission row already recorded the outflow, so no ledger row
	// is appended here.
	Forfeit(ctx context.Context, userID, coinID int64, amount decimal.Decimal) (*entities.Balance, error)

	// IngestDeposit credits a deposit exactly once per trace ID.
	// Replayed traces fail without touching the balance.
	IngestDeposit(ctx context.Context, memo, coinSymbol string, amount decimal.Decimal, traceID string) (*entities.Balance, error)
}

// BettingService admits bets into active sessions
type BettingService interface {
	// PlaceBets validates and books one batch of cell bets, debiting
	// amount per cell from the user's balance
	PlaceBets(ctx context.Context, placement BetPlacement) (*BetReceipt, error)
}

// SettlementService resolves expired sessions
type SettlementService interface {
	// SettleSession finishes one expired session, determining winners,
	// paying out or refunding, and deducting commission. Calling it on
	// an already finished session is a no-op.
	SettleSession(ctx context.Context, sessionID int64, now time.Time) (*SettlementResult, error)
}

// SessionService manages round lifecycle outside of settlement
type SessionService interface {
	// FindOrCreateActive returns the game's current session, opening a
	// new one if none is running
	FindOrCreateActive(ctx context.Context, gameID int64, now time.Time) (*entities.GameSession, error)

	// EnsureSessions opens sessions for every active game whose last
	// round finished longer than the game's auto-start delay ago
	EnsureSessions(ctx context.Context, now time.Time) ([]*entities.GameSession, error)

	// ActiveSessionInfos returns the broadcast payload for all live rounds
	ActiveSessionInfos(ctx context.Context, now time.Time) ([]*entities.SessionInfo, error)
}

// WithdrawalService runs the operator-approved withdrawal workflow
type WithdrawalService interface {
	// Request opens a pending withdrawal. No funds move until approval.
	Request(ctx context.Context, userID int64, coinSymbol string, amount decimal.Decimal, walletAddress string) (*entities.WithdrawalRequest, error)

	// Approve accepts a pending request and escrows the funds
	Approve(ctx context.Context, requestID, adminID int64) (*entities.WithdrawalRequest, error)

	// Reject declines a pending request. Funds were never moved, only
	// the request record changes.
	Reject(ctx context.Context, requestID int64, reason string) (*entities.WithdrawalRequest, error)

	// Finalize records the on-chain send of an approved request and
	// debits the locked funds
	Finalize(ctx context.Context, requestID int64) (*entities.WithdrawalRequest, error)
}
