package application

import (
	"context"

	"cellbet/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters, valid between Begin and Commit/Rollback
	UserRepository() interfaces.UserRepository
	CoinRepository() interfaces.CoinRepository
	BalanceRepository() interfaces.BalanceRepository
	GameRepository() interfaces.GameRepository
	GameSessionRepository() interfaces.GameSessionRepository
	TicketRepository() interfaces.TicketRepository
	WinningCellRepository() interfaces.WinningCellRepository
	TransactionHistoryRepository() interfaces.TransactionHistoryRepository
	WithdrawalRequestRepository() interfaces.WithdrawalRequestRepository

	// EventBus returns the publisher that buffers events until commit
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// TransactionalEventPublisher buffers events during a transaction and
// releases them only after commit
type TransactionalEventPublisher interface {
	interfaces.EventPublisher

	// Flush publishes all buffered events, called after commit
	Flush(ctx context.Context) error

	// Discard drops all buffered events, called on rollback
	Discard()
}

// Notifier delivers user-facing messages after settlement commits
type Notifier interface {
	// NotifyOutcome sends one settlement outcome message to its user
	NotifyOutcome(ctx context.Context, notice interfaces.OutcomeNotice) error

	// NotifyOperator alerts the operator channel about a failure or a
	// flagged withdrawal
	NotifyOperator(ctx context.Context, message string) error
}
