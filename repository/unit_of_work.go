package repository

import (
	"context"
	"fmt"

	"cellbet/application"
	"cellbet/database"
	"cellbet/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher application.TransactionalEventPublisher
	userRepo               interfaces.UserRepository
	coinRepo               interfaces.CoinRepository
	balanceRepo            interfaces.BalanceRepository
	gameRepo               interfaces.GameRepository
	sessionRepo            interfaces.GameSessionRepository
	ticketRepo             interfaces.TicketRepository
	winningCellRepo        interfaces.WinningCellRepository
	historyRepo            interfaces.TransactionHistoryRepository
	withdrawalRepo         interfaces.WithdrawalRequestRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

// CreateWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher application.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.userRepo = newUserRepository(tx)
	u.coinRepo = newCoinRepository(tx)
	u.balanceRepo = newBalanceRepository(tx)
	u.gameRepo = newGameRepository(tx)
	u.sessionRepo = newGameSessionRepository(tx)
	u.ticketRepo = newTicketRepository(tx)
	u.winningCellRepo = newWinningCellRepository(tx)
	u.historyRepo = newTransactionHistoryRepository(tx)
	u.withdrawalRepo = newWithdrawalRequestRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// CoinRepository returns the coin repository for this unit of work
func (u *unitOfWork) CoinRepository() interfaces.CoinRepository {
	if u.coinRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.coinRepo
}

// BalanceRepository returns the balance repository for this unit of work
func (u *unitOfWork) BalanceRepository() interfaces.BalanceRepository {
	if u.balanceRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceRepo
}

// GameRepository returns the game repository for this unit of work
func (u *unitOfWork) GameRepository() interfaces.GameRepository {
	if u.gameRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameRepo
}

// GameSessionRepository returns the session repository for this unit of work
func (u *unitOfWork) GameSessionRepository() interfaces.GameSessionRepository {
	if u.sessionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.sessionRepo
}

// TicketRepository returns the ticket repository for this unit of work
func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	if u.ticketRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ticketRepo
}

// WinningCellRepository returns the winning cell repository for this unit of work
func (u *unitOfWork) WinningCellRepository() interfaces.WinningCellRepository {
	if u.winningCellRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.winningCellRepo
}

// TransactionHistoryRepository returns the ledger repository for this unit of work
func (u *unitOfWork) TransactionHistoryRepository() interfaces.TransactionHistoryRepository {
	if u.historyRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.historyRepo
}

// WithdrawalRequestRepository returns the withdrawal repository for this unit of work
func (u *unitOfWork) WithdrawalRequestRepository() interfaces.WithdrawalRequestRepository {
	if u.withdrawalRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.withdrawalRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
