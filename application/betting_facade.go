package application

import (
	"context"
	"fmt"

	"cellbet/domain/interfaces"
	"cellbet/domain/services"

	log "github.com/sirupsen/logrus"
)

// BettingFacade wraps bet admission in a unit of work so the balance debit,
// the tickets and the session total land atomically
type BettingFacade struct {
	uowFactory UnitOfWorkFactory
}

// NewBettingFacade creates a new betting facade
func NewBettingFacade(uowFactory UnitOfWorkFactory) *BettingFacade {
	return &BettingFacade{
		uowFactory: uowFactory,
	}
}

// PlaceBets admits one batch of cell bets in a single transaction
func (f *BettingFacade) PlaceBets(ctx context.Context, placement interfaces.BetPlacement) (*interfaces.BetReceipt, error) {
	uow := f.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ledger := services.NewLedgerService(
		uow.UserRepository(),
		uow.CoinRepository(),
		uow.BalanceRepository(),
		uow.TransactionHistoryRepository(),
		uow.EventBus(),
	)
	sessions := services.NewSessionService(
		uow.GameRepository(),
		uow.GameSessionRepository(),
		uow.EventBus(),
	)
	betting := services.NewBettingService(
		uow.GameRepository(),
		uow.GameSessionRepository(),
		uow.TicketRepository(),
		uow.CoinRepository(),
		ledger,
		sessions,
	)

	receipt, err := betting.PlaceBets(ctx, placement)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bet placement: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":    placement.UserID,
		"sessionId": receipt.SessionID,
		"cells":     len(receipt.Tickets),
		"total":     receipt.TotalDebit.String(),
	}).Info("Bets placed")

	return receipt, nil
}
