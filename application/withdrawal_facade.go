package application

import (
	"context"
	"fmt"

	"cellbet/domain/entities"
	"cellbet/domain/interfaces"
	"cellbet/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// WithdrawalFacade wraps the withdrawal workflow in units of work and alerts
// the operator channel about requests flagged for manual review
type WithdrawalFacade struct {
	uowFactory UnitOfWorkFactory
	notifier   Notifier
}

// NewWithdrawalFacade creates a new withdrawal facade
func NewWithdrawalFacade(uowFactory UnitOfWorkFactory, notifier Notifier) *WithdrawalFacade {
	return &WithdrawalFacade{
		uowFactory: uowFactory,
		notifier:   notifier,
	}
}

// Request opens a pending withdrawal and alerts the operator if it is flagged
func (f *WithdrawalFacade) Request(ctx context.Context, userID int64, coinSymbol string, amount decimal.Decimal, walletAddress string) (*entities.WithdrawalRequest, error) {
	request, err := f.inTransaction(ctx, func(svc interfaces.WithdrawalService) (*entities.WithdrawalRequest, error) {
		return svc.Request(ctx, userID, coinSymbol, amount, walletAddress)
	})
	if err != nil {
		return nil, err
	}

	// Alert after commit so a Telegram outage cannot block the request
	if request.IsSuspicious {
		message := fmt.Sprintf("Withdrawal #%d flagged for review: user %d requested %s %s to %s",
			request.ID, request.UserID, request.Amount.String(), coinSymbol, request.WalletAddress)
		if err := f.notifier.NotifyOperator(ctx, message); err != nil {
			log.WithError(err).WithField("requestId", request.ID).Error("Failed to alert operator about flagged withdrawal")
		}
	}

	return request, nil
}

// Approve escrows the funds of a pending request
func (f *WithdrawalFacade) Approve(ctx context.Context, requestID, adminID int64) (*entities.WithdrawalRequest, error) {
	return f.inTransaction(ctx, func(svc interfaces.WithdrawalService) (*entities.WithdrawalRequest, error) {
		return svc.Approve(ctx, requestID, adminID)
	})
}

// Reject declines a pending request
func (f *WithdrawalFacade) Reject(ctx context.Context, requestID int64, reason string) (*entities.WithdrawalRequest, error) {
	return f.inTransaction(ctx, func(svc interfaces.WithdrawalService) (*entities.WithdrawalRequest, error) {
		return svc.Reject(ctx, requestID, reason)
	})
}

// Finalize records the on-chain send of an approved request
func (f *WithdrawalFacade) Finalize(ctx context.Context, requestID int64) (*entities.WithdrawalRequest, error) {
	return f.inTransaction(ctx, func(svc interfaces.WithdrawalService) (*entities.WithdrawalRequest, error) {
		return svc.Finalize(ctx, requestID)
	})
}

func (f *WithdrawalFacade) inTransaction(ctx context.Context, fn func(svc interfaces.WithdrawalService) (*entities.WithdrawalRequest, error)) (*entities.WithdrawalRequest, error) {
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
	withdrawals := services.NewWithdrawalService(
		uow.UserRepository(),
		uow.CoinRepository(),
		uow.WithdrawalRequestRepository(),
		uow.TransactionHistoryRepository(),
		ledger,
		uow.EventBus(),
	)

	request, err := fn(withdrawals)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal operation: %w", err)
	}

	return request, nil
}
