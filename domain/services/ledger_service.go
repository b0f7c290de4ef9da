package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"cellbet/domain/entities"
	"cellbet/domain/events"
	"cellbet/domain/interfaces"
)

type ledgerService struct {
	userRepo       interfaces.UserRepository
	coinRepo       interfaces.CoinRepository
	balanceRepo    interfaces.BalanceRepository
	historyRepo    interfaces.TransactionHistoryRepository
	eventPublisher interfaces.EventPublisher
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	userRepo interfaces.UserRepository,
	coinRepo interfaces.CoinRepository,
	balanceRepo interfaces.BalanceRepository,
	historyRepo interfaces.TransactionHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.LedgerService {
	return &ledgerService{
		userRepo:       userRepo,
		coinRepo:       coinRepo,
		balanceRepo:    balanceRepo,
		historyRepo:    historyRepo,
		eventPublisher: eventPublisher,
	}
}

func (s *ledgerService) Credit(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID, ticketID *int64) (*entities.Balance, error) {
	balance, err := s.balanceRepo.GetOrCreateForUpdate(ctx, userID, coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	oldAvailable := balance.Available
	if err := balance.Credit(amount); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, balance, amount, subtype, sessionID, ticketID, nil, nil); err != nil {
		return nil, err
	}

	s.publishBalanceChange(userID, coinID, oldAvailable, balance.Available, subtype, amount)
	return balance, nil
}

func (s *ledgerService) DebitAndLock(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID *int64) (*entities.Balance, error) {
	balance, err := s.lockedBalance(ctx, userID, coinID)
	if err != nil {
		return nil, err
	}

	oldAvailable := balance.Available
	if err := balance.DebitAndLock(amount); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInsufficientFunds)
	}

	if err := s.apply(ctx, balance, amount.Neg(), subtype, sessionID, nil, nil, nil); err != nil {
		return nil, err
	}

	s.publishBalanceChange(userID, coinID, oldAvailable, balance.Available, subtype, amount.Neg())
	return balance, nil
}

func (s *ledgerService) UnlockAndDebit(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype) (*entities.Balance, error) {
	balance, err := s.lockedBalance(ctx, userID, coinID)
	if err != nil {
		return nil, err
	}

	if err := balance.UnlockAndDebit(amount); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInsufficientFunds)
	}

	if err := s.apply(ctx, balance, amount.Neg(), subtype, nil, nil, nil, nil); err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *ledgerService) Unlock(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID, ticketID *int64) (*entities.Balance, error) {
	balance, err := s.lockedBalance(ctx, userID, coinID)
	if err != nil {
		return nil, err
	}

	oldAvailable := balance.Available
	if err := balance.Unlock(amount); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInsufficientFunds)
	}

	if err := s.apply(ctx, balance, amount, subtype, sessionID, ticketID, nil, nil); err != nil {
		return nil, err
	}

	s.publishBalanceChange(userID, coinID, oldAvailable, balance.Available, subtype, amount)
	return balance, nil
}

func (s *ledgerService) Forfeit(ctx context.Context, userID, coinID int64, amount decimal.Decimal) (*entities.Balance, error) {
	balance, err := s.lockedBalance(ctx, userID, coinID)
	if err != nil {
		return nil, err
	}

	if err := balance.UnlockAndDebit(amount); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInsufficientFunds)
	}

	// The stake's outflow row was written at admission. Forfeiting only
	// realizes it, so no second row is appended.
	if err := s.balanceRepo.Update(ctx, balance); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	return balance, nil
}

func (s *ledgerService) IngestDeposit(ctx context.Context, memo, coinSymbol string, amount decimal.Decimal, traceID string) (*entities.Balance, error) {
	if traceID == "" {
		return nil, &ValidationError{Field: "trace_id", Message: "required"}
	}
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	exists, err := s.historyRepo.ExistsByTraceID(ctx, traceID)
	if err != nil {
		return nil, fmt.Errorf("failed to check deposit trace: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("trace %s: %w", traceID, ErrDuplicateTrace)
	}

	user, err := s.userRepo.GetByMemo(ctx, memo)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve deposit memo: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no user for deposit memo %q: %w", memo, ErrNotFound)
	}

	coin, err := s.coinRepo.GetBySymbol(ctx, coinSymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve coin %s: %w", coinSymbol, err)
	}
	if coin == nil {
		return nil, fmt.Errorf("coin %s: %w", coinSymbol, ErrUnsupportedCoin)
	}

	balance, err := s.balanceRepo.GetOrCreateForUpdate(ctx, user.ID, coin.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}

	oldAvailable := balance.Available
	if err := balance.Credit(amount); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, balance, amount, entities.TransactionSubtypeDeposit, nil, nil, &memo, &traceID); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.DepositCreditedEvent{
		UserID:  user.ID,
		CoinID:  coin.ID,
		Amount:  amount,
		TraceID: traceID,
	}); err != nil {
		log.WithError(err).Error("Failed to publish deposit credited event")
	}
	s.publishBalanceChange(user.ID, coin.ID, oldAvailable, balance.Available, entities.TransactionSubtypeDeposit, amount)
	return balance, nil
}

// apply persists the mutated balance and its paired ledger row
func (s *ledgerService) apply(ctx context.Context, balance *entities.Balance, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID, ticketID *int64, memo, traceID *string) error {
	if err := s.balanceRepo.Update(ctx, balance); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	entry := &entities.TransactionHistory{
		BalanceID:     balance.ID,
		Amount:        amount,
		Type:          typeFor(subtype),
		Subtype:       subtype,
		SessionID:     sessionID,
		TicketID:      ticketID,
		Memo:          memo,
		TransactionID: uuid.New().String(),
		TraceID:       traceID,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := s.historyRepo.Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record transaction history: %w", err)
	}
	return nil
}

func (s *ledgerService) lockedBalance(ctx context.Context, userID, coinID int64) (*entities.Balance, error) {
	balance, err := s.balanceRepo.GetForUpdate(ctx, userID, coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}
	if balance == nil {
		return nil, fmt.Errorf("user %d has no balance in coin %d: %w", userID, coinID, ErrInsufficientFunds)
	}
	return balance, nil
}

func (s *ledgerService) publishBalanceChange(userID, coinID int64, oldAvailable, newAvailable decimal.Decimal, subtype entities.TransactionSubtype, change decimal.Decimal) {
	if err := s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          userID,
		CoinID:          coinID,
		OldAvailable:    oldAvailable,
		NewAvailable:    newAvailable,
		TransactionType: typeFor(subtype),
		Subtype:         subtype,
		ChangeAmount:    change,
	}); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}
}

// typeFor maps a business subtype to its ledger direction type
func typeFor(subtype entities.TransactionSubtype) entities.TransactionType {
	switch subtype {
	case entities.TransactionSubtypeDeposit, entities.TransactionSubtypeWin, entities.TransactionSubtypeRefund:
		return entities.TransactionTypeArrival
	case entities.TransactionSubtypeBet, entities.TransactionSubtypePending,
		entities.TransactionSubtypeRejected, entities.TransactionSubtypeCompleted:
		return entities.TransactionTypeWithdrawal
	default:
		return entities.TransactionTypeTransfer
	}
}
