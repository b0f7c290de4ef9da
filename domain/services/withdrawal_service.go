package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"cellbet/domain/entities"
	"cellbet/domain/events"
	"cellbet/domain/interfaces"
)

// suspiciousFloor is the minimum withdrawal amount that can ever be
// flagged for manual review, regardless of the user's win history.
var suspiciousFloor = decimal.NewFromInt(1000)

type withdrawalService struct {
	userRepo       interfaces.UserRepository
	coinRepo       interfaces.CoinRepository
	withdrawalRepo interfaces.WithdrawalRequestRepository
	historyRepo    interfaces.TransactionHistoryRepository
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(
	userRepo interfaces.UserRepository,
	coinRepo interfaces.CoinRepository,
	withdrawalRepo interfaces.WithdrawalRequestRepository,
	historyRepo interfaces.TransactionHistoryRepository,
	ledger interfaces.LedgerService,
	eventPublisher interfaces.EventPublisher,
) interfaces.WithdrawalService {
	return &withdrawalService{
		userRepo:       userRepo,
		coinRepo:       coinRepo,
		withdrawalRepo: withdrawalRepo,
		historyRepo:    historyRepo,
		ledger:         ledger,
		eventPublisher: eventPublisher,
	}
}

func (s *withdrawalService) Request(ctx context.Context, userID int64, coinSymbol string, amount decimal.Decimal, walletAddress string) (*entities.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}
	if walletAddress == "" {
		return nil, &ValidationError{Field: "wallet_address", Message: "required"}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	coin, err := s.coinRepo.GetBySymbol(ctx, coinSymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin: %w", err)
	}
	if coin == nil {
		return nil, fmt.Errorf("coin %s: %w", coinSymbol, ErrUnsupportedCoin)
	}

	suspicious, err := s.isSuspicious(ctx, userID, coin.ID, amount)
	if err != nil {
		return nil, err
	}

	request := &entities.WithdrawalRequest{
		UserID:        userID,
		CoinID:        coin.ID,
		Amount:        amount,
		WalletAddress: walletAddress,
		Status:        entities.WithdrawalStatusPending,
		FrozenAmount:  amount,
		IsSuspicious:  suspicious,
		RequestTime:   time.Now(),
	}
	if err := s.withdrawalRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	if suspicious {
		log.WithFields(log.Fields{
			"userID":    userID,
			"requestID": request.ID,
			"amount":    amount,
		}).Warn("Withdrawal flagged as suspicious")
	}
	s.publishStateChange(request, "")
	return request, nil
}

func (s *withdrawalService) Approve(ctx context.Context, requestID, adminID int64) (*entities.WithdrawalRequest, error) {
	request, err := s.lockedRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	oldStatus := request.Status
	if err := request.Approve(adminID, time.Now()); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidStateTransition)
	}

	// Approval is where funds move: available -> locked.
	if _, err := s.ledger.DebitAndLock(ctx, request.UserID, request.CoinID, request.Amount, entities.TransactionSubtypePending, nil); err != nil {
		return nil, err
	}

	if err := s.withdrawalRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	s.publishStateChange(request, oldStatus)
	return request, nil
}

func (s *withdrawalService) Reject(ctx context.Context, requestID int64, reason string) (*entities.WithdrawalRequest, error) {
	request, err := s.lockedRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	oldStatus := request.Status
	if err := request.Reject(reason, time.Now()); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidStateTransition)
	}

	// No balance movement. Funds are only locked at approval.
	if err := s.withdrawalRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	s.publishStateChange(request, oldStatus)
	return request, nil
}

func (s *withdrawalService) Finalize(ctx context.Context, requestID int64) (*entities.WithdrawalRequest, error) {
	request, err := s.lockedRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	oldStatus := request.Status
	if err := request.Complete(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidStateTransition)
	}

	if _, err := s.ledger.UnlockAndDebit(ctx, request.UserID, request.CoinID, request.Amount, entities.TransactionSubtypeCompleted); err != nil {
		return nil, err
	}

	if err := s.withdrawalRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	s.publishStateChange(request, oldStatus)
	return request, nil
}

// isSuspicious flags withdrawals larger than both ten times the user's
// lifetime winnings in the coin and the absolute floor
func (s *withdrawalService) isSuspicious(ctx context.Context, userID, coinID int64, amount decimal.Decimal) (bool, error) {
	winnings, err := s.historyRepo.SumBySubtype(ctx, userID, coinID, entities.TransactionSubtypeWin)
	if err != nil {
		return false, fmt.Errorf("failed to sum winnings: %w", err)
	}

	threshold := winnings.Mul(decimal.NewFromInt(10))
	if threshold.LessThan(suspiciousFloor) {
		threshold = suspiciousFloor
	}
	return amount.GreaterThan(threshold), nil
}

func (s *withdrawalService) lockedRequest(ctx context.Context, requestID int64) (*entities.WithdrawalRequest, error) {
	request, err := s.withdrawalRepo.GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock withdrawal request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("withdrawal request %d: %w", requestID, ErrNotFound)
	}
	return request, nil
}

func (s *withdrawalService) publishStateChange(request *entities.WithdrawalRequest, oldStatus entities.WithdrawalStatus) {
	if err := s.eventPublisher.Publish(events.WithdrawalStateChangedEvent{
		RequestID: request.ID,
		UserID:    request.UserID,
		CoinID:    request.CoinID,
		Amount:    request.Amount,
		OldStatus: oldStatus,
		NewStatus: request.Status,
	}); err != nil {
		log.WithError(err).Error("Failed to publish withdrawal state change event")
	}
}
