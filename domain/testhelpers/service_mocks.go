package testhelpers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"cellbet/domain/entities"
	"cellbet/domain/interfaces"
)

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Credit(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID, ticketID *int64) (*entities.Balance, error) {
	args := m.Called(ctx, userID, coinID, amount, subtype, sessionID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

func (m *MockLedgerService) DebitAndLock(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID *int64) (*entities.Balance, error) {
	args := m.Called(ctx, userID, coinID, amount, subtype, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

func (m *MockLedgerService) UnlockAndDebit(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype) (*entities.Balance, error) {
	args := m.Called(ctx, userID, coinID, amount, subtype)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

func (m *MockLedgerService) Unlock(ctx context.Context, userID, coinID int64, amount decimal.Decimal, subtype entities.TransactionSubtype, sessionID, ticketID *int64) (*entities.Balance, error) {
	args := m.Called(ctx, userID, coinID, amount, subtype, sessionID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

func (m *MockLedgerService) Forfeit(ctx context.Context, userID, coinID int64, amount decimal.Decimal) (*entities.Balance, error) {
	args := m.Called(ctx, userID, coinID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

func (m *MockLedgerService) IngestDeposit(ctx context.Context, memo, coinSymbol string, amount decimal.Decimal, traceID string) (*entities.Balance, error) {
	args := m.Called(ctx, memo, coinSymbol, amount, traceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

// MockSessionService is a mock implementation of SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) FindOrCreateActive(ctx context.Context, gameID int64, now time.Time) (*entities.GameSession, error) {
	args := m.Called(ctx, gameID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockSessionService) EnsureSessions(ctx context.Context, now time.Time) ([]*entities.GameSession, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GameSession), args.Error(1)
}

func (m *MockSessionService) ActiveSessionInfos(ctx context.Context, now time.Time) ([]*entities.SessionInfo, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SessionInfo), args.Error(1)
}

// MockSettlementService is a mock implementation of SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) SettleSession(ctx context.Context, sessionID int64, now time.Time) (*interfaces.SettlementResult, error) {
	args := m.Called(ctx, sessionID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.SettlementResult), args.Error(1)
}

// MockBettingService is a mock implementation of BettingService
type MockBettingService struct {
	mock.Mock
}

func (m *MockBettingService) PlaceBets(ctx context.Context, placement interfaces.BetPlacement) (*interfaces.BetReceipt, error) {
	args := m.Called(ctx, placement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.BetReceipt), args.Error(1)
}

// MockWithdrawalService is a mock implementation of WithdrawalService
type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) Request(ctx context.Context, userID int64, coinSymbol string, amount decimal.Decimal, walletAddress string) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, coinSymbol, amount, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalService) Approve(ctx context.Context, requestID, adminID int64) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalService) Reject(ctx context.Context, requestID int64, reason string) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalService) Finalize(ctx context.Context, requestID int64) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}
