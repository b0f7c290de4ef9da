package testhelpers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"cellbet/domain/entities"
	"cellbet/domain/events"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByMemo(ctx context.Context, memo string) (*entities.User, error) {
	args := m.Called(ctx, memo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// MockCoinRepository is a mock implementation of CoinRepository
type MockCoinRepository struct {
	mock.Mock
}

func (m *MockCoinRepository) GetByID(ctx context.Context, id int64) (*entities.Coin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Coin), args.Error(1)
}

func (m *MockCoinRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.Coin, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Coin), args.Error(1)
}

func (m *MockCoinRepository) GetBetLimit(ctx context.Context, coinID int64) (*entities.BetLimit, error) {
	args := m.Called(ctx, coinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BetLimit), args.Error(1)
}

// MockBalanceRepository is a mock implementation of BalanceRepository
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, userID, coinID int64) (*entities.Balance, error) {
	args := m.Called(ctx, userID, coinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

func (m *MockBalanceRepository) GetOrCreateForUpdate(ctx context.Context, userID, coinID int64) (*entities.Balance, error) {
	args := m.Called(ctx, userID, coinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Balance), args.Error(1)
}

func (m *MockBalanceRepository) Update(ctx context.Context, balance *entities.Balance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

func (m *MockBalanceRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Balance), args.Error(1)
}

// MockGameRepository is a mock implementation of GameRepository
type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) GetByID(ctx context.Context, id int64) (*entities.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Game), args.Error(1)
}

func (m *MockGameRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Game), args.Error(1)
}

func (m *MockGameRepository) ListActive(ctx context.Context) ([]*entities.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Game), args.Error(1)
}

func (m *MockGameRepository) IsCoinSupported(ctx context.Context, gameID, coinID int64) (bool, error) {
	args := m.Called(ctx, gameID, coinID)
	return args.Bool(0), args.Error(1)
}

// MockGameSessionRepository is a mock implementation of GameSessionRepository
type MockGameSessionRepository struct {
	mock.Mock
}

func (m *MockGameSessionRepository) GetByID(ctx context.Context, id int64) (*entities.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) Create(ctx context.Context, session *entities.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockGameSessionRepository) Update(ctx context.Context, session *entities.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockGameSessionRepository) GetActiveByGame(ctx context.Context, gameID int64) (*entities.GameSession, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) ListExpired(ctx context.Context, now, staleBefore time.Time) ([]*entities.GameSession, error) {
	args := m.Called(ctx, now, staleBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) SetProcessing(ctx context.Context, sessionID int64, startedAt time.Time) error {
	args := m.Called(ctx, sessionID, startedAt)
	return args.Error(0)
}

func (m *MockGameSessionRepository) ClearProcessing(ctx context.Context, sessionID int64) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockGameSessionRepository) LastFinished(ctx context.Context, gameID int64) (*entities.GameSession, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) IncrementTotalBet(ctx context.Context, sessionID int64, amount decimal.Decimal) error {
	args := m.Called(ctx, sessionID, amount)
	return args.Error(0)
}

func (m *MockGameSessionRepository) ListActiveInfos(ctx context.Context, now time.Time) ([]*entities.SessionInfo, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SessionInfo), args.Error(1)
}

// MockTicketRepository is a mock implementation of TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *MockTicketRepository) ListBySession(ctx context.Context, sessionID int64) ([]*entities.Ticket, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Ticket), args.Error(1)
}

func (m *MockTicketRepository) ListUserCells(ctx context.Context, userID, sessionID int64) ([]int, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *entities.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockTicketRepository) FinishSessionTickets(ctx context.Context, sessionID int64, status entities.SessionStatus) error {
	args := m.Called(ctx, sessionID, status)
	return args.Error(0)
}

// MockWinningCellRepository is a mock implementation of WinningCellRepository
type MockWinningCellRepository struct {
	mock.Mock
}

func (m *MockWinningCellRepository) CreateBatch(ctx context.Context, cells []*entities.WinningCell) error {
	args := m.Called(ctx, cells)
	return args.Error(0)
}

func (m *MockWinningCellRepository) ListBySession(ctx context.Context, sessionID int64) ([]*entities.WinningCell, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WinningCell), args.Error(1)
}

// MockTransactionHistoryRepository is a mock implementation of TransactionHistoryRepository
type MockTransactionHistoryRepository struct {
	mock.Mock
}

func (m *MockTransactionHistoryRepository) Record(ctx context.Context, entry *entities.TransactionHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTransactionHistoryRepository) ExistsByTraceID(ctx context.Context, traceID string) (bool, error) {
	args := m.Called(ctx, traceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionHistoryRepository) ExistsWinForTicket(ctx context.Context, ticketID int64) (bool, error) {
	args := m.Called(ctx, ticketID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionHistoryRepository) ListByBalance(ctx context.Context, balanceID int64, limit int) ([]*entities.TransactionHistory, error) {
	args := m.Called(ctx, balanceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TransactionHistory), args.Error(1)
}

func (m *MockTransactionHistoryRepository) SumBySubtype(ctx context.Context, userID, coinID int64, subtype entities.TransactionSubtype) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, coinID, subtype)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockWithdrawalRequestRepository is a mock implementation of WithdrawalRequestRepository
type MockWithdrawalRequestRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRequestRepository) Create(ctx context.Context, request *entities.WithdrawalRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockWithdrawalRequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRequestRepository) Update(ctx context.Context, request *entities.WithdrawalRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockWithdrawalRequestRepository) ListByStatus(ctx context.Context, status entities.WithdrawalStatus, limit int) ([]*entities.WithdrawalRequest, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WithdrawalRequest), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
