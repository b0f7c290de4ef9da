package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cellbet/domain/entities"
	"cellbet/domain/events"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their internal ID
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByMemo retrieves a user by their deposit memo phrase
	GetByMemo(ctx context.Context, memo string) (*entities.User, error)

	// GetByTelegramID retrieves a user by their Telegram chat ID
	GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error)
}

// CoinRepository defines the interface for coin and bet limit data access
type CoinRepository interface {
	// GetByID retrieves a coin by its internal ID
	GetByID(ctx context.Context, id int64) (*entities.Coin, error)

	// GetBySymbol retrieves a coin by its ticker symbol
	GetBySymbol(ctx context.Context, symbol string) (*entities.Coin, error)

	// GetBetLimit returns the allowed stake amounts for a coin
	GetBetLimit(ctx context.Context, coinID int64) (*entities.BetLimit, error)
}

// BalanceRepository defines the interface for per-user per-coin fund storage
type BalanceRepository interface {
	// GetForUpdate retrieves a balance row with a row-level lock held
	// for the duration of the enclosing transaction
	GetForUpdate(ctx context.Context, userID, coinID int64) (*entities.Balance, error)

	// GetOrCreateForUpdate retrieves a locked balance row, creating a
	// zero balance first if none exists
	GetOrCreateForUpdate(ctx context.Context, userID, coinID int64) (*entities.Balance, error)

	// Update persists the available and locked amounts of a balance
	Update(ctx context.Context, balance *entities.Balance) error

	// GetByUser returns all balances for a user
	GetByUser(ctx context.Context, userID int64) ([]*entities.Balance, error)
}

// GameRepository defines the interface for game configuration access
type GameRepository interface {
	// GetByID retrieves a game by its ID
	GetByID(ctx context.Context, id int64) (*entities.Game, error)

	// GetByIDForUpdate retrieves a game row with a row-level lock,
	// serializing session creation for that game
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Game, error)

	// ListActive returns all games accepting bets
	ListActive(ctx context.Context) ([]*entities.Game, error)

	// IsCoinSupported reports whether a game accepts stakes in the coin
	IsCoinSupported(ctx context.Context, gameID, coinID int64) (bool, error)
}

// GameSessionRepository defines the interface for round lifecycle storage
type GameSessionRepository interface {
	// GetByID retrieves a session by its ID
	GetByID(ctx context.Context, id int64) (*entities.GameSession, error)

	// GetByIDForUpdate retrieves a session row with a row-level lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.GameSession, error)

	// Create inserts a new session
	Create(ctx context.Context, session *entities.GameSession) error

	// Update persists session state changes
	Update(ctx context.Context, session *entities.GameSession) error

	// GetActiveByGame returns the game's current pending or active session, or nil
	GetActiveByGame(ctx context.Context, gameID int64) (*entities.GameSession, error)

	// ListExpired returns active sessions whose end time has passed and
	// which are either not flagged as processing or were flagged before
	// staleBefore
	ListExpired(ctx context.Context, now, staleBefore time.Time) ([]*entities.GameSession, error)

	// SetProcessing marks a session as claimed by a settlement worker
	SetProcessing(ctx context.Context, sessionID int64, startedAt time.Time) error

	// ClearProcessing releases the settlement claim on a session
	ClearProcessing(ctx context.Context, sessionID int64) error

	// LastFinished returns the most recently finished session for a game, or nil
	LastFinished(ctx context.Context, gameID int64) (*entities.GameSession, error)

	// IncrementTotalBet atomically adds amount to the session's running total
	IncrementTotalBet(ctx context.Context, sessionID int64, amount decimal.Decimal) error

	// ListActiveInfos returns broadcast summaries for all unexpired sessions
	ListActiveInfos(ctx context.Context, now time.Time) ([]*entities.SessionInfo, error)
}

// TicketRepository defines the interface for placed bet storage
type TicketRepository interface {
	// CreateBatch inserts all tickets of one admission atomically
	CreateBatch(ctx context.Context, tickets []*entities.Ticket) error

	// ListBySession returns every ticket placed in a session
	ListBySession(ctx context.Context, sessionID int64) ([]*entities.Ticket, error)

	// ListUserCells returns the cell numbers a user already holds in a session
	ListUserCells(ctx context.Context, userID, sessionID int64) ([]int, error)

	// Update persists a ticket's settlement result
	Update(ctx context.Context, ticket *entities.Ticket) error

	// FinishSessionTickets moves every ticket of a session to the given status
	FinishSessionTickets(ctx context.Context, sessionID int64, status entities.SessionStatus) error
}

// WinningCellRepository defines the interface for settlement outcome storage
type WinningCellRepository interface {
	// CreateBatch records the winning cells of a settled session
	CreateBatch(ctx context.Context, cells []*entities.WinningCell) error

	// ListBySession returns the winning cells recorded for a session
	ListBySession(ctx context.Context, sessionID int64) ([]*entities.WinningCell, error)
}

// TransactionHistoryRepository defines the interface for the append-only ledger
type TransactionHistoryRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *entities.TransactionHistory) error

	// ExistsByTraceID reports whether a deposit with this trace has been applied
	ExistsByTraceID(ctx context.Context, traceID string) (bool, error)

	// ExistsWinForTicket reports whether a win payout was already recorded
	// for the ticket, guarding resettlement against double payment
	ExistsWinForTicket(ctx context.Context, ticketID int64) (bool, error)

	// ListByBalance returns recent ledger entries for a balance
	ListByBalance(ctx context.Context, balanceID int64, limit int) ([]*entities.TransactionHistory, error)

	// SumBySubtype returns the lifetime signed sum of entries of one
	// subtype across all of a user's balances for a coin
	SumBySubtype(ctx context.Context, userID, coinID int64, subtype entities.TransactionSubtype) (decimal.Decimal, error)
}

// WithdrawalRequestRepository defines the interface for withdrawal workflow storage
type WithdrawalRequestRepository interface {
	// Create inserts a new withdrawal request
	Create(ctx context.Context, request *entities.WithdrawalRequest) error

	// GetByIDForUpdate retrieves a request row with a row-level lock
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.WithdrawalRequest, error)

	// Update persists request state changes
	Update(ctx context.Context, request *entities.WithdrawalRequest) error

	// ListByStatus returns requests in the given state, oldest first
	ListByStatus(ctx context.Context, status entities.WithdrawalStatus, limit int) ([]*entities.WithdrawalRequest, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
