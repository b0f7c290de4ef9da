package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cellbet/domain/entities"
	"cellbet/domain/interfaces"
)

type bettingService struct {
	gameRepo    interfaces.GameRepository
	sessionRepo interfaces.GameSessionRepository
	ticketRepo  interfaces.TicketRepository
	coinRepo    interfaces.CoinRepository
	ledger      interfaces.LedgerService
	sessions    interfaces.SessionService
}

// NewBettingService creates a new betting service
func NewBettingService(
	gameRepo interfaces.GameRepository,
	sessionRepo interfaces.GameSessionRepository,
	ticketRepo interfaces.TicketRepository,
	coinRepo interfaces.CoinRepository,
	ledger interfaces.LedgerService,
	sessions interfaces.SessionService,
) interfaces.BettingService {
	return &bettingService{
		gameRepo:    gameRepo,
		sessionRepo: sessionRepo,
		ticketRepo:  ticketRepo,
		coinRepo:    coinRepo,
		ledger:      ledger,
		sessions:    sessions,
	}
}

func (s *bettingService) PlaceBets(ctx context.Context, placement interfaces.BetPlacement) (*interfaces.BetReceipt, error) {
	if len(placement.Cells) == 0 {
		return nil, &ValidationError{Field: "cells", Message: "at least one cell is required"}
	}
	if !placement.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	now := time.Now()

	game, err := s.gameRepo.GetByID(ctx, placement.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", placement.GameID, ErrNotFound)
	}
	if !game.IsActive() {
		return nil, fmt.Errorf("game %d: %w", game.ID, ErrGameInactive)
	}

	coin, err := s.coinRepo.GetBySymbol(ctx, placement.CoinSymbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin: %w", err)
	}
	if coin == nil {
		return nil, fmt.Errorf("coin %s: %w", placement.CoinSymbol, ErrUnsupportedCoin)
	}
	supported, err := s.gameRepo.IsCoinSupported(ctx, game.ID, coin.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check coin support: %w", err)
	}
	if !supported {
		return nil, fmt.Errorf("game %d does not accept %s: %w", game.ID, coin.Symbol, ErrUnsupportedCoin)
	}

	limit, err := s.coinRepo.GetBetLimit(ctx, coin.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet limit: %w", err)
	}
	if limit == nil || !limit.Allows(placement.Amount) {
		return nil, fmt.Errorf("amount %s for %s: %w", placement.Amount, coin.Symbol, ErrInvalidBetAmount)
	}

	session, err := s.resolveSession(ctx, game, placement.SessionID, now)
	if err != nil {
		return nil, err
	}

	if err := s.validateCells(ctx, game, session, placement.UserID, placement.Cells); err != nil {
		return nil, err
	}

	total := placement.Amount.Mul(decimal.NewFromInt(int64(len(placement.Cells))))
	balance, err := s.ledger.DebitAndLock(ctx, placement.UserID, coin.ID, total, entities.TransactionSubtypeBet, &session.ID)
	if err != nil {
		return nil, err
	}

	tickets := make([]*entities.Ticket, 0, len(placement.Cells))
	for _, cell := range placement.Cells {
		tickets = append(tickets, &entities.Ticket{
			UserID:     placement.UserID,
			CoinID:     coin.ID,
			SessionID:  session.ID,
			CellNumber: cell,
			BetAmount:  placement.Amount,
			Status:     entities.SessionStatusActive,
		})
	}
	if err := s.ticketRepo.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	if err := s.sessionRepo.IncrementTotalBet(ctx, session.ID, total); err != nil {
		return nil, fmt.Errorf("failed to update session total: %w", err)
	}

	return &interfaces.BetReceipt{
		SessionID:  session.ID,
		Tickets:    tickets,
		TotalDebit: total,
		NewBalance: balance.Available,
	}, nil
}

// resolveSession returns the session bets are admitted into. An explicit
// session must be the game's live one; otherwise the game's current
// session is used, opened on demand.
func (s *bettingService) resolveSession(ctx context.Context, game *entities.Game, sessionID int64, now time.Time) (*entities.GameSession, error) {
	if sessionID == 0 {
		session, err := s.sessions.FindOrCreateActive(ctx, game.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session: %w", err)
		}
		return session, nil
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	if session.GameID != game.ID {
		return nil, &ValidationError{Field: "session_id", Message: "session belongs to another game"}
	}
	if !session.IsActive(now) {
		return nil, fmt.Errorf("session %d: %w", session.ID, ErrSessionNotActive)
	}
	return session, nil
}

func (s *bettingService) validateCells(ctx context.Context, game *entities.Game, session *entities.GameSession, userID int64, cells []int) error {
	seen := make(map[int]bool, len(cells))
	for _, cell := range cells {
		if !game.ValidCell(cell) {
			return &ValidationError{Field: "cells", Message: fmt.Sprintf("cell %d is out of range 1..%d", cell, game.CellCount)}
		}
		if seen[cell] {
			return fmt.Errorf("cell %d repeated in request: %w", cell, ErrDuplicateCellBet)
		}
		seen[cell] = true
	}

	existing, err := s.ticketRepo.ListUserCells(ctx, userID, session.ID)
	if err != nil {
		return fmt.Errorf("failed to list existing cells: %w", err)
	}
	for _, cell := range existing {
		if seen[cell] {
			return fmt.Errorf("cell %d: %w", cell, ErrDuplicateCellBet)
		}
	}
	return nil
}
