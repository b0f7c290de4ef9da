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

// payoutScale is the number of decimal places payouts are truncated to.
// The truncation remainder stays unallocated in the pool.
const payoutScale = 8

type settlementService struct {
	gameRepo        interfaces.GameRepository
	sessionRepo     interfaces.GameSessionRepository
	ticketRepo      interfaces.TicketRepository
	winningCellRepo interfaces.WinningCellRepository
	coinRepo        interfaces.CoinRepository
	historyRepo     interfaces.TransactionHistoryRepository
	ledger          interfaces.LedgerService
	sessions        interfaces.SessionService
	eventPublisher  interfaces.EventPublisher
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	gameRepo interfaces.GameRepository,
	sessionRepo interfaces.GameSessionRepository,
	ticketRepo interfaces.TicketRepository,
	winningCellRepo interfaces.WinningCellRepository,
	coinRepo interfaces.CoinRepository,
	historyRepo interfaces.TransactionHistoryRepository,
	ledger interfaces.LedgerService,
	sessions interfaces.SessionService,
	eventPublisher interfaces.EventPublisher,
) interfaces.SettlementService {
	return &settlementService{
		gameRepo:        gameRepo,
		sessionRepo:     sessionRepo,
		ticketRepo:      ticketRepo,
		winningCellRepo: winningCellRepo,
		coinRepo:        coinRepo,
		historyRepo:     historyRepo,
		ledger:          ledger,
		sessions:        sessions,
		eventPublisher:  eventPublisher,
	}
}

func (s *settlementService) SettleSession(ctx context.Context, sessionID int64, now time.Time) (*interfaces.SettlementResult, error) {
	session, err := s.sessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	if session.IsSettled() {
		// A concurrent sweep got here first.
		return &interfaces.SettlementResult{SessionID: session.ID, GameID: session.GameID}, nil
	}
	if session.Status != entities.SessionStatusActive {
		return nil, fmt.Errorf("session %d is %s: %w", session.ID, session.Status, ErrInvalidStateTransition)
	}
	if !session.IsExpired(now) {
		return nil, fmt.Errorf("session %d has not ended: %w", session.ID, ErrSessionNotActive)
	}

	game, err := s.gameRepo.GetByID(ctx, session.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", session.GameID, ErrNotFound)
	}

	tickets, err := s.ticketRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	if len(tickets) == 0 {
		return s.settleEmpty(ctx, game, session, now)
	}

	distinctUsers := make(map[int64]bool)
	ticketsPerCell := make(map[int]int)
	totalBet := decimal.Zero
	for _, t := range tickets {
		distinctUsers[t.UserID] = true
		ticketsPerCell[t.CellNumber]++
		totalBet = totalBet.Add(t.BetAmount)
	}

	if len(distinctUsers) == 1 {
		log.WithField("sessionID", session.ID).Info("Single bettor, voiding round")
		return s.settleVoid(ctx, game, session, tickets, totalBet)
	}
	if uncovered := entities.UncoveredCells(game.CellCount, ticketsPerCell); len(uncovered) > 0 {
		log.WithFields(log.Fields{
			"sessionID": session.ID,
			"cells":     uncovered,
		}).Info("Uncovered cells, voiding round")
		return s.settleVoid(ctx, game, session, tickets, totalBet)
	}

	return s.settleWinners(ctx, game, session, tickets, ticketsPerCell, totalBet)
}

// settleEmpty finishes a round nobody joined and opens its replacement
func (s *settlementService) settleEmpty(ctx context.Context, game *entities.Game, session *entities.GameSession, now time.Time) (*interfaces.SettlementResult, error) {
	session.Finish(decimal.Zero, decimal.Zero)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to finish session: %w", err)
	}

	if game.IsActive() {
		if _, err := s.sessions.FindOrCreateActive(ctx, game.ID, now); err != nil {
			return nil, fmt.Errorf("failed to open replacement session: %w", err)
		}
	}

	s.publishSettled(session, nil, 0)
	return &interfaces.SettlementResult{
		SessionID: session.ID,
		GameID:    session.GameID,
		Empty:     true,
	}, nil
}

// settleVoid refunds every ticket's own stake. No commission is charged.
func (s *settlementService) settleVoid(ctx context.Context, game *entities.Game, session *entities.GameSession, tickets []*entities.Ticket, totalBet decimal.Decimal) (*interfaces.SettlementResult, error) {
	notices := newNoticeSet()
	for _, t := range tickets {
		if t.IsSettled() {
			continue
		}
		ticketID := t.ID
		if _, err := s.ledger.Unlock(ctx, t.UserID, t.CoinID, t.BetAmount, entities.TransactionSubtypeRefund, &session.ID, &ticketID); err != nil {
			return nil, fmt.Errorf("failed to refund ticket %d: %w", t.ID, err)
		}
		t.SettleRefund()
		if err := s.ticketRepo.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to update ticket %d: %w", t.ID, err)
		}
		notices.add(t.UserID, t.CoinID, interfaces.OutcomeRefund, t.BetAmount, t.CellNumber)
	}

	session.Finish(totalBet, decimal.Zero)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to finish session: %w", err)
	}

	s.publishSettled(session, nil, 0)
	result := &interfaces.SettlementResult{
		SessionID: session.ID,
		GameID:    session.GameID,
		Voided:    true,
		TotalBet:  totalBet,
	}
	return s.withNotices(ctx, result, notices, session.ID)
}

func (s *settlementService) settleWinners(ctx context.Context, game *entities.Game, session *entities.GameSession, tickets []*entities.Ticket, ticketsPerCell map[int]int, totalBet decimal.Decimal) (*interfaces.SettlementResult, error) {
	winningCells := entities.SelectWinningCells(ticketsPerCell)
	isWinning := make(map[int]bool, len(winningCells))
	for _, c := range winningCells {
		isWinning[c] = true
	}

	commission := session.Commission(totalBet)
	prizePool := totalBet.Sub(commission)

	winningStake := decimal.Zero
	for _, t := range tickets {
		if isWinning[t.CellNumber] {
			winningStake = winningStake.Add(t.BetAmount)
		}
	}
	if winningStake.IsZero() || !prizePool.IsPositive() {
		// Cannot happen with full cell coverage, but a zero divisor
		// must never reach the payout math.
		return nil, fmt.Errorf("session %d has no distributable pool", session.ID)
	}

	notices := newNoticeSet()
	winnerCount := 0
	for _, t := range tickets {
		if t.IsSettled() {
			continue
		}
		if !isWinning[t.CellNumber] {
			if _, err := s.ledger.Forfeit(ctx, t.UserID, t.CoinID, t.BetAmount); err != nil {
				return nil, fmt.Errorf("failed to collect stake of ticket %d: %w", t.ID, err)
			}
			t.SettleLose()
			if err := s.ticketRepo.Update(ctx, t); err != nil {
				return nil, fmt.Errorf("failed to update ticket %d: %w", t.ID, err)
			}
			notices.add(t.UserID, t.CoinID, interfaces.OutcomeLose, t.BetAmount, t.CellNumber)
			continue
		}

		winnerCount++
		// Multiply before dividing. Div rounds at its internal precision,
		// and a pre-divided per-unit rate scaled by a large stake amplifies
		// that rounding past the pool. In this order the truncation absorbs
		// the division's rounding, so payouts never sum above the pool.
		payout := prizePool.Mul(t.BetAmount).Div(winningStake).Truncate(payoutScale)

		paid, err := s.historyRepo.ExistsWinForTicket(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check win record for ticket %d: %w", t.ID, err)
		}
		if !paid {
			if _, err := s.ledger.Forfeit(ctx, t.UserID, t.CoinID, t.BetAmount); err != nil {
				return nil, fmt.Errorf("failed to collect stake of ticket %d: %w", t.ID, err)
			}
			ticketID := t.ID
			if _, err := s.ledger.Credit(ctx, t.UserID, t.CoinID, payout, entities.TransactionSubtypeWin, &session.ID, &ticketID); err != nil {
				return nil, fmt.Errorf("failed to pay ticket %d: %w", t.ID, err)
			}
		}
		t.SettleWin(payout)
		if err := s.ticketRepo.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to update ticket %d: %w", t.ID, err)
		}
		notices.add(t.UserID, t.CoinID, interfaces.OutcomeWin, payout, t.CellNumber)
	}

	cells := make([]*entities.WinningCell, 0, len(winningCells))
	for _, c := range winningCells {
		cells = append(cells, &entities.WinningCell{SessionID: session.ID, CellNumber: c})
	}
	if err := s.winningCellRepo.CreateBatch(ctx, cells); err != nil {
		return nil, fmt.Errorf("failed to record winning cells: %w", err)
	}

	session.Finish(totalBet, commission)
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to finish session: %w", err)
	}

	s.publishSettled(session, winningCells, winnerCount)
	log.WithFields(log.Fields{
		"sessionID":    session.ID,
		"winningCells": winningCells,
		"totalBet":     totalBet,
		"commission":   commission,
		"winners":      winnerCount,
	}).Info("Settled session")

	result := &interfaces.SettlementResult{
		SessionID:    session.ID,
		GameID:       session.GameID,
		WinningCells: winningCells,
		TotalBet:     totalBet,
		Commission:   commission,
		PrizePool:    prizePool,
	}
	return s.withNotices(ctx, result, notices, session.ID)
}

func (s *settlementService) publishSettled(session *entities.GameSession, winningCells []int, winnerCount int) {
	if err := s.eventPublisher.Publish(events.SessionSettledEvent{
		GameID:       session.GameID,
		SessionID:    session.ID,
		Voided:       len(winningCells) == 0,
		WinningCells: winningCells,
		TotalBet:     session.TotalBetAmount,
		Commission:   session.CommissionAmount,
		WinnerCount:  winnerCount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish session settled event")
	}
}

// withNotices resolves coin symbols and attaches the aggregated
// per-user outcome notices to the result
func (s *settlementService) withNotices(ctx context.Context, result *interfaces.SettlementResult, notices *noticeSet, sessionID int64) (*interfaces.SettlementResult, error) {
	symbols := make(map[int64]string)
	for _, n := range notices.ordered {
		if _, ok := symbols[n.coinID]; ok {
			continue
		}
		coin, err := s.coinRepo.GetByID(ctx, n.coinID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve coin %d: %w", n.coinID, err)
		}
		symbol := fmt.Sprintf("coin-%d", n.coinID)
		if coin != nil {
			symbol = coin.Symbol
		}
		symbols[n.coinID] = symbol
	}

	for _, n := range notices.ordered {
		result.Notices = append(result.Notices, interfaces.OutcomeNotice{
			UserID:     n.userID,
			Kind:       n.kind,
			Amount:     n.amount,
			CoinSymbol: symbols[n.coinID],
			SessionID:  sessionID,
			Cells:      n.cells,
		})
	}
	return result, nil
}

// noticeSet batches outcome notices per (user, coin, kind) so a user
// with many losing tickets gets one message with the total
type noticeSet struct {
	ordered []*notice
	index   map[noticeKey]*notice
}

type noticeKey struct {
	userID int64
	coinID int64
	kind   interfaces.OutcomeKind
}

type notice struct {
	userID int64
	coinID int64
	kind   interfaces.OutcomeKind
	amount decimal.Decimal
	cells  []int
}

func newNoticeSet() *noticeSet {
	return &noticeSet{index: make(map[noticeKey]*notice)}
}

func (ns *noticeSet) add(userID, coinID int64, kind interfaces.OutcomeKind, amount decimal.Decimal, cell int) {
	key := noticeKey{userID: userID, coinID: coinID, kind: kind}
	if n, ok := ns.index[key]; ok {
		n.amount = n.amount.Add(amount)
		n.cells = append(n.cells, cell)
		return
	}
	n := &notice{userID: userID, coinID: coinID, kind: kind, amount: amount, cells: []int{cell}}
	ns.index[key] = n
	ns.ordered = append(ns.ordered, n)
}
