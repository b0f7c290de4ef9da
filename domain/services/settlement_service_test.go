package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cellbet/domain/entities"
	"cellbet/domain/interfaces"
	"cellbet/domain/testhelpers"
)

// fakeLedger tracks fund movements per user so tests can assert
// payouts and conservation without wiring real balances
type fakeLedger struct {
	credited  map[int64]decimal.Decimal
	unlocked  map[int64]decimal.Decimal
	forfeited map[int64]decimal.Decimal
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		credited:  make(map[int64]decimal.Decimal),
		unlocked:  make(map[int64]decimal.Decimal),
		forfeited: make(map[int64]decimal.Decimal),
	}
}

func (f *fakeLedger) Credit(_ context.Context, userID, _ int64, amount decimal.Decimal, _ entities.TransactionSubtype, _, _ *int64) (*entities.Balance, error) {
	f.credited[userID] = f.credited[userID].Add(amount)
	return &entities.Balance{UserID: userID}, nil
}

func (f *fakeLedger) DebitAndLock(_ context.Context, userID, _ int64, amount decimal.Decimal, _ entities.TransactionSubtype, _ *int64) (*entities.Balance, error) {
	return &entities.Balance{UserID: userID}, nil
}

func (f *fakeLedger) UnlockAndDebit(_ context.Context, userID, _ int64, amount decimal.Decimal, _ entities.TransactionSubtype) (*entities.Balance, error) {
	return &entities.Balance{UserID: userID}, nil
}

func (f *fakeLedger) Unlock(_ context.Context, userID, _ int64, amount decimal.Decimal, _ entities.TransactionSubtype, _, _ *int64) (*entities.Balance, error) {
	f.unlocked[userID] = f.unlocked[userID].Add(amount)
	return &entities.Balance{UserID: userID}, nil
}

func (f *fakeLedger) Forfeit(_ context.Context, userID, _ int64, amount decimal.Decimal) (*entities.Balance, error) {
	f.forfeited[userID] = f.forfeited[userID].Add(amount)
	return &entities.Balance{UserID: userID}, nil
}

func (f *fakeLedger) IngestDeposit(_ context.Context, _, _ string, amount decimal.Decimal, _ string) (*entities.Balance, error) {
	return &entities.Balance{}, nil
}

func (f *fakeLedger) totalCredited() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range f.credited {
		sum = sum.Add(v)
	}
	return sum
}

type settlementFixture struct {
	gameRepo        *testhelpers.MockGameRepository
	sessionRepo     *testhelpers.MockGameSessionRepository
	ticketRepo      *testhelpers.MockTicketRepository
	winningCellRepo *testhelpers.MockWinningCellRepository
	coinRepo        *testhelpers.MockCoinRepository
	historyRepo     *testhelpers.MockTransactionHistoryRepository
	ledger          *fakeLedger
	sessions        *testhelpers.MockSessionService
	publisher       *testhelpers.MockEventPublisher
	service         interfaces.SettlementService
}

func newSettlementFixture() *settlementFixture {
	f := &settlementFixture{
		gameRepo:        new(testhelpers.MockGameRepository),
		sessionRepo:     new(testhelpers.MockGameSessionRepository),
		ticketRepo:      new(testhelpers.MockTicketRepository),
		winningCellRepo: new(testhelpers.MockWinningCellRepository),
		coinRepo:        new(testhelpers.MockCoinRepository),
		historyRepo:     new(testhelpers.MockTransactionHistoryRepository),
		ledger:          newFakeLedger(),
		sessions:        new(testhelpers.MockSessionService),
		publisher:       new(testhelpers.MockEventPublisher),
	}
	f.service = NewSettlementService(
		f.gameRepo, f.sessionRepo, f.ticketRepo, f.winningCellRepo,
		f.coinRepo, f.historyRepo, f.ledger, f.sessions, f.publisher,
	)
	return f
}

func expiredSession(id int64, commissionPercent string, now time.Time) *entities.GameSession {
	return &entities.GameSession{
		ID:                id,
		GameID:            1,
		StartTime:         now.Add(-10 * time.Minute),
		EndTime:           now.Add(-time.Minute),
		Status:            entities.SessionStatusActive,
		CommissionPercent: dec(commissionPercent),
	}
}

func threeCellGame() *entities.Game {
	return &entities.Game{
		ID:                1,
		Name:              "triple",
		CellCount:         3,
		CommissionPercent: dec("10"),
		GameTimeSeconds:   300,
		Status:            entities.GameStatusActive,
	}
}

func ticket(id, userID int64, cell int, amount string) *entities.Ticket {
	return &entities.Ticket{
		ID:         id,
		UserID:     userID,
		CoinID:     7,
		SessionID:  100,
		CellNumber: cell,
		BetAmount:  dec(amount),
		Status:     entities.SessionStatusActive,
	}
}

func TestSettlementService_ProportionalPayout(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "10", now)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)
	f.gameRepo.On("GetByID", ctx, int64(1)).Return(threeCellGame(), nil)

	// Cell counts {1:1, 2:1, 3:2} so cells 1 and 2 tie at the minimum.
	tickets := []*entities.Ticket{
		ticket(11, 1, 1, "10"),
		ticket(12, 2, 2, "10"),
		ticket(13, 3, 3, "10"),
		ticket(14, 2, 3, "10"),
	}
	f.ticketRepo.On("ListBySession", ctx, int64(100)).Return(tickets, nil)
	f.historyRepo.On("ExistsWinForTicket", ctx, mock.AnythingOfType("int64")).Return(false, nil)
	f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*entities.Ticket")).Return(nil)
	f.winningCellRepo.On("CreateBatch", ctx, mock.MatchedBy(func(cells []*entities.WinningCell) bool {
		return len(cells) == 2 && cells[0].CellNumber == 1 && cells[1].CellNumber == 2
	})).Return(nil)
	f.sessionRepo.On("Update", ctx, session).Return(nil)
	f.coinRepo.On("GetByID", ctx, int64(7)).Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)

	// total 40, commission 4, pool 36 split over winning stake 20.
	assert.Equal(t, []int{1, 2}, result.WinningCells)
	assert.True(t, result.TotalBet.Equal(dec("40")))
	assert.True(t, result.Commission.Equal(dec("4")))
	assert.True(t, result.PrizePool.Equal(dec("36")))

	assert.True(t, f.ledger.credited[1].Equal(dec("18")), "user 1 payout, got %s", f.ledger.credited[1])
	assert.True(t, f.ledger.credited[2].Equal(dec("18")), "user 2 payout, got %s", f.ledger.credited[2])
	assert.True(t, f.ledger.credited[3].IsZero())

	// Every stake was consumed, and payouts never exceed the pool.
	assert.True(t, f.ledger.forfeited[1].Add(f.ledger.forfeited[2]).Add(f.ledger.forfeited[3]).Equal(dec("40")))
	assert.True(t, f.ledger.totalCredited().LessThanOrEqual(result.PrizePool))

	assert.Equal(t, entities.SessionStatusFinished, session.Status)
	assert.True(t, session.CommissionAmount.Equal(dec("4")))

	// User 2 won on cell 2 and lost on cell 3, so they get one notice
	// of each kind; user 3 gets a single lose notice.
	kinds := make(map[int64][]interfaces.OutcomeKind)
	for _, n := range result.Notices {
		kinds[n.UserID] = append(kinds[n.UserID], n.Kind)
	}
	assert.ElementsMatch(t, []interfaces.OutcomeKind{interfaces.OutcomeWin}, kinds[1])
	assert.ElementsMatch(t, []interfaces.OutcomeKind{interfaces.OutcomeWin, interfaces.OutcomeLose}, kinds[2])
	assert.ElementsMatch(t, []interfaces.OutcomeKind{interfaces.OutcomeLose}, kinds[3])

	f.sessionRepo.AssertExpectations(t)
	f.winningCellRepo.AssertExpectations(t)
}

func TestSettlementService_PayoutTruncation(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "0", now)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)
	f.gameRepo.On("GetByID", ctx, int64(1)).Return(threeCellGame(), nil)

	// Counts {1:2, 2:3, 3:3}: cell 1 wins with combined stake 3 against
	// a pool of 64, which does not divide evenly.
	tickets := []*entities.Ticket{
		ticket(11, 1, 1, "1"),
		ticket(12, 2, 1, "2"),
		ticket(13, 3, 2, "11"),
		ticket(14, 4, 2, "10"),
		ticket(15, 5, 2, "10"),
		ticket(16, 3, 3, "10"),
		ticket(17, 4, 3, "10"),
		ticket(18, 5, 3, "10"),
	}

	f.ticketRepo.On("ListBySession", ctx, int64(100)).Return(tickets, nil)
	f.historyRepo.On("ExistsWinForTicket", ctx, mock.AnythingOfType("int64")).Return(false, nil)
	f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*entities.Ticket")).Return(nil)
	f.winningCellRepo.On("CreateBatch", ctx, mock.Anything).Return(nil)
	f.sessionRepo.On("Update", ctx, session).Return(nil)
	f.coinRepo.On("GetByID", ctx, int64(7)).Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)

	// 64/3 truncates at 8 decimal places, never rounds up, and the
	// truncation remainder stays in the pool.
	assert.True(t, f.ledger.credited[1].Equal(dec("21.33333333")), "got %s", f.ledger.credited[1])
	assert.True(t, f.ledger.credited[2].Equal(dec("42.66666666")), "got %s", f.ledger.credited[2])
	assert.True(t, f.ledger.totalCredited().LessThan(result.PrizePool))
}

func TestSettlementService_LargeStakePayoutStaysWithinPool(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "0", now)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)
	f.gameRepo.On("GetByID", ctx, int64(1)).Return(threeCellGame(), nil)

	// A winning stake of 3e9 against a pool of 5e9. Dividing the pool by
	// the stake first and scaling back up would round the payout above
	// the pool; the exact share here is the whole pool, nothing more.
	tickets := []*entities.Ticket{
		ticket(11, 1, 1, "3000000000"),
		ticket(12, 2, 2, "500000000"),
		ticket(13, 3, 2, "500000000"),
		ticket(14, 2, 3, "500000000"),
		ticket(15, 3, 3, "500000000"),
	}

	f.ticketRepo.On("ListBySession", ctx, int64(100)).Return(tickets, nil)
	f.historyRepo.On("ExistsWinForTicket", ctx, mock.AnythingOfType("int64")).Return(false, nil)
	f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*entities.Ticket")).Return(nil)
	f.winningCellRepo.On("CreateBatch", ctx, mock.Anything).Return(nil)
	f.sessionRepo.On("Update", ctx, session).Return(nil)
	f.coinRepo.On("GetByID", ctx, int64(7)).Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, result.WinningCells)
	assert.True(t, result.PrizePool.Equal(dec("5000000000")))
	assert.True(t, f.ledger.credited[1].Equal(dec("5000000000")), "got %s", f.ledger.credited[1])
	assert.True(t, f.ledger.totalCredited().LessThanOrEqual(result.PrizePool),
		"credited %s exceeds pool %s", f.ledger.totalCredited(), result.PrizePool)
}

func TestSettlementService_SingleBettorRefund(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "10", now)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)
	f.gameRepo.On("GetByID", ctx, int64(1)).Return(threeCellGame(), nil)

	// One user covered every cell.
	tickets := []*entities.Ticket{
		ticket(11, 5, 1, "10"),
		ticket(12, 5, 2, "10"),
		ticket(13, 5, 3, "10"),
	}
	f.ticketRepo.On("ListBySession", ctx, int64(100)).Return(tickets, nil)
	f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*entities.Ticket")).Return(nil)
	f.sessionRepo.On("Update", ctx, session).Return(nil)
	f.coinRepo.On("GetByID", ctx, int64(7)).Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)

	assert.True(t, result.Voided)
	assert.True(t, f.ledger.unlocked[5].Equal(dec("30")), "full stake returned")
	assert.True(t, f.ledger.totalCredited().IsZero())
	assert.True(t, session.CommissionAmount.IsZero(), "no commission on void rounds")
	for _, tk := range tickets {
		require.NotNil(t, tk.Result)
		assert.Equal(t, entities.TicketResultRefund, *tk.Result)
	}
}

func TestSettlementService_UncoveredCellVoidsRound(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "10", now)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)
	f.gameRepo.On("GetByID", ctx, int64(1)).Return(threeCellGame(), nil)

	// Cell 3 has no bettors, so the round cannot be adjudicated.
	tickets := []*entities.Ticket{
		ticket(11, 1, 1, "10"),
		ticket(12, 2, 1, "25"),
		ticket(13, 3, 2, "10"),
	}
	f.ticketRepo.On("ListBySession", ctx, int64(100)).Return(tickets, nil)
	f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*entities.Ticket")).Return(nil)
	f.sessionRepo.On("Update", ctx, session).Return(nil)
	f.coinRepo.On("GetByID", ctx, int64(7)).Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)

	assert.True(t, result.Voided)
	assert.True(t, f.ledger.unlocked[1].Equal(dec("10")))
	assert.True(t, f.ledger.unlocked[2].Equal(dec("25")), "each ticket refunds its own stake")
	assert.True(t, f.ledger.unlocked[3].Equal(dec("10")))
	assert.Empty(t, f.ledger.credited)
}

func TestSettlementService_EmptySessionOpensReplacement(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "10", now)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)
	f.gameRepo.On("GetByID", ctx, int64(1)).Return(threeCellGame(), nil)
	f.ticketRepo.On("ListBySession", ctx, int64(100)).Return([]*entities.Ticket{}, nil)
	f.sessionRepo.On("Update", ctx, session).Return(nil)
	f.sessions.On("FindOrCreateActive", ctx, int64(1), now).Return(&entities.GameSession{ID: 101, GameID: 1}, nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)

	assert.True(t, result.Empty)
	assert.Equal(t, entities.SessionStatusFinished, session.Status)
	f.sessions.AssertExpectations(t)
}

func TestSettlementService_AlreadyFinishedIsNoOp(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "10", now)
	session.Status = entities.SessionStatusFinished
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)

	result, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)
	assert.Empty(t, result.Notices)
	f.ticketRepo.AssertNotCalled(t, "ListBySession", ctx, int64(100))
}

func TestSettlementService_UnexpiredSessionRejected(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "10", now)
	session.EndTime = now.Add(time.Minute)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)

	_, err := f.service.SettleSession(ctx, 100, now)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSettlementService_SkipsAlreadyPaidTickets(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newSettlementFixture()

	session := expiredSession(100, "10", now)
	f.sessionRepo.On("GetByIDForUpdate", ctx, int64(100)).Return(session, nil)
	f.gameRepo.On("GetByID", ctx, int64(1)).Return(threeCellGame(), nil)

	tickets := []*entities.Ticket{
		ticket(11, 1, 1, "10"),
		ticket(12, 2, 2, "10"),
		ticket(13, 3, 3, "10"),
		ticket(14, 2, 3, "10"),
	}
	f.ticketRepo.On("ListBySession", ctx, int64(100)).Return(tickets, nil)

	// Ticket 11 was paid before a crash; its credit must not repeat.
	f.historyRepo.On("ExistsWinForTicket", ctx, int64(11)).Return(true, nil)
	f.historyRepo.On("ExistsWinForTicket", ctx, int64(12)).Return(false, nil)

	f.ticketRepo.On("Update", ctx, mock.AnythingOfType("*entities.Ticket")).Return(nil)
	f.winningCellRepo.On("CreateBatch", ctx, mock.Anything).Return(nil)
	f.sessionRepo.On("Update", ctx, session).Return(nil)
	f.coinRepo.On("GetByID", ctx, int64(7)).Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	_, err := f.service.SettleSession(ctx, 100, now)
	require.NoError(t, err)

	assert.True(t, f.ledger.credited[1].IsZero(), "already paid ticket must not be credited again")
	assert.True(t, f.ledger.credited[2].Equal(dec("18")))
}
