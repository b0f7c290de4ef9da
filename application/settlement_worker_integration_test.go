package application_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cellbet/application"
	"cellbet/domain/entities"
	"cellbet/domain/interfaces"
	"cellbet/domain/services"
	"cellbet/infrastructure"
	"cellbet/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const processingStaleAfter = 2 * time.Minute

// openExpiredSession creates an active session whose betting window already closed
func openExpiredSession(t *testing.T, ctx context.Context, uowFactory application.UnitOfWorkFactory, game *entities.Game, now time.Time) *entities.GameSession {
	t.Helper()

	uow := uowFactory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	session := entities.NewGameSession(game, now.Add(-2*game.RoundDuration()))
	require.NoError(t, uow.GameSessionRepository().Create(ctx, session))
	require.NoError(t, uow.Commit())

	return session
}

// placeTickets books cells for a user the way bet admission does: the stake is
// escrowed, the tickets are created and the session total is bumped
func placeTickets(t *testing.T, ctx context.Context, uowFactory application.UnitOfWorkFactory, userID int64, coinID int64, session *entities.GameSession, amount string, cells ...int) {
	t.Helper()

	uow := uowFactory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	stake := decimal.RequireFromString(amount)
	total := stake.Mul(decimal.NewFromInt(int64(len(cells))))

	ledger := services.NewLedgerService(
		uow.UserRepository(),
		uow.CoinRepository(),
		uow.BalanceRepository(),
		uow.TransactionHistoryRepository(),
		uow.EventBus(),
	)
	_, err := ledger.DebitAndLock(ctx, userID, coinID, total, entities.TransactionSubtypeBet, &session.ID)
	require.NoError(t, err)

	tickets := make([]*entities.Ticket, 0, len(cells))
	for _, cell := range cells {
		tickets = append(tickets, &entities.Ticket{
			UserID:     userID,
			CoinID:     coinID,
			SessionID:  session.ID,
			CellNumber: cell,
			BetAmount:  stake,
			Status:     entities.SessionStatusActive,
		})
	}
	require.NoError(t, uow.TicketRepository().CreateBatch(ctx, tickets))
	require.NoError(t, uow.GameSessionRepository().IncrementTotalBet(ctx, session.ID, total))
	require.NoError(t, uow.Commit())
}

// readBalance fetches a user's balance in a throwaway transaction
func readBalance(t *testing.T, ctx context.Context, uowFactory application.UnitOfWorkFactory, userID, coinID int64) *entities.Balance {
	t.Helper()

	uow := uowFactory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	balance, err := uow.BalanceRepository().GetForUpdate(ctx, userID, coinID)
	require.NoError(t, err)
	require.NotNil(t, balance)
	return balance
}

func TestSettlementWorker_SweepSettlesExpiredRound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher())

	ctx := context.Background()
	now := time.Now()

	coin := testutil.SeedCoin(t, testDB.DB, "Toncoin", "TON")
	game := testutil.SeedGame(t, testDB.DB, "2x2 Arena", 2, "5", 60)
	testutil.SeedGameCoin(t, testDB.DB, game.ID, coin.ID)

	alice := testutil.SeedUser(t, testDB.DB, "alice", "brave-otter")
	bob := testutil.SeedUser(t, testDB.DB, "bob", "calm-heron")
	testutil.SeedBalance(t, testDB.DB, alice.ID, coin.ID, "100")
	testutil.SeedBalance(t, testDB.DB, bob.ID, coin.ID, "100")

	session := openExpiredSession(t, ctx, uowFactory, game, now)

	// Alice crowds cell 1, Bob covers both. Cell 2 has the fewest tickets.
	placeTickets(t, ctx, uowFactory, alice.ID, coin.ID, session, "10", 1)
	placeTickets(t, ctx, uowFactory, bob.ID, coin.ID, session, "10", 1, 2)

	notifier := &application.MockNotifier{}
	worker := application.NewSettlementWorker(uowFactory, notifier, processingStaleAfter)

	settled, err := worker.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	// Total 30, commission 5% = 1.5, pool 28.5 all to Bob's cell 2 stake of 10
	aliceBalance := readBalance(t, ctx, uowFactory, alice.ID, coin.ID)
	assert.True(t, aliceBalance.Available.Equal(decimal.RequireFromString("90")), "alice available: %s", aliceBalance.Available)
	assert.True(t, aliceBalance.Locked.IsZero(), "alice locked: %s", aliceBalance.Locked)

	bobBalance := readBalance(t, ctx, uowFactory, bob.ID, coin.ID)
	assert.True(t, bobBalance.Available.Equal(decimal.RequireFromString("108.5")), "bob available: %s", bobBalance.Available)
	assert.True(t, bobBalance.Locked.IsZero(), "bob locked: %s", bobBalance.Locked)

	uow := uowFactory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	settledSession, err := uow.GameSessionRepository().GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusFinished, settledSession.Status)
	assert.False(t, settledSession.IsProcessing)
	assert.True(t, settledSession.TotalBetAmount.Equal(decimal.RequireFromString("30")))
	assert.True(t, settledSession.CommissionAmount.Equal(decimal.RequireFromString("1.5")))

	cells, err := uow.WinningCellRepository().ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, 2, cells[0].CellNumber)

	// One win notice for Bob, one aggregated lose notice each
	bobWins := notifier.OutcomesFor(bob.ID)
	require.NotEmpty(t, bobWins)
	var winNotice *interfaces.OutcomeNotice
	for i := range bobWins {
		if bobWins[i].Kind == interfaces.OutcomeWin {
			winNotice = &bobWins[i]
		}
	}
	require.NotNil(t, winNotice)
	assert.True(t, winNotice.Amount.Equal(decimal.RequireFromString("28.5")))
	assert.Equal(t, "TON", winNotice.CoinSymbol)
	assert.Equal(t, []int{2}, winNotice.Cells)

	aliceNotices := notifier.OutcomesFor(alice.ID)
	require.Len(t, aliceNotices, 1)
	assert.Equal(t, interfaces.OutcomeLose, aliceNotices[0].Kind)

	// The round is gone from the sweep, a second pass settles nothing
	settled, err = worker.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, settled)
}

func TestSettlementWorker_SweepVoidsSingleBettorRound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher())

	ctx := context.Background()
	now := time.Now()

	coin := testutil.SeedCoin(t, testDB.DB, "Toncoin", "TON")
	game := testutil.SeedGame(t, testDB.DB, "2x2 Arena", 2, "5", 60)
	testutil.SeedGameCoin(t, testDB.DB, game.ID, coin.ID)

	alice := testutil.SeedUser(t, testDB.DB, "alice", "brave-otter")
	testutil.SeedBalance(t, testDB.DB, alice.ID, coin.ID, "100")

	session := openExpiredSession(t, ctx, uowFactory, game, now)
	placeTickets(t, ctx, uowFactory, alice.ID, coin.ID, session, "10", 1, 2)

	notifier := &application.MockNotifier{}
	worker := application.NewSettlementWorker(uowFactory, notifier, processingStaleAfter)

	settled, err := worker.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	// Full refund, no commission taken
	balance := readBalance(t, ctx, uowFactory, alice.ID, coin.ID)
	assert.True(t, balance.Available.Equal(decimal.RequireFromString("100")), "available: %s", balance.Available)
	assert.True(t, balance.Locked.IsZero())

	notices := notifier.OutcomesFor(alice.ID)
	require.Len(t, notices, 1)
	assert.Equal(t, interfaces.OutcomeRefund, notices[0].Kind)
	assert.True(t, notices[0].Amount.Equal(decimal.RequireFromString("20")))
	assert.ElementsMatch(t, []int{1, 2}, notices[0].Cells)
}

func TestSettlementWorker_SweepSkipsFreshClaimAndReclaimsStaleOne(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher())

	ctx := context.Background()
	now := time.Now()

	coin := testutil.SeedCoin(t, testDB.DB, "Toncoin", "TON")
	game := testutil.SeedGame(t, testDB.DB, "2x2 Arena", 2, "5", 60)
	testutil.SeedGameCoin(t, testDB.DB, game.ID, coin.ID)

	session := openExpiredSession(t, ctx, uowFactory, game, now)

	markProcessing := func(startedAt time.Time) {
		uow := uowFactory.Create()
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()
		require.NoError(t, uow.GameSessionRepository().SetProcessing(ctx, session.ID, startedAt))
		require.NoError(t, uow.Commit())
	}

	notifier := &application.MockNotifier{}
	worker := application.NewSettlementWorker(uowFactory, notifier, processingStaleAfter)

	// A fresh claim by another worker hides the round from the sweep
	markProcessing(now)
	settled, err := worker.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, settled)

	// A claim held past the stale threshold is taken over
	markProcessing(now.Add(-2 * processingStaleAfter))
	settled, err = worker.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
}

func TestSettlementWorker_SettlementFailureAlertsOperator(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher())

	ctx := context.Background()
	now := time.Now()

	coin := testutil.SeedCoin(t, testDB.DB, "Toncoin", "TON")
	game := testutil.SeedGame(t, testDB.DB, "2x2 Arena", 2, "5", 60)
	testutil.SeedGameCoin(t, testDB.DB, game.ID, coin.ID)

	alice := testutil.SeedUser(t, testDB.DB, "alice", "brave-otter")
	session := openExpiredSession(t, ctx, uowFactory, game, now)

	// Tickets without an escrowed stake: the refund inside settlement has
	// no balance row to unlock, so settling this round must fail.
	uow := uowFactory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.TicketRepository().CreateBatch(ctx, []*entities.Ticket{
		{UserID: alice.ID, CoinID: coin.ID, SessionID: session.ID, CellNumber: 1, BetAmount: decimal.RequireFromString("10"), Status: entities.SessionStatusActive},
		{UserID: alice.ID, CoinID: coin.ID, SessionID: session.ID, CellNumber: 2, BetAmount: decimal.RequireFromString("10"), Status: entities.SessionStatusActive},
	}))
	require.NoError(t, uow.Commit())

	notifier := &application.MockNotifier{}
	worker := application.NewSettlementWorker(uowFactory, notifier, processingStaleAfter)

	settled, err := worker.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, settled)

	// The failure reached the operator channel and the round stays
	// claimable for the next sweep.
	require.Len(t, notifier.OperatorAlerts, 1)
	assert.Contains(t, notifier.OperatorAlerts[0], fmt.Sprintf("round #%d", session.ID))
	assert.Contains(t, notifier.OperatorAlerts[0], "failed")
	assert.Empty(t, notifier.Outcomes)

	check := uowFactory.Create()
	require.NoError(t, check.Begin(ctx))
	defer check.Rollback()

	stored, err := check.GameSessionRepository().GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusActive, stored.Status)
	assert.False(t, stored.IsProcessing)
}

func TestSettlementWorker_EmptyRoundOpensReplacement(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher())

	ctx := context.Background()
	now := time.Now()

	coin := testutil.SeedCoin(t, testDB.DB, "Toncoin", "TON")
	game := testutil.SeedGame(t, testDB.DB, "2x2 Arena", 2, "5", 60)
	testutil.SeedGameCoin(t, testDB.DB, game.ID, coin.ID)

	session := openExpiredSession(t, ctx, uowFactory, game, now)

	notifier := &application.MockNotifier{}
	worker := application.NewSettlementWorker(uowFactory, notifier, processingStaleAfter)

	settled, err := worker.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Empty(t, notifier.Outcomes)

	uow := uowFactory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	old, err := uow.GameSessionRepository().GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SessionStatusFinished, old.Status)

	replacement, err := uow.GameSessionRepository().GetActiveByGame(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, replacement)
	assert.NotEqual(t, session.ID, replacement.ID)
	assert.True(t, replacement.IsActive(now))
}
