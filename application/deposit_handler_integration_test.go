package application_test

import (
	"context"
	"testing"

	"cellbet/application"
	"cellbet/infrastructure"
	"cellbet/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositProcessor_HandleDepositMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	uowFactory := infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher())

	ctx := context.Background()

	coin := testutil.SeedCoin(t, testDB.DB, "Toncoin", "TON")
	alice := testutil.SeedUser(t, testDB.DB, "alice", "brave-otter")

	processor := application.NewDepositProcessor(uowFactory)

	t.Run("credits a deposit against the memo owner", func(t *testing.T) {
		err := processor.HandleDepositMessage(ctx, []byte(`{"memo":"brave-otter","coin":"TON","amount":"25.5","trace_id":"tx-001"}`))
		require.NoError(t, err)

		balance := readBalance(t, ctx, uowFactory, alice.ID, coin.ID)
		assert.True(t, balance.Available.Equal(decimal.RequireFromString("25.5")), "available: %s", balance.Available)
	})

	t.Run("acknowledges a replayed trace without a second credit", func(t *testing.T) {
		err := processor.HandleDepositMessage(ctx, []byte(`{"memo":"brave-otter","coin":"TON","amount":"25.5","trace_id":"tx-001"}`))
		require.NoError(t, err)

		balance := readBalance(t, ctx, uowFactory, alice.ID, coin.ID)
		assert.True(t, balance.Available.Equal(decimal.RequireFromString("25.5")), "available: %s", balance.Available)
	})

	t.Run("acknowledges a deposit with an unknown memo", func(t *testing.T) {
		err := processor.HandleDepositMessage(ctx, []byte(`{"memo":"no-such-memo","coin":"TON","amount":"10","trace_id":"tx-002"}`))
		require.NoError(t, err)
	})

	t.Run("acknowledges a deposit in an unsupported coin", func(t *testing.T) {
		err := processor.HandleDepositMessage(ctx, []byte(`{"memo":"brave-otter","coin":"DOGE","amount":"10","trace_id":"tx-003"}`))
		require.NoError(t, err)
	})

	t.Run("returns an error for a malformed amount", func(t *testing.T) {
		err := processor.HandleDepositMessage(ctx, []byte(`{"memo":"brave-otter","coin":"TON","amount":"not-a-number","trace_id":"tx-004"}`))
		require.Error(t, err)
	})
}
