package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cellbet/domain/entities"
	"cellbet/domain/interfaces"
	"cellbet/domain/testhelpers"
)

type withdrawalFixture struct {
	userRepo       *testhelpers.MockUserRepository
	coinRepo       *testhelpers.MockCoinRepository
	withdrawalRepo *testhelpers.MockWithdrawalRequestRepository
	historyRepo    *testhelpers.MockTransactionHistoryRepository
	ledger         *testhelpers.MockLedgerService
	publisher      *testhelpers.MockEventPublisher
	service        interfaces.WithdrawalService
}

func newWithdrawalFixture() *withdrawalFixture {
	f := &withdrawalFixture{
		userRepo:       new(testhelpers.MockUserRepository),
		coinRepo:       new(testhelpers.MockCoinRepository),
		withdrawalRepo: new(testhelpers.MockWithdrawalRequestRepository),
		historyRepo:    new(testhelpers.MockTransactionHistoryRepository),
		ledger:         new(testhelpers.MockLedgerService),
		publisher:      new(testhelpers.MockEventPublisher),
	}
	f.service = NewWithdrawalService(f.userRepo, f.coinRepo, f.withdrawalRepo, f.historyRepo, f.ledger, f.publisher)
	return f
}

func pendingRequest(id int64) *entities.WithdrawalRequest {
	return &entities.WithdrawalRequest{
		ID:           id,
		UserID:       42,
		CoinID:       7,
		Amount:       dec("50"),
		Status:       entities.WithdrawalStatusPending,
		FrozenAmount: dec("50"),
	}
}

func TestWithdrawalService_Request(t *testing.T) {
	ctx := context.Background()
	f := newWithdrawalFixture()

	f.userRepo.On("GetByID", ctx, int64(42)).Return(&entities.User{ID: 42, Username: "alice"}, nil)
	f.coinRepo.On("GetBySymbol", ctx, "TON").Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
	f.historyRepo.On("SumBySubtype", ctx, int64(42), int64(7), entities.TransactionSubtypeWin).Return(dec("20"), nil)
	f.withdrawalRepo.On("Create", ctx, mock.MatchedBy(func(r *entities.WithdrawalRequest) bool {
		return r.UserID == 42 && r.Status == entities.WithdrawalStatusPending &&
			r.Amount.Equal(dec("50")) && r.FrozenAmount.Equal(dec("50"))
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	request, err := f.service.Request(ctx, 42, "TON", dec("50"), "EQabc")
	require.NoError(t, err)

	// 50 is below max(10*20, 1000), so not suspicious.
	assert.False(t, request.IsSuspicious)

	// No funds move at request time.
	f.ledger.AssertNotCalled(t, "DebitAndLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.withdrawalRepo.AssertExpectations(t)
}

func TestWithdrawalService_Request_SuspiciousFlag(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		winnings   string
		amount     string
		suspicious bool
	}{
		{name: "below floor", winnings: "0", amount: "1000", suspicious: false},
		{name: "above floor with no winnings", winnings: "0", amount: "1001", suspicious: true},
		{name: "within ten times winnings", winnings: "500", amount: "5000", suspicious: false},
		{name: "above ten times winnings", winnings: "500", amount: "5001", suspicious: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWithdrawalFixture()
			f.userRepo.On("GetByID", ctx, int64(42)).Return(&entities.User{ID: 42}, nil)
			f.coinRepo.On("GetBySymbol", ctx, "TON").Return(&entities.Coin{ID: 7, Symbol: "TON"}, nil)
			f.historyRepo.On("SumBySubtype", ctx, int64(42), int64(7), entities.TransactionSubtypeWin).Return(dec(tt.winnings), nil)
			f.withdrawalRepo.On("Create", ctx, mock.Anything).Return(nil)
			f.publisher.On("Publish", mock.Anything).Return(nil)

			request, err := f.service.Request(ctx, 42, "TON", dec(tt.amount), "EQabc")
			require.NoError(t, err)
			assert.Equal(t, tt.suspicious, request.IsSuspicious)
		})
	}
}

func TestWithdrawalService_Approve(t *testing.T) {
	ctx := context.Background()
	f := newWithdrawalFixture()

	request := pendingRequest(9)
	f.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(request, nil)
	f.ledger.On("DebitAndLock", ctx, int64(42), int64(7), dec("50"), entities.TransactionSubtypePending, (*int64)(nil)).
		Return(&entities.Balance{}, nil)
	f.withdrawalRepo.On("Update", ctx, request).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	got, err := f.service.Approve(ctx, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.WithdrawalStatusApproved, got.Status)
	f.ledger.AssertExpectations(t)
}

func TestWithdrawalService_Approve_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newWithdrawalFixture()

	request := pendingRequest(9)
	f.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(request, nil)
	f.ledger.On("DebitAndLock", ctx, int64(42), int64(7), dec("50"), entities.TransactionSubtypePending, (*int64)(nil)).
		Return(nil, ErrInsufficientFunds)

	_, err := f.service.Approve(ctx, 9, 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	f.withdrawalRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestWithdrawalService_Reject(t *testing.T) {
	ctx := context.Background()
	f := newWithdrawalFixture()

	request := pendingRequest(9)
	f.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(request, nil)
	f.withdrawalRepo.On("Update", ctx, request).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	got, err := f.service.Reject(ctx, 9, "address mismatch")
	require.NoError(t, err)
	assert.Equal(t, entities.WithdrawalStatusRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "address mismatch", *got.RejectionReason)

	// Rejection never touches balances.
	f.ledger.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "DebitAndLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_Finalize(t *testing.T) {
	ctx := context.Background()
	f := newWithdrawalFixture()

	request := pendingRequest(9)
	request.Status = entities.WithdrawalStatusApproved
	f.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(request, nil)
	f.ledger.On("UnlockAndDebit", ctx, int64(42), int64(7), dec("50"), entities.TransactionSubtypeCompleted).
		Return(&entities.Balance{}, nil)
	f.withdrawalRepo.On("Update", ctx, request).Return(nil)
	f.publisher.On("Publish", mock.Anything).Return(nil)

	got, err := f.service.Finalize(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, entities.WithdrawalStatusCompleted, got.Status)
	f.ledger.AssertExpectations(t)
}

func TestWithdrawalService_WrongSourceState(t *testing.T) {
	ctx := context.Background()

	t.Run("finalize pending", func(t *testing.T) {
		f := newWithdrawalFixture()
		f.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(pendingRequest(9), nil)

		_, err := f.service.Finalize(ctx, 9)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	t.Run("approve rejected", func(t *testing.T) {
		f := newWithdrawalFixture()
		request := pendingRequest(9)
		request.Status = entities.WithdrawalStatusRejected
		f.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(request, nil)

		_, err := f.service.Approve(ctx, 9, 1)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	t.Run("reject completed", func(t *testing.T) {
		f := newWithdrawalFixture()
		request := pendingRequest(9)
		request.Status = entities.WithdrawalStatusCompleted
		f.withdrawalRepo.On("GetByIDForUpdate", ctx, int64(9)).Return(request, nil)

		_, err := f.service.Reject(ctx, 9, "late")
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})
}
