package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cellbet/domain/services"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// DepositHandler consumes raw messages from the inbound payment feed
type DepositHandler interface {
	// HandleDepositMessage applies one deposit notification
	HandleDepositMessage(ctx context.Context, data []byte) error
}

// depositMessage is the wire format of one payment feed notification
type depositMessage struct {
	Memo    string `json:"memo"`
	Coin    string `json:"coin"`
	Amount  string `json:"amount"`
	TraceID string `json:"trace_id"`
}

// DepositProcessor credits inbound deposits against user balances
type DepositProcessor struct {
	uowFactory UnitOfWorkFactory
}

// NewDepositProcessor creates a new deposit processor
func NewDepositProcessor(uowFactory UnitOfWorkFactory) *DepositProcessor {
	return &DepositProcessor{
		uowFactory: uowFactory,
	}
}

// HandleDepositMessage parses and applies one deposit notification.
// Replayed traces and unknown memos are acknowledged, not retried: redelivery
// cannot make them succeed.
func (p *DepositProcessor) HandleDepositMessage(ctx context.Context, data []byte) error {
	var msg depositMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse deposit message: %w", err)
	}

	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return fmt.Errorf("failed to parse deposit amount %q: %w", msg.Amount, err)
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ledger := services.NewLedgerService(
		uow.UserRepository(),
		uow.CoinRepository(),
		uow.BalanceRepository(),
		uow.TransactionHistoryRepository(),
		uow.EventBus(),
	)

	balance, err := ledger.IngestDeposit(ctx, msg.Memo, msg.Coin, amount, msg.TraceID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateTrace):
			log.WithField("traceId", msg.TraceID).Info("Deposit already applied, acknowledging replay")
			return nil
		case errors.Is(err, services.ErrNotFound):
			log.WithFields(log.Fields{
				"memo":    msg.Memo,
				"traceId": msg.TraceID,
			}).Warn("Deposit memo matches no user, dropping")
			return nil
		case errors.Is(err, services.ErrUnsupportedCoin):
			log.WithFields(log.Fields{
				"coin":    msg.Coin,
				"traceId": msg.TraceID,
			}).Warn("Deposit in unsupported coin, dropping")
			return nil
		}
		return fmt.Errorf("failed to ingest deposit %s: %w", msg.TraceID, err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit deposit %s: %w", msg.TraceID, err)
	}

	log.WithFields(log.Fields{
		"traceId": msg.TraceID,
		"userId":  balance.UserID,
		"coinId":  balance.CoinID,
		"amount":  amount.String(),
	}).Info("Deposit credited")

	return nil
}
