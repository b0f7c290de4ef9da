package application

import (
	"context"
	"fmt"
	"time"

	"cellbet/domain/entities"
	"cellbet/domain/interfaces"
	"cellbet/domain/services"

	log "github.com/sirupsen/logrus"
)

// SettlementWorker resolves expired betting rounds. Each round is settled in
// its own transaction so one failing round never blocks the rest of the sweep.
type SettlementWorker struct {
	uowFactory UnitOfWorkFactory
	notifier   Notifier
	staleAfter time.Duration
}

// NewSettlementWorker creates a new settlement worker
func NewSettlementWorker(uowFactory UnitOfWorkFactory, notifier Notifier, staleAfter time.Duration) *SettlementWorker {
	return &SettlementWorker{
		uowFactory: uowFactory,
		notifier:   notifier,
		staleAfter: staleAfter,
	}
}

// SweepOnce settles every expired session that is not claimed by another
// worker. Returns the number of sessions settled.
func (w *SettlementWorker) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	expired, err := w.listExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, session := range expired {
		if err := w.settleOne(ctx, session.ID, now); err != nil {
			log.WithFields(log.Fields{
				"sessionId": session.ID,
				"gameId":    session.GameID,
				"error":     err,
			}).Error("Failed to settle session, leaving it for the next sweep")
			w.alertOperator(ctx, session, err)
			continue
		}
		settled++
	}

	if settled > 0 {
		log.WithFields(log.Fields{
			"expired": len(expired),
			"settled": settled,
		}).Info("Settlement sweep completed")
	}

	return settled, nil
}

// alertOperator escalates a failed settlement to the operator channel.
// Delivery is best effort; the round stays queued for the next sweep
// whether or not the alert lands.
func (w *SettlementWorker) alertOperator(ctx context.Context, session *entities.GameSession, cause error) {
	message := fmt.Sprintf("Settlement of round #%d (game %d) failed and will be retried: %v",
		session.ID, session.GameID, cause)
	if err := w.notifier.NotifyOperator(ctx, message); err != nil {
		log.WithError(err).WithField("sessionId", session.ID).Error("Failed to alert operator about settlement failure")
	}
}

// listExpired reads the sweep candidates in a short read-only transaction
func (w *SettlementWorker) listExpired(ctx context.Context, now time.Time) ([]*entities.GameSession, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.GameSessionRepository().ListExpired(ctx, now, now.Add(-w.staleAfter))
}

// settleOne claims, settles and releases a single session. The claim and the
// release each run in their own short transactions so a crash mid settlement
// leaves a stale flag instead of a wedged row lock.
func (w *SettlementWorker) settleOne(ctx context.Context, sessionID int64, now time.Time) error {
	claimed, err := w.claim(ctx, sessionID, now)
	if err != nil {
		return fmt.Errorf("failed to claim session: %w", err)
	}
	if !claimed {
		return nil
	}
	defer w.release(ctx, sessionID)

	result, err := w.settle(ctx, sessionID, now)
	if err != nil {
		return err
	}

	// Delivery happens after commit. Failures are logged and swallowed;
	// the ledger is already consistent.
	for _, notice := range result.Notices {
		if err := w.notifier.NotifyOutcome(ctx, notice); err != nil {
			log.WithFields(log.Fields{
				"userId":    notice.UserID,
				"sessionId": notice.SessionID,
				"error":     err,
			}).Error("Failed to deliver settlement notice")
		}
	}

	return nil
}

// claim re-checks the session under lock and marks it as processing.
// Returns false when another worker already took or settled it.
func (w *SettlementWorker) claim(ctx context.Context, sessionID int64, now time.Time) (bool, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	session, err := uow.GameSessionRepository().GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil || session.IsSettled() || !session.IsExpired(now) {
		return false, nil
	}
	if session.IsProcessing && !session.ProcessingStale(now, w.staleAfter) {
		return false, nil
	}

	if err := uow.GameSessionRepository().SetProcessing(ctx, sessionID, now); err != nil {
		return false, err
	}

	return true, uow.Commit()
}

// settle runs the settlement of one claimed session in a single transaction
func (w *SettlementWorker) settle(ctx context.Context, sessionID int64, now time.Time) (*interfaces.SettlementResult, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	ledger := services.NewLedgerService(
		uow.UserRepository(),
		uow.CoinRepository(),
		uow.BalanceRepository(),
		uow.TransactionHistoryRepository(),
		uow.EventBus(),
	)
	sessions := services.NewSessionService(
		uow.GameRepository(),
		uow.GameSessionRepository(),
		uow.EventBus(),
	)
	settlement := services.NewSettlementService(
		uow.GameRepository(),
		uow.GameSessionRepository(),
		uow.TicketRepository(),
		uow.WinningCellRepository(),
		uow.CoinRepository(),
		uow.TransactionHistoryRepository(),
		ledger,
		sessions,
		uow.EventBus(),
	)

	result, err := settlement.SettleSession(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to settle session: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return result, nil
}

// release clears the processing flag in its own transaction
func (w *SettlementWorker) release(ctx context.Context, sessionID int64) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithError(err).WithField("sessionId", sessionID).Error("Failed to begin release transaction")
		return
	}
	defer uow.Rollback()

	if err := uow.GameSessionRepository().ClearProcessing(ctx, sessionID); err != nil {
		log.WithError(err).WithField("sessionId", sessionID).Error("Failed to clear processing flag")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithError(err).WithField("sessionId", sessionID).Error("Failed to commit release")
	}
}
