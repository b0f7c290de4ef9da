package application

import (
	"context"
	"fmt"
	"time"

	"cellbet/domain/events"
	"cellbet/domain/services"

	log "github.com/sirupsen/logrus"
)

// AutoStartWorker opens fresh betting rounds for games whose last round
// finished longer than the game's auto-start delay ago, and broadcasts live
// round snapshots to subscribers.
type AutoStartWorker struct {
	uowFactory UnitOfWorkFactory
}

// NewAutoStartWorker creates a new auto-start worker
func NewAutoStartWorker(uowFactory UnitOfWorkFactory) *AutoStartWorker {
	return &AutoStartWorker{
		uowFactory: uowFactory,
	}
}

// RunOnce opens due sessions and broadcasts the state of every live round
func (w *AutoStartWorker) RunOnce(ctx context.Context, now time.Time) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sessions := services.NewSessionService(
		uow.GameRepository(),
		uow.GameSessionRepository(),
		uow.EventBus(),
	)

	created, err := sessions.EnsureSessions(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to ensure sessions: %w", err)
	}

	// Broadcast a snapshot per live round. The events flush with the commit.
	infos, err := sessions.ActiveSessionInfos(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list active session infos: %w", err)
	}
	for _, info := range infos {
		if err := uow.EventBus().Publish(events.SessionUpdatedEvent{
			GameID:        info.GameID,
			SessionID:     info.SessionID,
			EndTime:       info.EndTime,
			RemainingTime: info.Remaining(now),
			PlayerCount:   info.PlayerCount,
		}); err != nil {
			log.WithError(err).WithField("sessionId", info.SessionID).Error("Failed to queue session snapshot")
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit auto-start run: %w", err)
	}

	if len(created) > 0 {
		log.WithField("created", len(created)).Info("Opened new betting rounds")
	}

	return nil
}
