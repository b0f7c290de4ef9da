package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"cellbet/domain/entities"
	"cellbet/domain/events"
	"cellbet/domain/interfaces"
)

type sessionService struct {
	gameRepo       interfaces.GameRepository
	sessionRepo    interfaces.GameSessionRepository
	eventPublisher interfaces.EventPublisher
}

// NewSessionService creates a new session service
func NewSessionService(
	gameRepo interfaces.GameRepository,
	sessionRepo interfaces.GameSessionRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.SessionService {
	return &sessionService{
		gameRepo:       gameRepo,
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
	}
}

// FindOrCreateActive serializes session creation per game by holding a
// write lock on the game row while checking for a live session. Two
// concurrent callers both reach the check, but the second waits on the
// lock and finds the session the first one inserted.
func (s *sessionService) FindOrCreateActive(ctx context.Context, gameID int64, now time.Time) (*entities.GameSession, error) {
	game, err := s.gameRepo.GetByIDForUpdate(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", gameID, ErrNotFound)
	}
	if !game.IsActive() {
		return nil, fmt.Errorf("game %d: %w", gameID, ErrGameInactive)
	}

	current, err := s.sessionRepo.GetActiveByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	if current != nil && current.IsActive(now) {
		return current, nil
	}
	if current != nil {
		// Expired but unsettled. Admissions must not reopen the round
		// while the sweep is about to settle it.
		return nil, fmt.Errorf("session %d awaits settlement: %w", current.ID, ErrSessionNotActive)
	}

	session := entities.NewGameSession(game, now)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.eventPublisher.Publish(events.SessionStartedEvent{
		GameID:    game.ID,
		SessionID: session.ID,
		StartTime: session.StartTime,
		EndTime:   session.EndTime,
	}); err != nil {
		log.WithError(err).Error("Failed to publish session started event")
	}

	log.WithFields(log.Fields{
		"gameID":    game.ID,
		"sessionID": session.ID,
		"endTime":   session.EndTime,
	}).Info("Opened new game session")
	return session, nil
}

// EnsureSessions opens a session for every active game that has none
// and whose previous round finished longer than the game's auto-start
// delay ago.
func (s *sessionService) EnsureSessions(ctx context.Context, now time.Time) ([]*entities.GameSession, error) {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active games: %w", err)
	}

	var created []*entities.GameSession
	for _, game := range games {
		current, err := s.sessionRepo.GetActiveByGame(ctx, game.ID)
		if err != nil {
			return created, fmt.Errorf("failed to get session for game %d: %w", game.ID, err)
		}
		if current != nil {
			// Live or awaiting settlement either way, nothing to open.
			continue
		}

		last, err := s.sessionRepo.LastFinished(ctx, game.ID)
		if err != nil {
			return created, fmt.Errorf("failed to get last session for game %d: %w", game.ID, err)
		}
		if last != nil && now.Before(last.EndTime.Add(game.AutoStartDelay())) {
			continue
		}

		session, err := s.FindOrCreateActive(ctx, game.ID, now)
		if err != nil {
			return created, err
		}
		created = append(created, session)
	}
	return created, nil
}

func (s *sessionService) ActiveSessionInfos(ctx context.Context, now time.Time) ([]*entities.SessionInfo, error) {
	infos, err := s.sessionRepo.ListActiveInfos(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return infos, nil
}
