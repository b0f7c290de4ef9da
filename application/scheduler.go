package application

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// SchedulerConfig holds the timing knobs of the background workers
type SchedulerConfig struct {
	// SweepInterval is how often expired rounds are settled
	SweepInterval time.Duration

	// AutoStartInterval is how often idle games are checked for a new round
	AutoStartInterval time.Duration

	// ProcessingStaleAfter is how long a settlement claim may be held
	// before another worker reclaims the session
	ProcessingStaleAfter time.Duration
}

// DefaultSchedulerConfig returns the production timing configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SweepInterval:        10 * time.Second,
		AutoStartInterval:    60 * time.Second,
		ProcessingStaleAfter: 2 * time.Minute,
	}
}

// Scheduler drives the settlement sweep and the session auto-start loop
type Scheduler struct {
	config           SchedulerConfig
	settlementWorker *SettlementWorker
	autoStartWorker  *AutoStartWorker
	wg               sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(config SchedulerConfig, settlementWorker *SettlementWorker, autoStartWorker *AutoStartWorker) *Scheduler {
	return &Scheduler{
		config:           config,
		settlementWorker: settlementWorker,
		autoStartWorker:  autoStartWorker,
	}
}

// Start launches both worker loops. They stop when the context is canceled;
// Wait blocks until both have exited.
func (s *Scheduler) Start(ctx context.Context) {
	log.WithFields(log.Fields{
		"sweepInterval":     s.config.SweepInterval,
		"autoStartInterval": s.config.AutoStartInterval,
	}).Info("Starting scheduler")

	s.wg.Add(2)
	go s.runSweepLoop(ctx)
	go s.runAutoStartLoop(ctx)
}

// Wait blocks until all worker loops have stopped
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Settlement sweep loop stopped")
			return
		case now := <-ticker.C:
			if _, err := s.settlementWorker.SweepOnce(ctx, now); err != nil {
				log.WithError(err).Error("Settlement sweep failed")
			}
		}
	}
}

func (s *Scheduler) runAutoStartLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.AutoStartInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Auto-start loop stopped")
			return
		case now := <-ticker.C:
			if err := s.autoStartWorker.RunOnce(ctx, now); err != nil {
				log.WithError(err).Error("Auto-start run failed")
			}
		}
	}
}
