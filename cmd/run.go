package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"cellbet/application"
	"cellbet/config"
	"cellbet/database"
	"cellbet/infrastructure"
	"cellbet/repository"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting settlement engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS and the outbound event publisher
	log.Println("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure domain event stream: %w", err)
	}
	log.Println("NATS connection established successfully")

	// Initialize unit of work factory
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	// Initialize Telegram notifier
	log.Println("Initializing Telegram notifier...")
	notifier, err := infrastructure.NewTelegramNotifier(cfg.TelegramBotToken, cfg.OperatorTelegramID, repository.NewUserRepository(db))
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram notifier: %w", err)
	}

	// Start the settlement sweep and the session auto-start loop
	schedulerConfig := application.SchedulerConfig{
		SweepInterval:        time.Duration(cfg.SweepIntervalSeconds) * time.Second,
		AutoStartInterval:    time.Duration(cfg.AutoStartIntervalSeconds) * time.Second,
		ProcessingStaleAfter: time.Duration(cfg.ProcessingStaleSeconds) * time.Second,
	}
	settlementWorker := application.NewSettlementWorker(uowFactory, notifier, schedulerConfig.ProcessingStaleAfter)
	autoStartWorker := application.NewAutoStartWorker(uowFactory)
	scheduler := application.NewScheduler(schedulerConfig, settlementWorker, autoStartWorker)
	scheduler.Start(ctx)

	// Start consuming the inbound payment feed
	depositProcessor := application.NewDepositProcessor(uowFactory)
	consumer := infrastructure.NewMessageConsumer(cfg.NATSServers, depositProcessor)
	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Start(ctx)
	}()

	log.Printf("Settlement engine is running in %s mode...", cfg.Environment)
	select {
	case err := <-consumerErr:
		if err != nil {
			log.Printf("Message consumer stopped with error: %v", err)
		}
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	consumer.Stop()
	scheduler.Wait()

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
