package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/api"
	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/database"
	"github.com/vitas-brc20/dicer/events"
	"github.com/vitas-brc20/dicer/infrastructure"
	"github.com/vitas-brc20/dicer/infrastructure/observability"
	"github.com/vitas-brc20/dicer/repository"
	"github.com/vitas-brc20/dicer/service"
	"github.com/vitas-brc20/dicer/worker"
)

// Run initializes and starts the engine
func Run(ctx context.Context) error {
	log.Info("Starting dicer...")

	// Load configuration
	cfg := config.Get()

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	eventBus.SubscribeAll(observability.GetMetrics().RecordEvent)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize message broker and ledger transport
	var transferer service.Transferer
	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}

		eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := eventPublisher.EnsureDomainEventStream(natsClient); err != nil {
			log.WithError(err).Warn("Failed to ensure domain event stream")
		}
		eventPublisher.Attach(eventBus)

		if err := infrastructure.EnsureTransferStream(natsClient); err != nil {
			log.WithError(err).Warn("Failed to ensure transfer stream")
		}
		transferer = infrastructure.NewNATSTransferRequester(natsClient)
		log.Info("NATS connection established successfully")
	} else {
		log.Warn("NATS disabled, transfers will only be logged")
		transferer = infrastructure.NewLogTransferer()
	}

	// Initialize services
	authorizer := infrastructure.NewTokenAuthorizer(cfg.AdminToken, cfg.JWTSecret)
	clock := service.SystemClock{}
	outcomes := service.NewDiceOutcomes(service.Blake3Hasher{}, cfg.DiceSides)

	ticketService := service.NewTicketService(uowFactory, cfg)
	rollService := service.NewRollService(uowFactory, cfg, authorizer, clock, outcomes)
	drawService := service.NewDrawService(uowFactory, cfg, authorizer, clock, outcomes, transferer)
	payoutService := service.NewPayoutService(uowFactory, cfg, authorizer, clock, transferer)

	// Listen for ledger payments
	if natsClient != nil {
		listener := infrastructure.NewPaymentListener(ticketService)
		if err := listener.Start(natsClient); err != nil {
			log.WithError(err).Error("Failed to start payment listener")
		}
	}

	// Start workers
	var stopFuncs []func()
	if cfg.DrawWorkerEnabled {
		stopFuncs = append(stopFuncs, worker.NewDrawWorker(drawService, clock, cfg).Start(ctx))
	}
	if cfg.PayoutWorkerEnabled {
		stopPayouts, err := worker.NewPayoutWorker(payoutService, cfg).Start(ctx)
		if err != nil {
			log.WithError(err).Error("Failed to start payout worker")
		} else {
			stopFuncs = append(stopFuncs, stopPayouts)
		}
	}

	// Serve the HTTP API until the context is cancelled
	server := api.NewServer(cfg, api.Services{
		Tickets:    ticketService,
		Rolls:      rollService,
		Draws:      drawService,
		Payouts:    payoutService,
		Authorizer: authorizer,
	})

	log.WithFields(log.Fields{
		"addr":        cfg.HTTPAddr,
		"environment": cfg.Environment,
		"payoutMode":  cfg.PayoutMode,
	}).Info("Dicer is running")

	serveErr := server.ListenAndServe(ctx, cfg.HTTPAddr)
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		log.WithError(serveErr).Error("HTTP server stopped unexpectedly")
	}

	// Cleanup resources
	log.Info("Shutting down dicer...")
	for _, stop := range stopFuncs {
		stop()
	}

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return serveErr
}
