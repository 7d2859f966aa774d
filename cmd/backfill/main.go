package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carebooking/internal/adapters/database"
	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
	"github.com/zatekoja/carebooking/pkg/config"
	"github.com/zatekoja/carebooking/pkg/secrets"
)

func main() {
	// Load config
	if err := secrets.Bootstrap(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load secrets")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-backfill", cfg.Environment)

	var workers, batchSize int
	var sessionID string

	flag.IntVar(&workers, "workers", cfg.Scheduling.BackfillWorkerCount, "Number of concurrent workers")
	flag.IntVar(&batchSize, "batch", cfg.Scheduling.BackfillBatchSize, "Sessions fetched per round")
	flag.StringVar(&sessionID, "session", "", "Single session ID to backfill")
	flag.Parse()

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scheduling timezone")
	}

	// Setup DB
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	sessionRepo := database.NewSessionAdapter(pgClient)
	svc := services.NewCheckpointBackfillService(
		sessionRepo,
		services.NewSessionService(sessionRepo, loc),
		workers,
		batchSize,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.Logger.WithContext(ctx)

	start := time.Now()

	if sessionID != "" {
		written, err := svc.BackfillSingle(ctx, sessionID)
		if err != nil {
			log.Fatal().Err(err).Str("session_id", sessionID).Msg("Failed to backfill session")
		}
		log.Info().Str("session_id", sessionID).Int("checkpoints", written).Msg("Session backfilled")
		return
	}

	log.Info().Int("workers", workers).Int("batch", batchSize).Msg("Starting checkpoint backfill")
	summary, err := svc.BackfillAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Backfill failed")
		return
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("processed", summary.TotalProcessed).
		Int("succeeded", summary.SuccessCount).
		Int("failed", summary.FailureCount).
		Int("checkpoints", summary.CheckpointsWritten).
		Msg("Backfill complete")
}
