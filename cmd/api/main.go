package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carebooking/internal/adapters/cache"
	"github.com/zatekoja/carebooking/internal/adapters/database"
	"github.com/zatekoja/carebooking/internal/adapters/events"
	"github.com/zatekoja/carebooking/internal/api/handlers"
	"github.com/zatekoja/carebooking/internal/api/routes"
	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/providers"
	"github.com/zatekoja/carebooking/internal/domain/scheduling"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/redis"
	"github.com/zatekoja/carebooking/internal/infrastructure/notifications"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
	"github.com/zatekoja/carebooking/pkg/config"
	"github.com/zatekoja/carebooking/pkg/secrets"
)

func main() {
	// Load configuration
	if err := secrets.Bootstrap(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load secrets")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment)
	log.Info().
		Str("version", cfg.OTEL.ServiceVersion).
		Str("env", cfg.Environment).
		Msg("Starting API server")

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.EnableOTELLogs(cfg.OTEL.ServiceName)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scheduling timezone")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	healthChecks := map[string]routes.HealthCheck{"postgres": pgClient.Ping}

	// Redis backs both the projection cache and the event bus; the API runs without it
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; caching and live updates disabled")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		healthChecks["redis"] = redisClient.Ping
	}

	// Initialize adapters
	doctorAdapter := database.NewDoctorAdapter(pgClient)
	availabilityAdapter := database.NewAvailabilityAdapter(pgClient)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	sessionAdapter := database.NewSessionAdapter(pgClient)
	medicationAdapter := database.NewMedicationAdapter(pgClient)

	// Initialize services
	projector := scheduling.NewProjector(
		log.Logger.With().Str("component", "projector").Logger(),
		scheduling.WithHorizon(cfg.Scheduling.HorizonDays),
	)

	availabilityOpts := []services.AvailabilityOption{
		services.WithLocation(loc),
		services.WithAvailabilityMetrics(metrics),
	}
	if cacheProvider != nil {
		availabilityOpts = append(availabilityOpts, services.WithAvailabilityCache(cacheProvider, cfg.Scheduling.CacheTTLSeconds))
	}
	availabilityService := services.NewAvailabilityService(doctorAdapter, availabilityAdapter, appointmentAdapter, projector, availabilityOpts...)

	appointmentService := services.NewAppointmentService(
		appointmentAdapter,
		availabilityService,
		eventBus,
		cacheProvider,
		metrics,
		services.BookingPolicy{
			MaxAttempts: cfg.Scheduling.BookingMaxAttempts,
			Retryable:   postgres.IsRetryable,
		},
	)
	directoryService := services.NewDoctorDirectoryService(doctorAdapter, availabilityAdapter, appointmentAdapter, availabilityService)
	sessionService := services.NewSessionService(sessionAdapter, loc)
	medicationService := services.NewMedicationService(medicationAdapter, sessionAdapter, cfg.Scheduling.DoseOffset())

	// Keep cached projections in step with bookings made by other instances
	var cacheInvalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
			cacheInvalidationService = nil
		}
	}

	// Text clinics about bookings when a WhatsApp sender is configured
	var clinicNotificationService *services.ClinicNotificationService
	if cfg.WhatsApp.Enabled() && eventBus != nil {
		sender, err := notifications.NewWhatsAppCloudSender(&cfg.WhatsApp)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create WhatsApp sender")
		} else {
			clinicNotificationService = services.NewClinicNotificationService(doctorAdapter, availabilityAdapter, sender, eventBus)
			if err := clinicNotificationService.Start(); err != nil {
				log.Warn().Err(err).Msg("Failed to start clinic notification service")
				clinicNotificationService = nil
			}
		}
	}

	// Initialize handlers
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, directoryService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	sessionHandler := handlers.NewSessionHandler(sessionService, medicationService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	router := routes.NewRouter(
		availabilityHandler,
		appointmentHandler,
		sessionHandler,
		sseHandler,
		healthChecks,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	// Create HTTP server. WriteTimeout stays unset so event streams are not cut off.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}
	if clinicNotificationService != nil {
		clinicNotificationService.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
