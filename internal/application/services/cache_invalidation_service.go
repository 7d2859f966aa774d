package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/providers"
)

// CacheInvalidationService drops cached availability when bookings change.
// Booking writes on this instance invalidate inline; this service covers the
// changes made by other instances.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for booking events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelBookingUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to booking updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Str("channel", providers.EventChannelBookingUpdates).Msg("Cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.BookingEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateDoctor(ctx, event.DoctorID); err != nil {
		log.Warn().
			Err(err).
			Str("event_id", event.ID).
			Str("doctor_id", event.DoctorID).
			Msg("Failed to invalidate availability cache")
	}
}

// InvalidateDoctor drops every cached projection of a doctor
func (s *CacheInvalidationService) InvalidateDoctor(ctx context.Context, doctorID string) error {
	if doctorID == "" {
		return nil
	}
	if err := s.cache.DeletePattern(ctx, AvailabilityCachePattern(doctorID)); err != nil {
		return fmt.Errorf("failed to invalidate availability for %s: %w", doctorID, err)
	}
	log.Debug().Str("doctor_id", doctorID).Msg("Invalidated availability cache")
	return nil
}

// InvalidateAll drops every cached projection, e.g. after windows are edited in bulk
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, "availability:*"); err != nil {
		return fmt.Errorf("failed to invalidate availability caches: %w", err)
	}
	log.Info().Msg("Invalidated all availability caches")
	return nil
}
