package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/providers"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/domain/scheduling"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// MaxProjectionDays caps the days a caller may request in one projection
const MaxProjectionDays = 60

// AvailabilityCachePattern matches every cached projection of a doctor
func AvailabilityCachePattern(doctorID string) string {
	return fmt.Sprintf("availability:%s:*", doctorID)
}

func availabilityCacheKey(doctorID string, today time.Time, days int) string {
	return fmt.Sprintf("availability:%s:%s:%d", doctorID, today.Format(entities.DateLayout), days)
}

// AvailabilityService projects a doctor's free slots from stored windows and bookings
type AvailabilityService struct {
	doctors      repositories.DoctorRepository
	windows      repositories.AvailabilityRepository
	appointments repositories.AppointmentRepository
	projector    *scheduling.Projector

	cache    providers.CacheProvider
	cacheTTL int
	metrics  *observability.Metrics
	loc      *time.Location
	now      func() time.Time
}

// AvailabilityOption configures an AvailabilityService
type AvailabilityOption func(*AvailabilityService)

// WithAvailabilityCache enables read-through caching of projections
func WithAvailabilityCache(cache providers.CacheProvider, ttlSeconds int) AvailabilityOption {
	return func(s *AvailabilityService) {
		s.cache = cache
		s.cacheTTL = ttlSeconds
	}
}

// WithAvailabilityMetrics records projection metrics
func WithAvailabilityMetrics(metrics *observability.Metrics) AvailabilityOption {
	return func(s *AvailabilityService) { s.metrics = metrics }
}

// WithLocation sets the clinic time zone used to decide "today"
func WithLocation(loc *time.Location) AvailabilityOption {
	return func(s *AvailabilityService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) AvailabilityOption {
	return func(s *AvailabilityService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	doctors repositories.DoctorRepository,
	windows repositories.AvailabilityRepository,
	appointments repositories.AppointmentRepository,
	projector *scheduling.Projector,
	opts ...AvailabilityOption,
) *AvailabilityService {
	s := &AvailabilityService{
		doctors:      doctors,
		windows:      windows,
		appointments: appointments,
		projector:    projector,
		loc:          time.UTC,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the clinic time zone
func (s *AvailabilityService) Location() *time.Location {
	return s.loc
}

// Today returns midnight of the current day in the clinic time zone
func (s *AvailabilityService) Today() time.Time {
	return entities.Date(s.now().In(s.loc))
}

// Now returns the current instant in the clinic time zone
func (s *AvailabilityService) Now() time.Time {
	return s.now().In(s.loc)
}

// GetDoctorAvailability returns the doctor's free slots for days calendar days
// starting today. days <= 0 uses the projector horizon.
func (s *AvailabilityService) GetDoctorAvailability(ctx context.Context, doctorID string, days int) (*entities.AvailabilityProjection, error) {
	ctx, span := observability.StartSpan(ctx, "AvailabilityService.GetDoctorAvailability")
	defer span.End()

	if days <= 0 {
		days = s.projector.Horizon()
	}
	if days > MaxProjectionDays {
		return nil, apperrors.NewValidationError(fmt.Sprintf("days must not exceed %d", MaxProjectionDays))
	}

	today := s.Today()
	observability.SetSpanAttributes(span,
		attribute.String("doctor.id", doctorID),
		attribute.Int("projection.days", days),
	)

	key := availabilityCacheKey(doctorID, today, days)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	doctor, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	in, err := s.projectionInput(ctx, doctor, today, days)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	projection := s.projector.Project(in)
	observability.RecordSlotsProjected(ctx, s.metrics, doctorID, projection.SlotCount())
	s.toCache(ctx, key, &projection)

	return &projection, nil
}

// projectionInput loads the windows and bookings a projection over
// [from, from+days) needs
func (s *AvailabilityService) projectionInput(ctx context.Context, doctor *entities.Doctor, from time.Time, days int) (scheduling.ProjectionInput, error) {
	windows, err := s.windows.ListActiveByDoctor(ctx, doctor.ID)
	if err != nil {
		return scheduling.ProjectionInput{}, err
	}

	start := time.Now()
	booked, err := s.appointments.ListBookedInstants(ctx, doctor.ID, from, from.AddDate(0, 0, days))
	observability.RecordDBMetric(ctx, s.metrics, "list_booked_instants", time.Since(start))
	if err != nil {
		return scheduling.ProjectionInput{}, err
	}

	return scheduling.ProjectionInput{
		DoctorID:     doctor.ID,
		Today:        from,
		Days:         days,
		SlotDuration: doctor.SlotDuration(),
		Windows:      windows,
		Booked:       booked,
	}, nil
}

func (s *AvailabilityService) fromCache(ctx context.Context, key string) (*entities.AvailabilityProjection, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		observability.RecordCacheMiss(ctx, s.metrics, "availability")
		return nil, false
	}

	var projection entities.AvailabilityProjection
	if err := json.Unmarshal(data, &projection); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("discarding unreadable cached projection")
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, "availability")
	return &projection, true
}

func (s *AvailabilityService) toCache(ctx context.Context, key string, projection *entities.AvailabilityProjection) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(projection)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache projection")
	}
}
