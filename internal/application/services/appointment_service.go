package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/providers"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/domain/scheduling"
	"github.com/zatekoja/carebooking/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
	"github.com/zatekoja/carebooking/pkg/retry"
)

// BookingRequest asks for one slot at a doctor's clinic
type BookingRequest struct {
	DoctorID     string             `json:"doctor_id"`
	SubscriberID string             `json:"subscriber_id"`
	BookForID    string             `json:"book_for_id,omitempty"`
	ClinicName   string             `json:"clinic_name"`
	Date         time.Time          `json:"-"`
	Time         entities.TimeOfDay `json:"time"`
	Notes        string             `json:"notes,omitempty"`
}

// RescheduleRequest moves an appointment to another slot of the same doctor
type RescheduleRequest struct {
	ClinicName string
	Date       time.Time
	Time       entities.TimeOfDay
}

// BookingPolicy bounds the retries of transactional booking writes
type BookingPolicy struct {
	MaxAttempts int
	// Retryable reports transient storage failures; nil retries nothing.
	Retryable func(error) bool
}

// AppointmentService books, moves and cancels doctor appointments
type AppointmentService struct {
	repo         repositories.AppointmentRepository
	availability *AvailabilityService
	eventBus     providers.EventBus
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	retryConfig  retry.Config
}

// NewAppointmentService creates a new appointment service. eventBus and cache may be nil.
func NewAppointmentService(
	repo repositories.AppointmentRepository,
	availability *AvailabilityService,
	eventBus providers.EventBus,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
	policy BookingPolicy,
) *AppointmentService {
	retryable := policy.Retryable
	if retryable == nil {
		retryable = func(error) bool { return false }
	}
	return &AppointmentService{
		repo:         repo,
		availability: availability,
		eventBus:     eventBus,
		cache:        cache,
		metrics:      metrics,
		retryConfig:  retry.BookingConfig(policy.MaxAttempts, retryable),
	}
}

// Book reserves the requested slot. It fails with VALIDATION when the doctor
// never offers that slot and with CONFLICT when someone else holds it.
func (s *AppointmentService) Book(ctx context.Context, req BookingRequest) (*entities.DoctorAppointment, error) {
	ctx, span := observability.StartSpan(ctx, "AppointmentService.Book")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("clinic.name", req.ClinicName),
	)

	if strings.TrimSpace(req.DoctorID) == "" || strings.TrimSpace(req.SubscriberID) == "" {
		return nil, apperrors.NewValidationError("doctor_id and subscriber_id are required")
	}

	date, err := s.checkSlot(ctx, req.DoctorID, req.ClinicName, req.Date, req.Time, nil)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	appointment := &entities.DoctorAppointment{
		ID:              uuid.New().String(),
		DoctorID:        req.DoctorID,
		SubscriberID:    req.SubscriberID,
		BookForID:       req.BookForID,
		ClinicName:      req.ClinicName,
		AppointmentDate: date,
		AppointmentTime: req.Time,
		Status:          entities.AppointmentStatusScheduled,
		Notes:           req.Notes,
	}

	if err := s.withRetry(ctx, "book appointment", func() error {
		return s.repo.Create(ctx, appointment)
	}); err != nil {
		s.recordConflict(ctx, req.DoctorID, err)
		observability.RecordError(span, err)
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("appointment_id", appointment.ID).
		Str("doctor_id", appointment.DoctorID).
		Str("clinic", appointment.ClinicName).
		Str("date", date.Format(entities.DateLayout)).
		Str("time", appointment.AppointmentTime.String()).
		Msg("appointment booked")

	s.announce(ctx, entities.BookingEventSlotBooked, appointment.ID, appointment.Instant())
	return appointment, nil
}

// Reschedule moves an active appointment to a new slot and marks it Rescheduled
func (s *AppointmentService) Reschedule(ctx context.Context, id string, req RescheduleRequest) (*entities.DoctorAppointment, error) {
	ctx, span := observability.StartSpan(ctx, "AppointmentService.Reschedule")
	defer span.End()

	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.Status.BlocksSlot() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("appointment %s is %s and cannot be rescheduled", id, appointment.Status))
	}

	clinic := req.ClinicName
	if clinic == "" {
		clinic = appointment.ClinicName
	}

	previous := appointment.Instant()
	date, err := s.checkSlot(ctx, appointment.DoctorID, clinic, req.Date, req.Time, &previous)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	appointment.ClinicName = clinic
	appointment.AppointmentDate = date
	appointment.AppointmentTime = req.Time

	if err := s.withRetry(ctx, "reschedule appointment", func() error {
		return s.repo.Reschedule(ctx, appointment)
	}); err != nil {
		s.recordConflict(ctx, appointment.DoctorID, err)
		observability.RecordError(span, err)
		return nil, err
	}

	s.announce(ctx, entities.BookingEventSlotReleased, appointment.ID, previous)
	s.announce(ctx, entities.BookingEventSlotBooked, appointment.ID, appointment.Instant())
	return appointment, nil
}

// Cancel releases an active appointment's slot
func (s *AppointmentService) Cancel(ctx context.Context, id string) error {
	ctx, span := observability.StartSpan(ctx, "AppointmentService.Cancel")
	defer span.End()

	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !appointment.Status.BlocksSlot() {
		return apperrors.NewValidationError(fmt.Sprintf("appointment %s is already %s", id, appointment.Status))
	}

	if err := s.repo.Cancel(ctx, id); err != nil {
		observability.RecordError(span, err)
		return err
	}

	s.announce(ctx, entities.BookingEventSlotReleased, appointment.ID, appointment.Instant())
	return nil
}

// ListForSubscriber returns a subscriber's appointments, newest first
func (s *AppointmentService) ListForSubscriber(ctx context.Context, subscriberID string, filter repositories.AppointmentFilter) ([]*entities.DoctorAppointment, error) {
	if strings.TrimSpace(subscriberID) == "" {
		return nil, apperrors.NewValidationError("subscriber id is required")
	}
	return s.repo.ListBySubscriber(ctx, subscriberID, filter)
}

// checkSlot verifies the requested slot is in the future, generated by one of
// the doctor's windows and not held by another active booking. It returns
// the normalised appointment date. own is the slot held by an appointment
// being moved; it does not count as taken.
func (s *AppointmentService) checkSlot(ctx context.Context, doctorID, clinic string, date time.Time, t entities.TimeOfDay, own *entities.BookedInstant) (time.Time, error) {
	if strings.TrimSpace(clinic) == "" {
		return time.Time{}, apperrors.NewValidationError("clinic_name is required")
	}
	if date.IsZero() {
		return time.Time{}, apperrors.NewValidationError("date is required")
	}

	loc := s.availability.Location()
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if !t.On(day).After(s.availability.Now()) {
		return time.Time{}, apperrors.NewValidationError("cannot book a slot in the past")
	}

	doctor, err := s.availability.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return time.Time{}, err
	}

	in, err := s.availability.projectionInput(ctx, doctor, day, 1)
	if err != nil {
		return time.Time{}, err
	}

	if !s.availability.projector.OffersSlot(in, clinic, day, t) {
		return time.Time{}, apperrors.NewValidationError(fmt.Sprintf(
			"doctor %s has no %s slot at %s on %s", doctorID, t.Clock12(), clinic, day.Format(entities.DisplayDateLayout),
		))
	}

	booked := in.Booked
	if own != nil {
		booked = withoutInstant(booked, *own)
	}
	if scheduling.IsBooked(t, booked, doctorID, clinic, day) {
		observability.RecordBookingConflict(ctx, s.metrics, doctorID)
		return time.Time{}, apperrors.NewConflictError("slot no longer available")
	}

	return day, nil
}

// withoutInstant drops the first booking matching mine
func withoutInstant(booked []entities.BookedInstant, mine entities.BookedInstant) []entities.BookedInstant {
	out := make([]entities.BookedInstant, 0, len(booked))
	removed := false
	for _, b := range booked {
		if !removed && b.DoctorID == mine.DoctorID && b.ClinicName == mine.ClinicName && entities.SameDate(b.Date, mine.Date) &&
			b.Time.Truncate(time.Minute) == mine.Time.Truncate(time.Minute) {
			removed = true
			continue
		}
		out = append(out, b)
	}
	return out
}

func (s *AppointmentService) withRetry(ctx context.Context, operation string, fn func() error) error {
	logger := observability.LoggerFromContext(ctx)
	return retry.DoWithLog(ctx, s.retryConfig, operation, fn, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", nextDelay).
			Msgf("%s failed, retrying", operation)
	})
}

func (s *AppointmentService) recordConflict(ctx context.Context, doctorID string, err error) {
	if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		observability.RecordBookingConflict(ctx, s.metrics, doctorID)
	}
}

// announce drops cached projections of the doctor and publishes the change.
// Failures are logged; the booking itself already succeeded.
func (s *AppointmentService) announce(ctx context.Context, eventType entities.BookingEventType, appointmentID string, instant entities.BookedInstant) {
	logger := observability.LoggerFromContext(ctx)

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, AvailabilityCachePattern(instant.DoctorID)); err != nil {
			logger.Warn().Err(err).Str("doctor_id", instant.DoctorID).Msg("failed to invalidate availability cache")
		}
	}

	if s.eventBus == nil {
		return
	}
	event := entities.NewBookingEvent(eventType, appointmentID, instant)
	if err := s.eventBus.Broadcast(ctx, event, providers.BookingChannels(instant.DoctorID)...); err != nil {
		logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish booking event")
	}
}
