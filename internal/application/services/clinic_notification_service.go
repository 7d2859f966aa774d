package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/providers"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
)

// ClinicNotificationService texts a clinic's front desk whenever one of its
// slots is booked or released.
type ClinicNotificationService struct {
	doctorRepo       repositories.DoctorRepository
	availabilityRepo repositories.AvailabilityRepository
	sender           providers.MessageSender
	eventBus         providers.EventBus
	ctx              context.Context
	cancel           context.CancelFunc
	done             chan struct{}
	started          bool
}

// NewClinicNotificationService creates a new clinic notification service
func NewClinicNotificationService(
	doctorRepo repositories.DoctorRepository,
	availabilityRepo repositories.AvailabilityRepository,
	sender providers.MessageSender,
	eventBus providers.EventBus,
) *ClinicNotificationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ClinicNotificationService{
		doctorRepo:       doctorRepo,
		availabilityRepo: availabilityRepo,
		sender:           sender,
		eventBus:         eventBus,
		ctx:              ctx,
		cancel:           cancel,
		done:             make(chan struct{}),
	}
}

// Start begins listening for booking events
func (s *ClinicNotificationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelBookingUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to booking updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Str("channel", providers.EventChannelBookingUpdates).Msg("Clinic notification service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *ClinicNotificationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Clinic notification service stopped")
}

func (s *ClinicNotificationService) processEvents(eventChan <-chan *entities.BookingEvent) {
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
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.Notify(ctx, event); err != nil {
				log.Warn().
					Err(err).
					Str("event_id", event.ID).
					Str("doctor_id", event.DoctorID).
					Msg("Failed to notify clinic")
			}
			cancel()
		}
	}
}

// Notify sends the text for a single booking event. Events other than
// bookings and releases, and clinics without a mobile number, are skipped.
func (s *ClinicNotificationService) Notify(ctx context.Context, event *entities.BookingEvent) error {
	var verb string
	switch event.EventType {
	case entities.BookingEventSlotBooked:
		verb = "booked"
	case entities.BookingEventSlotReleased:
		verb = "released"
	default:
		return nil
	}

	mobile, err := s.clinicMobile(ctx, event.DoctorID, event.ClinicName)
	if err != nil {
		return err
	}
	if mobile == "" {
		log.Debug().Str("doctor_id", event.DoctorID).Str("clinic", event.ClinicName).Msg("No clinic mobile on file")
		return nil
	}

	doctor, err := s.doctorRepo.GetByID(ctx, event.DoctorID)
	if err != nil {
		return fmt.Errorf("failed to load doctor %s: %w", event.DoctorID, err)
	}

	messageID, err := s.sender.SendText(ctx, mobile, bookingMessage(verb, doctor.Name, event))
	if err != nil {
		return fmt.Errorf("failed to send clinic notification: %w", err)
	}

	log.Info().
		Str("message_id", messageID).
		Str("appointment_id", event.AppointmentID).
		Str("event_type", string(event.EventType)).
		Msg("Clinic notified")
	return nil
}

func (s *ClinicNotificationService) clinicMobile(ctx context.Context, doctorID, clinic string) (string, error) {
	windows, err := s.availabilityRepo.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		return "", fmt.Errorf("failed to load windows for doctor %s: %w", doctorID, err)
	}
	for _, w := range windows {
		if w.ClinicName == clinic && w.ClinicMobile != "" {
			return w.ClinicMobile, nil
		}
	}
	return "", nil
}

func bookingMessage(verb, doctorName string, event *entities.BookingEvent) string {
	when := event.Date + " " + event.Time
	if date, err := time.Parse(entities.DateLayout, event.Date); err == nil {
		when = date.Format("Mon, Jan 2")
		if t, err := entities.ParseTimeOfDay(event.Time); err == nil {
			when += " at " + t.Clock12()
		}
	}
	return fmt.Sprintf("Slot %s: Dr. %s, %s, %s", verb, doctorName, event.ClinicName, when)
}
