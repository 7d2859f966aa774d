package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// AppointmentRepository defines the interface for doctor appointment data operations
type AppointmentRepository interface {
	// Create inserts the appointment unless an active booking already holds the
	// same doctor, clinic, date and time; that case returns a CONFLICT error
	Create(ctx context.Context, appointment *entities.DoctorAppointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.DoctorAppointment, error)

	// Reschedule moves an appointment to a new clinic/date/time and marks it Rescheduled.
	// The new slot is subject to the same uniqueness rule as Create.
	Reschedule(ctx context.Context, appointment *entities.DoctorAppointment) error

	// Cancel cancels an appointment
	Cancel(ctx context.Context, id string) error

	// ListBookedInstants returns the slots held by active appointments of a
	// doctor with from <= date < to
	ListBookedInstants(ctx context.Context, doctorID string, from, to time.Time) ([]entities.BookedInstant, error)

	// ListBookedInstantsByDoctors is ListBookedInstants for several doctors at once
	ListBookedInstantsByDoctors(ctx context.Context, doctorIDs []string, from, to time.Time) ([]entities.BookedInstant, error)

	// ListBySubscriber retrieves appointments for a subscriber
	ListBySubscriber(ctx context.Context, subscriberID string, filter AppointmentFilter) ([]*entities.DoctorAppointment, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
