package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "Scheduled"
	AppointmentStatusRescheduled AppointmentStatus = "Rescheduled"
	AppointmentStatusCancelled   AppointmentStatus = "Cancelled"
	AppointmentStatusCompleted   AppointmentStatus = "Completed"
)

// BlocksSlot reports whether an appointment in this status holds its slot
func (s AppointmentStatus) BlocksSlot() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusRescheduled
}

// BlockingStatuses lists the statuses that make a slot unavailable
func BlockingStatuses() []AppointmentStatus {
	return []AppointmentStatus{AppointmentStatusScheduled, AppointmentStatusRescheduled}
}

// DoctorAppointment represents a booked consultation slot
type DoctorAppointment struct {
	ID              string            `json:"id" db:"id"`
	DoctorID        string            `json:"doctor_id" db:"doctor_id"`
	SubscriberID    string            `json:"subscriber_id" db:"subscriber_id"`
	BookForID       string            `json:"book_for_id,omitempty" db:"book_for_id"`
	ClinicName      string            `json:"clinic_name" db:"clinic_name"`
	AppointmentDate time.Time         `json:"appointment_date" db:"appointment_date"`
	AppointmentTime TimeOfDay         `json:"appointment_time" db:"appointment_time"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Notes           string            `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// StartsAt returns the absolute start of the appointment in loc
func (a *DoctorAppointment) StartsAt(loc *time.Location) time.Time {
	y, m, d := a.AppointmentDate.Date()
	return a.AppointmentTime.On(time.Date(y, m, d, 0, 0, 0, 0, loc))
}

// Instant returns the booked instant this appointment occupies
func (a *DoctorAppointment) Instant() BookedInstant {
	return BookedInstant{
		DoctorID:   a.DoctorID,
		ClinicName: a.ClinicName,
		Date:       a.AppointmentDate,
		Time:       a.AppointmentTime,
	}
}
