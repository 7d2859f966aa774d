package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// BookingEventType represents the type of booking event
type BookingEventType string

const (
	BookingEventSlotBooked   BookingEventType = "slot.booked"
	BookingEventSlotReleased BookingEventType = "slot.released"
	BookingEventWindowChange BookingEventType = "window.changed"
)

// BookingEvent is published whenever a doctor's free slots change
type BookingEvent struct {
	ID            string           `json:"id"`
	DoctorID      string           `json:"doctor_id"`
	AppointmentID string           `json:"appointment_id,omitempty"`
	EventType     BookingEventType `json:"event_type"`
	ClinicName    string           `json:"clinic_name,omitempty"`
	Date          string           `json:"date,omitempty"`
	Time          string           `json:"time,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// NewBookingEvent creates a booking event for the instant a slot changed at
func NewBookingEvent(eventType BookingEventType, appointmentID string, instant BookedInstant) *BookingEvent {
	return &BookingEvent{
		ID:            generateEventID(),
		DoctorID:      instant.DoctorID,
		AppointmentID: appointmentID,
		EventType:     eventType,
		ClinicName:    instant.ClinicName,
		Date:          instant.Date.Format(DateLayout),
		Time:          instant.Time.String(),
		Timestamp:     time.Now(),
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
