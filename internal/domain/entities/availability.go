package entities

import (
	"time"
)

// Doctor is a practitioner whose clinics publish bookable slots
type Doctor struct {
	ID                  string    `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	SpecializationID    string    `json:"specialization_id" db:"specialization_id"`
	Qualification       string    `json:"qualification,omitempty" db:"qualification"`
	ExperienceYears     int       `json:"experience_years" db:"experience_years"`
	ConsultationFee     float64   `json:"consultation_fee" db:"consultation_fee"`
	SlotDurationMinutes int       `json:"slot_duration_minutes" db:"slot_duration_minutes"`
	IsActive            bool      `json:"is_active" db:"is_active"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// SlotDuration returns the configured consultation length
func (d *Doctor) SlotDuration() time.Duration {
	return time.Duration(d.SlotDurationMinutes) * time.Minute
}

// AvailabilityWindow is a doctor's weekly schedule at one clinic. Each of
// the morning/afternoon/evening fields holds a raw "HH:MM AM - HH:MM PM"
// range, or is empty when the clinic is closed for that part of the day.
type AvailabilityWindow struct {
	ID                  string     `json:"id" db:"id"`
	DoctorID            string     `json:"doctor_id" db:"doctor_id"`
	ClinicName          string     `json:"clinic_name" db:"clinic_name"`
	ClinicAddress       string     `json:"clinic_address" db:"clinic_address"`
	ClinicMobile        string     `json:"clinic_mobile" db:"clinic_mobile"`
	Days                WeekdaySet `json:"days" db:"days"`
	MorningSlot         string     `json:"morning_slot,omitempty" db:"morning_slot"`
	AfternoonSlot       string     `json:"afternoon_slot,omitempty" db:"afternoon_slot"`
	EveningSlot         string     `json:"evening_slot,omitempty" db:"evening_slot"`
	SlotDurationMinutes int        `json:"slot_duration_minutes" db:"slot_duration_minutes"`
	Available           bool       `json:"available" db:"availability"`
	Active              bool       `json:"active" db:"active_flag"`
}

// Ranges returns the non-empty raw ranges in morning, afternoon, evening order
func (w *AvailabilityWindow) Ranges() []string {
	ranges := make([]string, 0, 3)
	for _, r := range []string{w.MorningSlot, w.AfternoonSlot, w.EveningSlot} {
		if r != "" {
			ranges = append(ranges, r)
		}
	}
	return ranges
}

// RangeFor returns the raw range configured for a period of the day
func (w *AvailabilityWindow) RangeFor(p DayPeriod) string {
	switch p {
	case PeriodMorning:
		return w.MorningSlot
	case PeriodAfternoon:
		return w.AfternoonSlot
	case PeriodEvening:
		return w.EveningSlot
	}
	return ""
}

// OpenOn reports whether the window admits bookings on date
func (w *AvailabilityWindow) OpenOn(date time.Time) bool {
	return w.Active && w.Available && w.Days.Contains(date.Weekday())
}

// SlotDuration returns the per-window slot length
func (w *AvailabilityWindow) SlotDuration() time.Duration {
	return time.Duration(w.SlotDurationMinutes) * time.Minute
}

// DisplayDateLayout is the "dd-mm-yyyy" key format of availability responses
const DisplayDateLayout = "02-01-2006"

// DayPeriod is a coarse bucket of the day used to group clinic ranges
type DayPeriod string

const (
	PeriodMorning   DayPeriod = "morning"
	PeriodAfternoon DayPeriod = "afternoon"
	PeriodEvening   DayPeriod = "evening"
)

// BookedInstant is an already-taken slot start at a clinic on a date
type BookedInstant struct {
	DoctorID   string    `json:"doctor_id" db:"doctor_id"`
	ClinicName string    `json:"clinic_name" db:"clinic_name"`
	Date       time.Time `json:"date" db:"appointment_date"`
	Time       TimeOfDay `json:"time" db:"appointment_time"`
}

// ClinicAvailability is the free slots of one clinic on one day
type ClinicAvailability struct {
	Name           string      `json:"name"`
	Address        string      `json:"address"`
	Mobile         string      `json:"mobile,omitempty"`
	Timing         []string    `json:"timing"`
	AvailableSlots []TimeOfDay `json:"available_slots"`
}

// DayAvailability groups clinic availability by calendar date
type DayAvailability struct {
	Date    time.Time            `json:"date"`
	Weekday string               `json:"weekday"`
	Clinics []ClinicAvailability `json:"clinics"`
}

// AvailabilityProjection is a doctor's bookable slots over the horizon
type AvailabilityProjection struct {
	DoctorID string            `json:"doctor_id"`
	Days     []DayAvailability `json:"days"`
}

// SlotCount returns the number of free slots across all days and clinics
func (p *AvailabilityProjection) SlotCount() int {
	n := 0
	for _, d := range p.Days {
		for _, c := range d.Clinics {
			n += len(c.AvailableSlots)
		}
	}
	return n
}
