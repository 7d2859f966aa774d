package schedulectl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// WindowDocument is one weekly clinic window
type WindowDocument struct {
	ClinicName          string              `yaml:"clinic_name"`
	ClinicAddress       string              `yaml:"clinic_address"`
	ClinicMobile        string              `yaml:"clinic_mobile"`
	Days                entities.WeekdaySet `yaml:"days"`
	MorningSlot         string              `yaml:"morning_slot"`
	AfternoonSlot       string              `yaml:"afternoon_slot"`
	EveningSlot         string              `yaml:"evening_slot"`
	SlotDurationMinutes int                 `yaml:"slot_duration_minutes"`
	Unavailable         bool                `yaml:"unavailable"`
}

// BookingDocument is one taken slot
type BookingDocument struct {
	ClinicName string             `yaml:"clinic_name"`
	Date       string             `yaml:"date"`
	Time       entities.TimeOfDay `yaml:"time"`
}

// SlotsDocument is the input of the slots command
type SlotsDocument struct {
	DoctorID            string            `yaml:"doctor_id"`
	Today               string            `yaml:"today"`
	Days                int               `yaml:"days"`
	Timezone            string            `yaml:"timezone"`
	SlotDurationMinutes int               `yaml:"slot_duration_minutes"`
	Windows             []WindowDocument  `yaml:"windows"`
	Booked              []BookingDocument `yaml:"booked"`
}

// RecurrenceDocument is the input of the recurrence command. Without dates only
// the times of day within one span are planned.
type RecurrenceDocument struct {
	Frequency entities.FrequencyPolicy `yaml:"frequency"`
	Timezone  string                   `yaml:"timezone"`
	StartDate string                   `yaml:"start_date"`
	EndDate   string                   `yaml:"end_date"`
	StartTime entities.TimeOfDay       `yaml:"start_time"`
	EndTime   entities.TimeOfDay       `yaml:"end_time"`
}

// DosesDocument is the input of the doses command
type DosesDocument struct {
	services.MedicationRequest `yaml:",inline"`
	StartDate                  string `yaml:"start_date"`
	OffsetMinutes              int    `yaml:"offset_minutes"`
}

func decode(r io.Reader, out interface{}) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return fmt.Errorf("empty document")
		}
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func location(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// parseDate reads a yyyy-mm-dd date at midnight in loc; blank yields fallback
func parseDate(raw string, loc *time.Location, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseInLocation(entities.DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want yyyy-mm-dd", raw)
	}
	return d, nil
}

func (w WindowDocument) window(doctorID string) entities.AvailabilityWindow {
	return entities.AvailabilityWindow{
		DoctorID:            doctorID,
		ClinicName:          w.ClinicName,
		ClinicAddress:       w.ClinicAddress,
		ClinicMobile:        w.ClinicMobile,
		Days:                w.Days,
		MorningSlot:         w.MorningSlot,
		AfternoonSlot:       w.AfternoonSlot,
		EveningSlot:         w.EveningSlot,
		SlotDurationMinutes: w.SlotDurationMinutes,
		Available:           !w.Unavailable,
		Active:              true,
	}
}
