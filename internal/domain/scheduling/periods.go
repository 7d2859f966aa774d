package scheduling

import (
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

var (
	noon    = entities.NewTimeOfDay(12, 0, 0)
	evening = entities.NewTimeOfDay(17, 0, 0)
)

// ClassifyPeriod buckets a time into morning (< 12:00), afternoon
// (12:00 to 17:00) or evening (>= 17:00)
func ClassifyPeriod(t entities.TimeOfDay) entities.DayPeriod {
	switch {
	case t.Before(noon):
		return entities.PeriodMorning
	case t.Before(evening):
		return entities.PeriodAfternoon
	default:
		return entities.PeriodEvening
	}
}

// BookedInWindow returns the window doctor's bookings that fall on one of the
// window's days at its clinic, during a period the window has a range for
func BookedInWindow(window entities.AvailabilityWindow, booked []entities.BookedInstant) []entities.BookedInstant {
	out := make([]entities.BookedInstant, 0)
	for _, b := range booked {
		if b.DoctorID != window.DoctorID || b.ClinicName != window.ClinicName {
			continue
		}
		if !window.Days.Contains(b.Date.Weekday()) {
			continue
		}
		if window.RangeFor(ClassifyPeriod(b.Time)) == "" {
			continue
		}
		out = append(out, b)
	}
	return out
}
