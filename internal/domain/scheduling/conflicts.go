package scheduling

import (
	"time"

	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// FilterBooked drops candidates that coincide with a booking of doctorID at
// clinic on date. Times are compared to the minute. When nothing is booked
// there the candidates are returned as-is.
func FilterBooked(candidates []entities.TimeOfDay, booked []entities.BookedInstant, doctorID, clinic string, date time.Time) []entities.TimeOfDay {
	taken := bookedMinutes(booked, doctorID, clinic, date)
	if len(taken) == 0 {
		return candidates
	}

	free := make([]entities.TimeOfDay, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := taken[c.Truncate(time.Minute)]; ok {
			continue
		}
		free = append(free, c)
	}
	return free
}

// IsBooked reports whether t is taken for doctorID at clinic on date
func IsBooked(t entities.TimeOfDay, booked []entities.BookedInstant, doctorID, clinic string, date time.Time) bool {
	_, ok := bookedMinutes(booked, doctorID, clinic, date)[t.Truncate(time.Minute)]
	return ok
}

func bookedMinutes(booked []entities.BookedInstant, doctorID, clinic string, date time.Time) map[entities.TimeOfDay]struct{} {
	taken := make(map[entities.TimeOfDay]struct{})
	for _, b := range booked {
		if b.DoctorID != doctorID || b.ClinicName != clinic || !entities.SameDate(b.Date, date) {
			continue
		}
		taken[b.Time.Truncate(time.Minute)] = struct{}{}
	}
	return taken
}
