package scheduling

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// DefaultHorizonDays is the number of calendar days projected, today included
const DefaultHorizonDays = 7

// Projector expands availability windows into free slots over a rolling horizon
type Projector struct {
	logger  zerolog.Logger
	horizon int
}

// ProjectorOption configures a Projector
type ProjectorOption func(*Projector)

// WithHorizon overrides the number of projected days. Non-positive values are ignored.
func WithHorizon(days int) ProjectorOption {
	return func(p *Projector) {
		if days > 0 {
			p.horizon = days
		}
	}
}

// NewProjector creates a projector that logs skipped windows to logger
func NewProjector(logger zerolog.Logger, opts ...ProjectorOption) *Projector {
	p := &Projector{
		logger:  logger,
		horizon: DefaultHorizonDays,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Horizon returns the default number of projected days
func (p *Projector) Horizon() int {
	return p.horizon
}

// ProjectionInput is everything a projection needs, fetched beforehand
type ProjectionInput struct {
	DoctorID string
	// Today is the first projected day; its location decides calendar boundaries.
	Today time.Time
	// Days overrides the projector horizon when positive.
	Days int
	// SlotDuration applies to windows that carry no duration of their own.
	SlotDuration time.Duration
	Windows      []entities.AvailabilityWindow
	Booked       []entities.BookedInstant
}

type parsedWindow struct {
	source   entities.AvailabilityWindow
	ranges   []TimeWindow
	duration time.Duration
}

// Project returns one entry per day of the horizon, in date order. Days on
// which no window is open carry an empty clinic list.
func (p *Projector) Project(in ProjectionInput) entities.AvailabilityProjection {
	days := p.horizon
	if in.Days > 0 {
		days = in.Days
	}

	parsed := p.parseWindows(in)
	today := entities.Date(in.Today)

	projection := entities.AvailabilityProjection{
		DoctorID: in.DoctorID,
		Days:     make([]entities.DayAvailability, 0, days),
	}

	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i)
		day := entities.DayAvailability{
			Date:    date,
			Weekday: entities.WeekdayCode(date.Weekday()),
			Clinics: make([]entities.ClinicAvailability, 0),
		}

		for _, pw := range parsed {
			if !pw.source.OpenOn(date) {
				continue
			}
			clinic, ok := p.clinicOn(pw, in, date)
			if !ok {
				continue
			}
			day.Clinics = append(day.Clinics, clinic)
		}

		projection.Days = append(projection.Days, day)
	}

	return projection
}

// CandidatesOn returns the free slots a single clinic offers on date
func (p *Projector) CandidatesOn(in ProjectionInput, clinic string, date time.Time) []entities.TimeOfDay {
	free := make([]entities.TimeOfDay, 0)
	for _, pw := range p.parseWindows(in) {
		if pw.source.ClinicName != clinic || !pw.source.OpenOn(date) {
			continue
		}
		c, ok := p.clinicOn(pw, in, date)
		if !ok {
			continue
		}
		free = append(free, c.AvailableSlots...)
	}
	return free
}

// OffersSlot reports whether t is a generated slot for clinic on date,
// regardless of whether it is already booked
func (p *Projector) OffersSlot(in ProjectionInput, clinic string, date time.Time, t entities.TimeOfDay) bool {
	for _, pw := range p.parseWindows(in) {
		if pw.source.ClinicName != clinic || !pw.source.OpenOn(date) {
			continue
		}
		slots, err := GenerateSlots(pw.ranges, pw.duration)
		if err != nil {
			continue
		}
		for _, s := range slots {
			if s.Truncate(time.Minute) == t.Truncate(time.Minute) {
				return true
			}
		}
	}
	return false
}

func (p *Projector) parseWindows(in ProjectionInput) []parsedWindow {
	parsed := make([]parsedWindow, 0, len(in.Windows))
	for _, w := range in.Windows {
		logger := p.logger.With().
			Str("doctor_id", in.DoctorID).
			Str("clinic", w.ClinicName).
			Logger()

		duration := w.SlotDuration()
		if duration <= 0 {
			duration = in.SlotDuration
		}

		parsed = append(parsed, parsedWindow{
			source:   w,
			ranges:   ParseTimeWindows(logger, w.Ranges()...),
			duration: duration,
		})
	}
	return parsed
}

func (p *Projector) clinicOn(pw parsedWindow, in ProjectionInput, date time.Time) (entities.ClinicAvailability, bool) {
	slots, err := GenerateSlots(pw.ranges, pw.duration)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("clinic", pw.source.ClinicName).
			Str("window_id", pw.source.ID).
			Msg("skipping availability window")
		return entities.ClinicAvailability{}, false
	}

	timing := make([]string, 0, len(pw.ranges))
	for _, r := range pw.ranges {
		timing = append(timing, r.Raw)
	}

	return entities.ClinicAvailability{
		Name:           pw.source.ClinicName,
		Address:        pw.source.ClinicAddress,
		Mobile:         pw.source.ClinicMobile,
		Timing:         timing,
		AvailableSlots: FilterBooked(slots, in.Booked, in.DoctorID, pw.source.ClinicName, date),
	}, true
}
