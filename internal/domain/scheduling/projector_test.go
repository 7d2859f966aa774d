package scheduling

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

// 2 March 2026 is a Monday
var monday = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

func cityClinic() entities.AvailabilityWindow {
	return entities.AvailabilityWindow{
		ID:                  "w-1",
		DoctorID:            "doc-1",
		ClinicName:          "City Clinic",
		ClinicAddress:       "12 MG Road",
		Days:                entities.NewWeekdaySet(time.Monday, time.Wednesday),
		MorningSlot:         "09:00 AM - 10:00 AM",
		EveningSlot:         "06:00 PM - 07:00 PM",
		SlotDurationMinutes: 30,
		Available:           true,
		Active:              true,
	}
}

func harbourClinic() entities.AvailabilityWindow {
	return entities.AvailabilityWindow{
		ID:            "w-2",
		DoctorID:      "doc-1",
		ClinicName:    "Harbour Clinic",
		ClinicAddress: "4 Beach Road",
		Days:          entities.NewWeekdaySet(time.Monday, time.Friday),
		AfternoonSlot: "02:00 PM - 03:00 PM",
		Available:     true,
		Active:        true,
	}
}

func TestProjector_Project(t *testing.T) {
	p := NewProjector(zerolog.Nop())

	projection := p.Project(ProjectionInput{
		DoctorID:     "doc-1",
		Today:        monday,
		SlotDuration: 20 * time.Minute,
		Windows:      []entities.AvailabilityWindow{cityClinic(), harbourClinic()},
		Booked: []entities.BookedInstant{
			{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday, Time: tod("09:30")},
		},
	})

	assert.Equal(t, "doc-1", projection.DoctorID)
	require.Len(t, projection.Days, DefaultHorizonDays)

	mon := projection.Days[0]
	assert.Equal(t, "Mon", mon.Weekday)
	assert.Equal(t, entities.Date(monday), mon.Date)
	require.Len(t, mon.Clinics, 2)

	assert.Equal(t, "City Clinic", mon.Clinics[0].Name)
	assert.Equal(t, "12 MG Road", mon.Clinics[0].Address)
	assert.Equal(t, []string{"09:00 AM - 10:00 AM", "06:00 PM - 07:00 PM"}, mon.Clinics[0].Timing)
	assert.Equal(t, todList("09:00", "18:00", "18:30"), mon.Clinics[0].AvailableSlots)

	// Harbour Clinic has no duration of its own and falls back to the doctor's
	assert.Equal(t, "Harbour Clinic", mon.Clinics[1].Name)
	assert.Equal(t, todList("14:00", "14:20", "14:40"), mon.Clinics[1].AvailableSlots)

	tue := projection.Days[1]
	assert.Equal(t, "Tue", tue.Weekday)
	assert.NotNil(t, tue.Clinics)
	assert.Empty(t, tue.Clinics)

	wed := projection.Days[2]
	require.Len(t, wed.Clinics, 1)
	assert.Equal(t, todList("09:00", "09:30", "18:00", "18:30"), wed.Clinics[0].AvailableSlots)

	fri := projection.Days[4]
	require.Len(t, fri.Clinics, 1)
	assert.Equal(t, "Harbour Clinic", fri.Clinics[0].Name)
}

func TestProjector_EmptyBookingsPassThrough(t *testing.T) {
	p := NewProjector(zerolog.Nop())
	window := cityClinic()

	projection := p.Project(ProjectionInput{DoctorID: "doc-1", Today: monday, Windows: []entities.AvailabilityWindow{window}})

	ranges := ParseTimeWindows(zerolog.Nop(), window.Ranges()...)
	all, err := GenerateSlots(ranges, window.SlotDuration())
	require.NoError(t, err)

	assert.Equal(t, all, projection.Days[0].Clinics[0].AvailableSlots)
}

func TestProjector_MalformedWindowTolerated(t *testing.T) {
	var buf bytes.Buffer
	p := NewProjector(zerolog.New(&buf))

	window := cityClinic()
	window.MorningSlot = "9 in the morning till noon"

	projection := p.Project(ProjectionInput{DoctorID: "doc-1", Today: monday, Windows: []entities.AvailabilityWindow{window}})

	clinic := projection.Days[0].Clinics[0]
	assert.Equal(t, []string{"06:00 PM - 07:00 PM"}, clinic.Timing)
	assert.Equal(t, todList("18:00", "18:30"), clinic.AvailableSlots)
	assert.Contains(t, buf.String(), `"clinic":"City Clinic"`)
	assert.Contains(t, buf.String(), `"doctor_id":"doc-1"`)
}

func TestProjector_WindowWithoutDurationSkipped(t *testing.T) {
	p := NewProjector(zerolog.Nop())

	projection := p.Project(ProjectionInput{
		DoctorID: "doc-1",
		Today:    monday,
		Windows:  []entities.AvailabilityWindow{harbourClinic(), cityClinic()},
	})

	require.Len(t, projection.Days[0].Clinics, 1)
	assert.Equal(t, "City Clinic", projection.Days[0].Clinics[0].Name)
}

func TestProjector_InactiveWindowIgnored(t *testing.T) {
	p := NewProjector(zerolog.Nop())
	window := cityClinic()
	window.Active = false

	projection := p.Project(ProjectionInput{DoctorID: "doc-1", Today: monday, Windows: []entities.AvailabilityWindow{window}})
	for _, d := range projection.Days {
		assert.Empty(t, d.Clinics)
	}
}

func TestProjector_Horizon(t *testing.T) {
	p := NewProjector(zerolog.Nop(), WithHorizon(14))
	assert.Equal(t, 14, p.Horizon())

	projection := p.Project(ProjectionInput{Today: monday})
	assert.Len(t, projection.Days, 14)

	projection = p.Project(ProjectionInput{Today: monday, Days: 3})
	assert.Len(t, projection.Days, 3)
	assert.Equal(t, entities.Date(monday).AddDate(0, 0, 2), projection.Days[2].Date)

	assert.Equal(t, DefaultHorizonDays, NewProjector(zerolog.Nop(), WithHorizon(0)).Horizon())
}

func TestProjector_Deterministic(t *testing.T) {
	p := NewProjector(zerolog.Nop())
	in := ProjectionInput{
		DoctorID:     "doc-1",
		Today:        monday,
		SlotDuration: 15 * time.Minute,
		Windows:      []entities.AvailabilityWindow{cityClinic(), harbourClinic()},
		Booked: []entities.BookedInstant{
			{DoctorID: "doc-1", ClinicName: "Harbour Clinic", Date: monday, Time: tod("14:15")},
			{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday.AddDate(0, 0, 2), Time: tod("18:00")},
		},
	}

	assert.Equal(t, p.Project(in), p.Project(in))
}

func TestProjector_ConflictExclusion(t *testing.T) {
	p := NewProjector(zerolog.Nop())
	booked := []entities.BookedInstant{
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday, Time: tod("09:00")},
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday, Time: tod("18:30")},
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday.AddDate(0, 0, 2), Time: tod("09:30")},
		{DoctorID: "doc-1", ClinicName: "Harbour Clinic", Date: monday, Time: tod("14:40")},
	}

	projection := p.Project(ProjectionInput{
		DoctorID:     "doc-1",
		Today:        monday,
		SlotDuration: 20 * time.Minute,
		Windows:      []entities.AvailabilityWindow{cityClinic(), harbourClinic()},
		Booked:       booked,
	})

	for _, day := range projection.Days {
		for _, clinic := range day.Clinics {
			for _, slot := range clinic.AvailableSlots {
				for _, b := range booked {
					if b.ClinicName == clinic.Name && entities.SameDate(b.Date, day.Date) {
						assert.NotEqual(t, b.Time, slot, "%s %s %s", day.Date, clinic.Name, slot)
					}
				}
			}
		}
	}
}

func TestProjector_CandidatesAndOffers(t *testing.T) {
	p := NewProjector(zerolog.Nop())
	in := ProjectionInput{
		DoctorID: "doc-1",
		Today:    monday,
		Windows:  []entities.AvailabilityWindow{cityClinic()},
		Booked:   []entities.BookedInstant{{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday, Time: tod("09:00")}},
	}

	assert.Equal(t, todList("09:30", "18:00", "18:30"), p.CandidatesOn(in, "City Clinic", monday))
	assert.Empty(t, p.CandidatesOn(in, "City Clinic", monday.AddDate(0, 0, 1)))
	assert.Empty(t, p.CandidatesOn(in, "Nowhere", monday))

	assert.True(t, p.OffersSlot(in, "City Clinic", monday, tod("09:00")))
	assert.False(t, p.OffersSlot(in, "City Clinic", monday, tod("09:15")))
	assert.False(t, p.OffersSlot(in, "City Clinic", monday.AddDate(0, 0, 1), tod("09:00")))
}

func TestProjector_SharedClinicKeepsOtherDoctorsSlots(t *testing.T) {
	p := NewProjector(zerolog.Nop())

	projection := p.Project(ProjectionInput{
		DoctorID: "doc-1",
		Today:    monday,
		Days:     1,
		Windows:  []entities.AvailabilityWindow{cityClinic()},
		Booked: []entities.BookedInstant{
			{DoctorID: "doc-2", ClinicName: "City Clinic", Date: monday, Time: tod("09:00")},
			{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday, Time: tod("18:00")},
		},
	})

	require.Len(t, projection.Days, 1)
	require.Len(t, projection.Days[0].Clinics, 1)
	assert.Equal(t, todList("09:00", "09:30", "18:30"), projection.Days[0].Clinics[0].AvailableSlots)
}
