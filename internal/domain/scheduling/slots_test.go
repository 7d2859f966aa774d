package scheduling

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

func tod(s string) entities.TimeOfDay {
	return entities.MustParseTimeOfDay(s)
}

func todList(ss ...string) []entities.TimeOfDay {
	out := make([]entities.TimeOfDay, 0, len(ss))
	for _, s := range ss {
		out = append(out, tod(s))
	}
	return out
}

func TestParseTimeWindow(t *testing.T) {
	w, err := ParseTimeWindow("09:00 AM - 01:00 PM")
	require.NoError(t, err)
	assert.Equal(t, tod("09:00"), w.Start)
	assert.Equal(t, tod("13:00"), w.End)
	assert.Equal(t, 4*time.Hour, w.Length())
	assert.Equal(t, "09:00 AM - 01:00 PM", w.Raw)

	w, err = ParseTimeWindow("  6:30 PM-8:00 PM ")
	require.NoError(t, err)
	assert.Equal(t, tod("18:30"), w.Start)
	assert.Equal(t, tod("20:00"), w.End)
}

func TestParseTimeWindow_Malformed(t *testing.T) {
	for _, raw := range []string{
		"09:00 AM",
		"09:00 AM to 01:00 PM",
		"nine - five",
		"05:00 PM - 09:00 AM",
		"10:00 AM - 10:00 AM",
		"09:00 AM - 10:00 AM - 11:00 AM",
	} {
		_, err := ParseTimeWindow(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseTimeWindow_Rejects24HourForms(t *testing.T) {
	for _, raw := range []string{
		"09:00 - 13:00",
		"09:00 AM - 13:00",
		"18:00 - 08:00 PM",
		"09:00:00 AM - 10:00 AM",
	} {
		_, err := ParseTimeWindow(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseTimeWindows_SkipsAndLogsMalformed(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	windows := ParseTimeWindows(logger, "garbage", "", "09:00 AM - 10:00 AM")

	require.Len(t, windows, 1)
	assert.Equal(t, tod("09:00"), windows[0].Start)
	assert.Contains(t, buf.String(), "skipping malformed availability window")
	assert.Contains(t, buf.String(), `"window":"garbage"`)
}

func TestGenerateSlots(t *testing.T) {
	windows := []TimeWindow{
		{Start: tod("09:00"), End: tod("10:00")},
		{Start: tod("17:00"), End: tod("18:00")},
	}

	slots, err := GenerateSlots(windows, 20*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, todList("09:00", "09:20", "09:40", "17:00", "17:20", "17:40"), slots)
}

func TestGenerateSlots_PartialSlotNotEmitted(t *testing.T) {
	windows := []TimeWindow{{Start: tod("09:00"), End: tod("10:00")}}

	slots, err := GenerateSlots(windows, 25*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, todList("09:00", "09:25"), slots)
}

func TestGenerateSlots_WindowShorterThanDuration(t *testing.T) {
	windows := []TimeWindow{{Start: tod("09:00"), End: tod("09:10")}}

	slots, err := GenerateSlots(windows, 15*time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestGenerateSlots_OverlappingWindowsCollapsed(t *testing.T) {
	windows := []TimeWindow{
		{Start: tod("10:00"), End: tod("12:00")},
		{Start: tod("11:00"), End: tod("13:00")},
	}

	slots, err := GenerateSlots(windows, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, todList("10:00", "11:00", "12:00"), slots)
}

func TestGenerateSlots_NonPositiveDuration(t *testing.T) {
	windows := []TimeWindow{{Start: tod("09:00"), End: tod("10:00")}}

	for _, d := range []time.Duration{0, -time.Minute} {
		_, err := GenerateSlots(windows, d)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
	}
}

func TestGenerateSlots_Containment(t *testing.T) {
	windows := []TimeWindow{
		{Start: tod("08:10"), End: tod("11:55")},
		{Start: tod("13:00"), End: tod("16:20")},
		{Start: tod("18:45"), End: tod("21:00")},
	}

	for _, minutes := range []int{5, 7, 15, 20, 30, 45, 60, 90} {
		d := time.Duration(minutes) * time.Minute
		slots, err := GenerateSlots(windows, d)
		require.NoError(t, err)

		for _, s := range slots {
			contained := false
			for _, w := range windows {
				if !s.Before(w.Start) && s.Duration()+d <= w.End.Duration() {
					contained = true
					break
				}
			}
			assert.True(t, contained, "slot %s with duration %s escapes every window", s, d)
		}
	}
}

func TestFilterBooked(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	candidates := todList("09:00", "09:30", "10:00", "10:30")
	booked := []entities.BookedInstant{
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: date, Time: tod("09:30")},
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: date, Time: tod("10:30:45")},
		{DoctorID: "doc-1", ClinicName: "Other Clinic", Date: date, Time: tod("09:00")},
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: date.AddDate(0, 0, 1), Time: tod("10:00")},
	}

	free := FilterBooked(candidates, booked, "doc-1", "City Clinic", date)
	assert.Equal(t, todList("09:00", "10:00"), free)

	assert.True(t, IsBooked(tod("09:30"), booked, "doc-1", "City Clinic", date))
	assert.False(t, IsBooked(tod("09:00"), booked, "doc-1", "City Clinic", date))
}

func TestFilterBooked_OtherDoctorsBookingsIgnored(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	candidates := todList("09:00", "09:30")
	booked := []entities.BookedInstant{
		{DoctorID: "doc-2", ClinicName: "City Clinic", Date: date, Time: tod("09:00")},
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: date, Time: tod("09:30")},
	}

	assert.Equal(t, todList("09:00"), FilterBooked(candidates, booked, "doc-1", "City Clinic", date))
	assert.Equal(t, todList("09:30"), FilterBooked(candidates, booked, "doc-2", "City Clinic", date))
	assert.False(t, IsBooked(tod("09:00"), booked, "doc-1", "City Clinic", date))
}

func TestFilterBooked_NoBookingsPassThrough(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	candidates := todList("09:00", "09:30")
	booked := []entities.BookedInstant{
		{DoctorID: "doc-1", ClinicName: "City Clinic", Date: date.AddDate(0, 0, 2), Time: tod("09:00")},
	}

	assert.Equal(t, candidates, FilterBooked(candidates, booked, "doc-1", "City Clinic", date))
	assert.Equal(t, candidates, FilterBooked(candidates, nil, "doc-1", "City Clinic", date))
}

func TestFilterBooked_DateComparedAcrossLocations(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	projected := time.Date(2026, 3, 2, 0, 0, 0, 0, ist)
	storedDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	booked := []entities.BookedInstant{{DoctorID: "doc-1", ClinicName: "City Clinic", Date: storedDate, Time: tod("09:00")}}
	free := FilterBooked(todList("09:00", "09:30"), booked, "doc-1", "City Clinic", projected)
	assert.Equal(t, todList("09:30"), free)
}
