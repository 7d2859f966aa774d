package services_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/carebooking/internal/application/services"
	"github.com/zatekoja/carebooking/internal/domain/entities"
)

func bothDoctors(ids []string) bool {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return slices.Equal(sorted, []string{"doc-1", "doc-2"})
}

func TestDoctorDirectoryService_ListBySpecialization(t *testing.T) {
	f := newAvailabilityFixture(false)
	service := services.NewDoctorDirectoryService(f.doctors, f.windows, f.appointments, f.service)

	second := &entities.Doctor{ID: "doc-2", Name: "Dr. Iyer", SpecializationID: "spec-cardio", SlotDurationMinutes: 15, IsActive: true}
	f.doctors.On("ListBySpecialization", mock.Anything, "spec-cardio").
		Return([]*entities.Doctor{testDoctor(), second}, nil)

	eveningOnly := entities.AvailabilityWindow{
		ID:          "w-2",
		DoctorID:    "doc-2",
		ClinicName:  "Lake Clinic",
		Days:        entities.NewWeekdaySet(time.Monday),
		EveningSlot: "05:00 PM - 06:00 PM",
		Available:   true,
		Active:      true,
	}
	f.windows.On("ListActiveByDoctors", mock.Anything, mock.MatchedBy(bothDoctors)).
		Return([]entities.AvailabilityWindow{cityClinicWindow(), eveningOnly}, nil).Once()

	f.appointments.On("ListBookedInstantsByDoctors", mock.Anything, mock.MatchedBy(bothDoctors), monday, mock.AnythingOfType("time.Time")).
		Return([]entities.BookedInstant{
			{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday, Time: tod("09:30")},
			{DoctorID: "doc-1", ClinicName: "Other Clinic", Date: monday, Time: tod("09:30")},
			{DoctorID: "doc-1", ClinicName: "City Clinic", Date: monday.AddDate(0, 0, 1), Time: tod("09:30")},
			{DoctorID: "doc-2", ClinicName: "Lake Clinic", Date: monday, Time: tod("09:00")},
			{DoctorID: "doc-2", ClinicName: "Lake Clinic", Date: monday, Time: tod("17:15")},
		}, nil).Once()

	listings, err := service.ListBySpecialization(context.Background(), "spec-cardio")
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "doc-1", listings[0].Doctor.ID)
	require.Len(t, listings[0].Clinics, 1)
	require.Len(t, listings[0].Clinics[0].Booked, 1)
	assert.Equal(t, "09:30:00", listings[0].Clinics[0].Booked[0].Time.String())

	assert.Equal(t, "doc-2", listings[1].Doctor.ID)
	require.Len(t, listings[1].Clinics, 1)
	require.Len(t, listings[1].Clinics[0].Booked, 1)
	assert.Equal(t, "17:15:00", listings[1].Clinics[0].Booked[0].Time.String())

	f.windows.AssertNumberOfCalls(t, "ListActiveByDoctors", 1)
	f.appointments.AssertNumberOfCalls(t, "ListBookedInstantsByDoctors", 1)
}

func TestDoctorDirectoryService_PropagatesLoaderErrors(t *testing.T) {
	f := newAvailabilityFixture(false)
	service := services.NewDoctorDirectoryService(f.doctors, f.windows, f.appointments, f.service)

	f.doctors.On("ListBySpecialization", mock.Anything, "spec-cardio").
		Return([]*entities.Doctor{testDoctor()}, nil)
	f.windows.On("ListActiveByDoctors", mock.Anything, mock.Anything).
		Return([]entities.AvailabilityWindow{}, errors.New("connection reset"))
	f.appointments.On("ListBookedInstantsByDoctors", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]entities.BookedInstant{}, nil)

	_, err := service.ListBySpecialization(context.Background(), "spec-cardio")
	assert.EqualError(t, err, "connection reset")
}

func TestDoctorDirectoryService_NoDoctors(t *testing.T) {
	f := newAvailabilityFixture(false)
	service := services.NewDoctorDirectoryService(f.doctors, f.windows, f.appointments, f.service)
	f.doctors.On("ListBySpecialization", mock.Anything, "spec-none").Return([]*entities.Doctor{}, nil)

	listings, err := service.ListBySpecialization(context.Background(), "spec-none")
	require.NoError(t, err)
	assert.Empty(t, listings)
	f.windows.AssertNotCalled(t, "ListActiveByDoctors", mock.Anything, mock.Anything)
}
