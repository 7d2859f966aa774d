package database_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carebooking/internal/adapters/database"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

var doctorRowColumns = []string{
	"id", "name", "specialization_id", "qualification", "experience_years",
	"consultation_fee", "slot_duration_minutes", "is_active", "created_at", "updated_at",
}

func TestDoctorAdapter_GetByID(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)

	t.Run("scans the doctor", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewDoctorAdapter(client)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "doctors"`)).
			WillReturnRows(sqlmock.NewRows(doctorRowColumns).
				AddRow("doc-1", "Dr. Rao", "spec-cardio", nil, 12, 800.0, 20, true, created, created))

		doctor, err := adapter.GetByID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "Dr. Rao", doctor.Name)
		assert.Equal(t, 20*time.Minute, doctor.SlotDuration())
		assert.Empty(t, doctor.Qualification)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown doctor", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewDoctorAdapter(client)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "doctors"`)).
			WillReturnRows(sqlmock.NewRows(doctorRowColumns))

		_, err := adapter.GetByID(ctx, "nope")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestDoctorAdapter_ListBySpecialization(t *testing.T) {
	ctx := context.Background()
	client, mock := newMock(t)
	adapter := database.NewDoctorAdapter(client)
	created := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "doctors"`)).
		WillReturnRows(sqlmock.NewRows(doctorRowColumns).
			AddRow("doc-1", "Dr. Iyer", "spec-cardio", "MD", 8, 600.0, 15, true, created, created).
			AddRow("doc-2", "Dr. Rao", "spec-cardio", "DM", 12, 800.0, 20, true, created, created))

	doctors, err := adapter.ListBySpecialization(ctx, "spec-cardio")
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "MD", doctors[0].Qualification)
	assert.Equal(t, "doc-2", doctors[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorAdapter_GetByIDsEmpty(t *testing.T) {
	client, mock := newMock(t)
	doctors, err := database.NewDoctorAdapter(client).GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, doctors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityAdapter_ListActiveByDoctor(t *testing.T) {
	ctx := context.Background()
	client, mock := newMock(t)
	adapter := database.NewAvailabilityAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "doctors_availability"`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "doctor_id", "clinic_name", "clinic_address", "clinic_mobile", "days",
			"morning_slot", "afternoon_slot", "evening_slot", "slot_duration_minutes",
			"availability", "active_flag",
		}).AddRow(
			"w-1", "doc-1", "City Clinic", "12 MG Road", "9800000000", "Mon, Wed",
			"09:00 AM - 10:00 AM", nil, "06:00 PM - 07:00 PM", 30, true, true,
		))

	windows, err := adapter.ListActiveByDoctor(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, windows, 1)

	w := windows[0]
	assert.True(t, w.Days.Contains(time.Monday))
	assert.True(t, w.Days.Contains(time.Wednesday))
	assert.False(t, w.Days.Contains(time.Friday))
	assert.Equal(t, []string{"09:00 AM - 10:00 AM", "06:00 PM - 07:00 PM"}, w.Ranges())
	assert.Empty(t, w.RangeFor(entities.PeriodAfternoon))
	assert.True(t, w.OpenOn(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
