package database_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carebooking/internal/adapters/database"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

var sessionRowColumns = []string{
	"id", "subscriber_id", "book_for_id", "sp_id", "prescription_id", "visit_type",
	"session_frequency", "start_date", "end_date", "start_time", "end_time",
	"status", "created_at", "updated_at",
}

func newSession() *entities.ServiceSession {
	return &entities.ServiceSession{
		ID:                "sess-1",
		SubscriberID:      "sub-1",
		ServiceProviderID: "sp-1",
		Frequency:         entities.FrequencyEveryTwoHours,
		Window: entities.SessionWindow{
			StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			StartTime: entities.NewTimeOfDay(8, 0, 0),
			EndTime:   entities.NewTimeOfDay(14, 0, 0),
		},
	}
}

func TestSessionAdapter_CreateWithCheckpoints(t *testing.T) {
	ctx := context.Background()
	client, mock := newMock(t)
	adapter := database.NewSessionAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "service_sessions"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "vitals_checkpoints"`) + `.+ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	checkpoints := []entities.VitalsCheckpoint{
		{ScheduledAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)},
		{ScheduledAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
	}
	session := newSession()
	require.NoError(t, adapter.Create(ctx, session, checkpoints))

	assert.Equal(t, entities.SessionStatusListed, session.Status)
	for _, c := range checkpoints {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "sess-1", c.SessionID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionAdapter_CreateWithoutCheckpoints(t *testing.T) {
	client, mock := newMock(t)
	adapter := database.NewSessionAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "service_sessions"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, adapter.Create(context.Background(), newSession(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionAdapter_GetByID(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("scans the session", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewSessionAdapter(client)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "service_sessions"`)).
			WillReturnRows(sqlmock.NewRows(sessionRowColumns).AddRow(
				"sess-1", "sub-1", nil, "sp-1", "rx-9", "home",
				"Every two hours",
				time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
				"08:00:00", "14:00:00", "Listed", created, created,
			))

		session, err := adapter.GetByID(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, entities.FrequencyEveryTwoHours, session.Frequency)
		assert.Equal(t, entities.NewTimeOfDay(14, 0, 0), session.Window.EndTime)
		assert.Equal(t, "rx-9", session.PrescriptionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown session", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewSessionAdapter(client)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "service_sessions"`)).
			WillReturnRows(sqlmock.NewRows(sessionRowColumns))

		_, err := adapter.GetByID(ctx, "sess-x")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestSessionAdapter_ListWithoutCheckpoints(t *testing.T) {
	client, mock := newMock(t)
	adapter := database.NewSessionAdapter(client)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "service_sessions" AS "s"`) + `.+NOT EXISTS`).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).AddRow(
			"sess-2", "sub-2", "dep-1", "sp-1", nil, nil,
			"Twice a day",
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			"09:00:00", "09:00:00", "Active", created, created,
		))

	sessions, err := adapter.ListWithoutCheckpoints(context.Background(), nil, 50)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, entities.FrequencyTwiceADay, sessions[0].Frequency)
	assert.Equal(t, "dep-1", sessions[0].BookForID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionAdapter_ListWithoutCheckpointsAfterCursor(t *testing.T) {
	client, mock := newMock(t)
	adapter := database.NewSessionAdapter(client)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`NOT EXISTS.+\("s"\."created_at", "s"\."id"\) > \(\$\d+, \$\d+\).+ORDER BY "s"\."created_at" ASC, "s"\."id" ASC`).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns))

	sessions, err := adapter.ListWithoutCheckpoints(context.Background(),
		&repositories.SessionCursor{CreatedAt: created, ID: "sess-2"}, 50)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionAdapter_ListCheckpoints(t *testing.T) {
	client, mock := newMock(t)
	adapter := database.NewSessionAdapter(client)
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "vitals_checkpoints"`)).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "scheduled_at", "recorded"}).
			AddRow("c-1", "sess-1", at, true).
			AddRow("c-2", "sess-1", at.Add(2*time.Hour), false))

	checkpoints, err := adapter.ListCheckpoints(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.True(t, checkpoints[0].Recorded)
	assert.Equal(t, at.Add(2*time.Hour), checkpoints[1].ScheduledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationAdapter_SaveAndList(t *testing.T) {
	ctx := context.Background()
	client, mock := newMock(t)
	adapter := database.NewMedicationAdapter(client)

	schedule := &entities.MedicationSchedule{
		ID:            "med-1",
		SessionID:     "sess-1",
		MedicineName:  "Metformin",
		DosageCode:    entities.DosageCode{1, 0, 1, 0},
		DosageTiming:  entities.DosageBeforeFood,
		Days:          5,
		TotalQuantity: 10,
		StartDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Doses: []entities.DoseEvent{
			{MedicationTiming: entities.MealMorning, Quantity: 1, IntakeTime: entities.NewTimeOfDay(7, 45, 0)},
			{MedicationTiming: entities.MealEvening, Quantity: 1, IntakeTime: entities.NewTimeOfDay(19, 45, 0)},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "medication_schedules"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "medication_doses"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	require.NoError(t, adapter.SaveSchedules(ctx, "sess-1", []*entities.MedicationSchedule{schedule}))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "medication_schedules"`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "medicine_name", "dosage_code", "dosage_timing",
			"days", "total_quantity", "start_date", "created_at",
		}).AddRow("med-1", "sess-1", "Metformin", "1-0-1-0", "Before Food", 5, 10, schedule.StartDate, schedule.CreatedAt))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "medication_doses"`)).
		WillReturnRows(sqlmock.NewRows([]string{"schedule_id", "medication_timing", "quantity", "intake_time"}).
			AddRow("med-1", "morning", 1, "07:45:00").
			AddRow("med-1", "evening", 1, "19:45:00"))

	schedules, err := adapter.ListBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	got := schedules[0]
	assert.Equal(t, entities.DosageCode{1, 0, 1, 0}, got.DosageCode)
	require.Len(t, got.Doses, 2)
	assert.Equal(t, entities.MealEvening, got.Doses[1].MedicationTiming)
	assert.Equal(t, "Metformin", got.Doses[1].MedicineName)
	assert.Equal(t, entities.DosageBeforeFood, got.Doses[1].DosageTiming)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationAdapter_SaveSchedulesRollsBackOnFailure(t *testing.T) {
	client, mock := newMock(t)
	adapter := database.NewMedicationAdapter(client)

	metformin := &entities.MedicationSchedule{
		MedicineName: "Metformin",
		DosageCode:   entities.DosageCode{1, 0, 0, 0},
		DosageTiming: entities.DosageBeforeFood,
		Days:         1,
		Doses: []entities.DoseEvent{
			{MedicationTiming: entities.MealMorning, Quantity: 1, IntakeTime: entities.NewTimeOfDay(7, 45, 0)},
		},
	}
	paracetamol := &entities.MedicationSchedule{
		MedicineName: "Paracetamol",
		DosageCode:   entities.DosageCode{0, 1, 0, 0},
		DosageTiming: entities.DosageAfterFood,
		Days:         1,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "medication_schedules"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "medication_doses"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "medication_schedules"`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := adapter.SaveSchedules(context.Background(), "sess-1", []*entities.MedicationSchedule{metformin, paracetamol})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Paracetamol")
	assert.Equal(t, "sess-1", metformin.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMedicationAdapter_ListEmpty(t *testing.T) {
	client, mock := newMock(t)
	adapter := database.NewMedicationAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "medication_schedules"`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "session_id", "medicine_name", "dosage_code", "dosage_timing",
			"days", "total_quantity", "start_date", "created_at",
		}))

	schedules, err := adapter.ListBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, schedules)
	assert.NoError(t, mock.ExpectationsWereMet())
}
