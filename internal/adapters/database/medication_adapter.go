package database

import (
	"context"
	"database/sql"
	"maps"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/zatekoja/carebooking/internal/domain/entities"
	"github.com/zatekoja/carebooking/internal/domain/repositories"
	"github.com/zatekoja/carebooking/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/carebooking/pkg/errors"
)

// MedicationAdapter implements the MedicationRepository interface
type MedicationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMedicationAdapter creates a new medication schedule adapter
func NewMedicationAdapter(client *postgres.Client) repositories.MedicationRepository {
	return &MedicationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// SaveSchedules persists every schedule of a session and their doses in one
// transaction; either all of them are stored or none is
func (a *MedicationAdapter) SaveSchedules(ctx context.Context, sessionID string, schedules []*entities.MedicationSchedule) error {
	if len(schedules) == 0 {
		return nil
	}

	now := time.Now()
	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		for _, schedule := range schedules {
			if schedule.ID == "" {
				schedule.ID = uuid.New().String()
			}
			schedule.SessionID = sessionID
			schedule.CreatedAt = now
			if err := a.insertSchedule(ctx, tx, schedule); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *MedicationAdapter) insertSchedule(ctx context.Context, tx *sql.Tx, schedule *entities.MedicationSchedule) error {
	scheduleQuery, scheduleArgs, err := a.db.Insert("medication_schedules").
		Rows(goqu.Record{
			"id":             schedule.ID,
			"session_id":     schedule.SessionID,
			"medicine_name":  schedule.MedicineName,
			"dosage_code":    schedule.DosageCode,
			"dosage_timing":  string(schedule.DosageTiming),
			"days":           schedule.Days,
			"total_quantity": schedule.TotalQuantity,
			"start_date":     dateArg(schedule.StartDate),
			"created_at":     schedule.CreatedAt,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build schedule insert", err)
	}
	if _, err := tx.ExecContext(ctx, scheduleQuery, scheduleArgs...); err != nil {
		return postgres.ClassifyError("failed to save medication schedule "+schedule.MedicineName, err)
	}
	if len(schedule.Doses) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(schedule.Doses))
	for _, dose := range schedule.Doses {
		rows = append(rows, goqu.Record{
			"id":                uuid.New().String(),
			"schedule_id":       schedule.ID,
			"medication_timing": dose.MedicationTiming,
			"quantity":          dose.Quantity,
			"intake_time":       dose.IntakeTime,
		})
	}

	doseQuery, doseArgs, err := a.db.Insert("medication_doses").Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build dose insert", err)
	}
	if _, err := tx.ExecContext(ctx, doseQuery, doseArgs...); err != nil {
		return postgres.ClassifyError("failed to save doses", err)
	}
	return nil
}

// ListBySession returns a session's schedules with their doses in intake order
func (a *MedicationAdapter) ListBySession(ctx context.Context, sessionID string) ([]*entities.MedicationSchedule, error) {
	query, args, err := a.db.Select(
		"id", "session_id", "medicine_name", "dosage_code", "dosage_timing",
		"days", "total_quantity", "start_date", "created_at",
	).From("medication_schedules").
		Where(goqu.Ex{"session_id": sessionID}).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build schedule query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list medication schedules", err)
	}
	defer rows.Close()

	schedules := make([]*entities.MedicationSchedule, 0)
	byID := make(map[string]*entities.MedicationSchedule)
	for rows.Next() {
		s := &entities.MedicationSchedule{Doses: []entities.DoseEvent{}}
		var timing string
		err := rows.Scan(
			&s.ID,
			&s.SessionID,
			&s.MedicineName,
			&s.DosageCode,
			&timing,
			&s.Days,
			&s.TotalQuantity,
			&s.StartDate,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan medication schedule", err)
		}
		s.DosageTiming = entities.DosageTiming(timing)
		schedules = append(schedules, s)
		byID[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate medication schedules", err)
	}

	if len(schedules) == 0 {
		return schedules, nil
	}
	if err := a.loadDoses(ctx, byID); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (a *MedicationAdapter) loadDoses(ctx context.Context, byID map[string]*entities.MedicationSchedule) error {
	ids := slices.Sorted(maps.Keys(byID))

	query, args, err := a.db.Select("schedule_id", "medication_timing", "quantity", "intake_time").
		From("medication_doses").
		Where(goqu.Ex{"schedule_id": ids}).
		Order(goqu.I("schedule_id").Asc(), goqu.I("intake_time").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build dose query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to list doses", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scheduleID string
		var dose entities.DoseEvent
		if err := rows.Scan(&scheduleID, &dose.MedicationTiming, &dose.Quantity, &dose.IntakeTime); err != nil {
			return apperrors.NewInternalError("failed to scan dose", err)
		}
		s, ok := byID[scheduleID]
		if !ok {
			continue
		}
		dose.MedicineName = s.MedicineName
		dose.DosageTiming = s.DosageTiming
		s.Doses = append(s.Doses, dose)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("failed to iterate doses", err)
	}
	return nil
}
